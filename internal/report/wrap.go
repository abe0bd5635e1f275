package report

import (
	"strings"
)

// measureFunc returns the rendered width of a string in the current font.
type measureFunc func(s string) float64

// wrapText breaks text into lines no wider than maxWidth. Words are packed
// greedily; a single word wider than maxWidth is split character by
// character with a trailing hyphen on each broken segment. Paragraphs
// (explicit line breaks) wrap independently and blank lines survive.
func wrapText(text string, maxWidth float64, measure measureFunc) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		if strings.TrimSpace(para) == "" {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, wrapParagraph(para, maxWidth, measure)...)
	}
	return lines
}

func wrapParagraph(para string, maxWidth float64, measure measureFunc) []string {
	var lines []string
	current := ""

	flush := func() {
		if current != "" {
			lines = append(lines, current)
			current = ""
		}
	}

	for _, word := range strings.Fields(para) {
		if measure(word) > maxWidth {
			flush()
			lines = append(lines, splitWord(word, maxWidth, measure)...)
			// The last segment keeps accepting words.
			if len(lines) > 0 {
				current = lines[len(lines)-1]
				lines = lines[:len(lines)-1]
			}
			continue
		}

		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if measure(candidate) <= maxWidth {
			current = candidate
		} else {
			flush()
			current = word
		}
	}
	flush()
	return lines
}

// splitWord cuts an overlong word into hyphenated segments that each fit
// within maxWidth. The final segment carries no hyphen.
func splitWord(word string, maxWidth float64, measure measureFunc) []string {
	var segments []string
	runes := []rune(word)
	start := 0

	for start < len(runes) {
		end := start + 1
		for end < len(runes) && measure(string(runes[start:end+1])+"-") <= maxWidth {
			end++
		}
		if end == len(runes) && measure(string(runes[start:end])) <= maxWidth {
			segments = append(segments, string(runes[start:end]))
			break
		}
		segments = append(segments, string(runes[start:end])+"-")
		start = end
	}
	return segments
}
