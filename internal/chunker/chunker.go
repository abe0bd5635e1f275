package chunker

import (
	"fmt"
	"regexp"
)

// Chunk is a bounded contiguous slice of document text with positional
// metadata. Text holds the raw slice; Label carries the positional context
// ("PART i OF N") when the document was split at all.
type Chunk struct {
	Index int
	Total int
	Text  string
	Label string
}

var (
	paragraphBreak = regexp.MustCompile(`\n[ \t]*\n`)
	sentenceEnd    = regexp.MustCompile(`[.!?]\s`)
)

// Split partitions text into ordered, non-overlapping chunks of at most
// 1.2*maxLen bytes each. Boundaries prefer a paragraph break inside the
// window [pos+0.8*maxLen, pos+1.2*maxLen], then a sentence end, and fall
// back to a hard cut at exactly maxLen. Concatenating the Text fields of
// the returned chunks reproduces the input exactly.
//
// maxLen <= 0 is a programming error and panics.
func Split(text string, maxLen int) []Chunk {
	if maxLen <= 0 {
		panic(fmt.Sprintf("chunker: maxLen must be positive, got %d", maxLen))
	}

	if len(text) <= maxLen {
		return []Chunk{{Index: 0, Total: 1, Text: text}}
	}

	var parts []string
	pos := 0
	for pos < len(text) {
		if len(text)-pos <= maxLen {
			parts = append(parts, text[pos:])
			break
		}

		lo := pos + (maxLen*8)/10
		hi := pos + (maxLen*12)/10
		if hi > len(text) {
			hi = len(text)
		}

		cut := boundaryIn(text, lo, hi)
		if cut < 0 {
			cut = pos + maxLen
		}

		parts = append(parts, text[pos:cut])
		pos = cut
	}

	chunks := make([]Chunk, len(parts))
	for i, p := range parts {
		chunks[i] = Chunk{
			Index: i,
			Total: len(parts),
			Text:  p,
			Label: fmt.Sprintf("PART %d OF %d", i+1, len(parts)),
		}
	}
	return chunks
}

// boundaryIn returns the position just after the last natural boundary in
// text[lo:hi], or -1 when the window contains none. Paragraph breaks win
// over sentence ends so chunks track document structure where possible.
func boundaryIn(text string, lo, hi int) int {
	window := text[lo:hi]

	if m := lastMatch(paragraphBreak, window); m != nil {
		return lo + m[1]
	}
	if m := lastMatch(sentenceEnd, window); m != nil {
		return lo + m[1]
	}
	return -1
}

func lastMatch(re *regexp.Regexp, s string) []int {
	all := re.FindAllStringIndex(s, -1)
	if len(all) == 0 {
		return nil
	}
	return all[len(all)-1]
}
