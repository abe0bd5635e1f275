package report

import (
	"strings"
)

// replacements maps typographic punctuation onto the closest ASCII
// equivalent. The PDF core fonts cover a restricted character set, so
// everything outside it must be mapped before measurement or drawing.
var replacements = map[rune]string{
	'‘': "'",  // left single quote
	'’': "'",  // right single quote
	'‚': "'",  // single low quote
	'“': `"`,  // left double quote
	'”': `"`,  // right double quote
	'„': `"`,  // double low quote
	'–': "-",  // en dash
	'—': "-",  // em dash
	'…': "...",
	' ': " ", // non-breaking space
	'«': `"`, // guillemets
	'»': `"`,
	'•': "-", // bullet
	'§': "S", // section sign
	'€': "EUR",
	'°': " degrees",
}

// sanitize maps text onto printable ASCII. Unknown non-ASCII runes become
// a single space so width measurement never sees a glyph the font lacks.
func sanitize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r == '\n' || r == '\t':
			b.WriteRune(r)
		case r >= 32 && r < 127:
			b.WriteRune(r)
		default:
			if repl, ok := replacements[r]; ok {
				b.WriteString(repl)
			} else {
				b.WriteByte(' ')
			}
		}
	}
	return b.String()
}
