package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// charWidth treats every character as one unit wide, which makes wrap
// boundaries easy to reason about in tests.
func charWidth(s string) float64 {
	return float64(len(s))
}

func TestWrapText_PacksWordsGreedily(t *testing.T) {
	lines := wrapText("the quick brown fox jumps", 10, charWidth)
	assert.Equal(t, []string{"the quick", "brown fox", "jumps"}, lines)
}

func TestWrapText_FitsOnOneLine(t *testing.T) {
	lines := wrapText("short text", 50, charWidth)
	assert.Equal(t, []string{"short text"}, lines)
}

func TestWrapText_PreservesParagraphsAndBlankLines(t *testing.T) {
	lines := wrapText("first paragraph\n\nsecond one", 20, charWidth)
	assert.Equal(t, []string{"first paragraph", "", "second one"}, lines)
}

func TestWrapText_SplitsOverlongWordWithHyphens(t *testing.T) {
	lines := wrapText("rent superkalifragilistic due", 10, charWidth)

	for _, line := range lines {
		assert.LessOrEqual(t, len(line), 10, "line %q exceeds max width", line)
	}

	joined := strings.Join(lines, "")
	assert.Contains(t, joined, "-", "broken segments must carry a trailing hyphen")

	// Stripping hyphen-breaks and spaces recovers the original word.
	recovered := strings.ReplaceAll(strings.Join(lines, " "), "- ", "")
	assert.Contains(t, recovered, "superkalifragilistic")
}

func TestSplitWord_SegmentsFitAndLastHasNoHyphen(t *testing.T) {
	segments := splitWord("abcdefghijklmnop", 5, charWidth)
	require.NotEmpty(t, segments)

	for i, seg := range segments {
		assert.LessOrEqual(t, len(seg), 5)
		if i < len(segments)-1 {
			assert.True(t, strings.HasSuffix(seg, "-"), "segment %q must end with hyphen", seg)
		}
	}
	last := segments[len(segments)-1]
	assert.False(t, strings.HasSuffix(last, "-"))

	rejoined := ""
	for _, seg := range segments {
		rejoined += strings.TrimSuffix(seg, "-")
	}
	assert.Equal(t, "abcdefghijklmnop", rejoined)
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"typographic quotes", "“quoted” and ‘single’", `"quoted" and 'single'`},
		{"dashes and ellipsis", "a – b — c…", "a - b - c..."},
		{"section sign and euro", "§ 12, 950€", "S 12, 950EUR"},
		{"unknown runes become space", "café 世界", "caf    "},
		{"ascii passthrough", "plain ASCII text\nwith newline", "plain ASCII text\nwith newline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitize(tt.in))
		})
	}
}
