package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_SingleChunk(t *testing.T) {
	text := "A short lease agreement."
	chunks := Split(text, 100)

	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0].Text)
	assert.Equal(t, 1, chunks[0].Total)
	assert.Empty(t, chunks[0].Label)
}

func TestSplit_RoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		maxLen int
	}{
		{
			name:   "paragraph boundaries",
			text:   strings.Repeat("First paragraph of the agreement.\n\nSecond paragraph with terms.\n\n", 200),
			maxLen: 1000,
		},
		{
			name:   "sentence boundaries only",
			text:   strings.Repeat("The tenant shall pay rent monthly. The landlord maintains the roof. ", 300),
			maxLen: 1500,
		},
		{
			name:   "no boundaries at all",
			text:   strings.Repeat("x", 30000),
			maxLen: 12000,
		},
		{
			name:   "exact fit",
			text:   strings.Repeat("y", 500),
			maxLen: 500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := Split(tt.text, tt.maxLen)

			var b strings.Builder
			for _, c := range chunks {
				b.WriteString(c.Text)
			}
			assert.Equal(t, tt.text, b.String(), "concatenated chunks must reproduce input")

			for i, c := range chunks {
				assert.Equal(t, i, c.Index)
				assert.Equal(t, len(chunks), c.Total)
				if i < len(chunks)-1 {
					assert.LessOrEqual(t, len(c.Text), (tt.maxLen*12)/10,
						"intermediate chunk %d exceeds 1.2*maxLen", i)
				}
			}
		})
	}
}

func TestSplit_ThreeWayHardBreak(t *testing.T) {
	text := strings.Repeat("a", 30000)
	chunks := Split(text, 12000)

	require.Len(t, chunks, 3)
	assert.Equal(t, "PART 1 OF 3", chunks[0].Label)
	assert.Equal(t, "PART 2 OF 3", chunks[1].Label)
	assert.Equal(t, "PART 3 OF 3", chunks[2].Label)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Text), 14400)
	}
}

func TestSplit_PrefersParagraphBreak(t *testing.T) {
	// A paragraph break sits inside the boundary window; the cut must land
	// just after it rather than at the hard maxLen position.
	head := strings.Repeat("a", 950)
	text := head + "\n\n" + strings.Repeat("b", 600)
	chunks := Split(text, 1000)

	require.Len(t, chunks, 2)
	assert.Equal(t, head+"\n\n", chunks[0].Text)
	assert.Equal(t, strings.Repeat("b", 600), chunks[1].Text)
}

func TestSplit_InvalidMaxLenPanics(t *testing.T) {
	assert.Panics(t, func() { Split("text", 0) })
	assert.Panics(t, func() { Split("text", -5) })
}
