package extractor

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestExtractDOCX(t *testing.T) {
	data := buildDOCX(t, `<?xml version="1.0"?>
<document xmlns="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <body>
    <p><r><t>Lease Agreement</t></r></p>
    <p><r><t>The monthly rent is </t></r><r><t>950 EUR.</t></r></p>
  </body>
</document>`)

	text, err := ExtractDOCX(data)
	require.NoError(t, err)
	assert.Equal(t, "Lease Agreement\nThe monthly rent is 950 EUR.", text)
}

func TestExtractDOCX_MissingDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/other.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte("<x/>"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = ExtractDOCX(buf.Bytes())
	assert.Error(t, err)
}

func TestExtractDOCX_NotAZip(t *testing.T) {
	_, err := ExtractDOCX([]byte("plainly not a zip archive"))
	assert.Error(t, err)
}

func TestExtractPDF_InvalidData(t *testing.T) {
	_, err := ExtractPDF([]byte("not a pdf"))
	assert.Error(t, err)
}

func TestExtractTXT(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{
			name: "plain utf8",
			in:   []byte("Lease Agreement\n\nRent: 950 EUR\n"),
			want: "Lease Agreement\n\nRent: 950 EUR",
		},
		{
			name: "utf8 BOM stripped",
			in:   append([]byte{0xEF, 0xBB, 0xBF}, []byte("Terms apply")...),
			want: "Terms apply",
		},
		{
			name: "windows line endings normalized",
			in:   []byte("First clause.\r\n\r\nSecond clause.\r\n"),
			want: "First clause.\n\nSecond clause.",
		},
		{
			name: "blank line runs collapse to one paragraph break",
			in:   []byte("First.\n\n\n\nSecond."),
			want: "First.\n\nSecond.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractTXT(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractTXT_Empty(t *testing.T) {
	_, err := ExtractTXT(nil)
	assert.Error(t, err)

	_, err = ExtractTXT([]byte("   \n  \n"))
	assert.Error(t, err)
}
