package document

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain", in: base64.StdEncoding.EncodeToString([]byte("hello")), want: "hello"},
		{name: "empty", in: "", want: ""},
		{name: "line wrapped", in: "aGVs\r\nbG8=", want: "hello"},
		{name: "invalid characters", in: "%%%not-base64%%%", wantErr: true},
		{name: "bad padding", in: "aGVsbG8", wantErr: true},
		{name: "url alphabet", in: "-_-_", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidEncoding)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestExtractPlainText(t *testing.T) {
	e := NewExtractor()

	res, err := e.Extract([]byte("Invoice number: 42\nTotal: 10 EUR"))
	require.NoError(t, err)
	assert.Equal(t, KindText, res.Kind)
	assert.Equal(t, "Invoice number: 42\nTotal: 10 EUR", res.Text)
}

func TestExtractEmpty(t *testing.T) {
	res, err := NewExtractor().Extract(nil)
	require.NoError(t, err)
	assert.Equal(t, KindText, res.Kind)
	assert.Equal(t, "", res.Text)
}

func TestExtractDropsInvalidUTF8(t *testing.T) {
	data := []byte{'a', 0xff, 'b', 0xc3, 0x28, 'c', 0xe2, 0x82, 0xac}

	res, err := NewExtractor().Extract(data)
	require.NoError(t, err)
	assert.Equal(t, "ab(c€", res.Text)
}

func TestExtractDocx(t *testing.T) {
	body := `<w:p><w:r><w:t>Acme Corp</w:t></w:r></w:p>` +
		`<w:p/>` +
		`<w:p><w:r><w:t xml:space="preserve">Date: </w:t></w:r><w:r><w:t>2024-01-02</w:t></w:r></w:p>` +
		`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>in a table</w:t></w:r></w:p></w:tc></w:tr></w:tbl>` +
		`<w:p><w:r><w:t>a</w:t><w:tab/><w:t>b</w:t><w:br/><w:t>c</w:t></w:r></w:p>` +
		`<w:p><w:hyperlink><w:r><w:t>link</w:t></w:r></w:hyperlink></w:p>` +
		`<w:sectPr/>`

	res, err := NewExtractor().Extract(buildDocx(t, body))
	require.NoError(t, err)

	assert.Equal(t, KindDOCX, res.Kind)
	assert.Equal(t, 5, res.Units)
	assert.Equal(t, "Acme Corp  Date: 2024-01-02 a\tb\nc link", res.Text)
}

func TestExtractDocxPageBreakIsNotText(t *testing.T) {
	body := `<w:p><w:r><w:t>one</w:t><w:br w:type="page"/><w:t>two</w:t></w:r></w:p>`

	res, err := NewExtractor().Extract(buildDocx(t, body))
	require.NoError(t, err)
	assert.Equal(t, "onetwo", res.Text)
}

func TestExtractCorruptZipFallsBackToText(t *testing.T) {
	data := buildDocx(t, `<w:p><w:r><w:t>x</w:t></w:r></w:p>`)
	corrupt := append([]byte{}, data[:len(data)/2]...)

	res, err := NewExtractor().Extract(corrupt)
	require.NoError(t, err)
	assert.Equal(t, KindText, res.Kind)
	assert.Equal(t, strings.ToValidUTF8(string(corrupt), ""), res.Text)
}

func TestExtractZipWithoutWordPartFallsBackToText(t *testing.T) {
	data := buildZip(t, map[string]string{"hello.txt": "hi"})

	res, err := NewExtractor().Extract(data)
	require.NoError(t, err)
	assert.Equal(t, KindText, res.Kind)
}

func TestExtractWrongContentTypeFallsBackToText(t *testing.T) {
	data := buildZip(t, map[string]string{
		"[Content_Types].xml": strings.Replace(contentTypesXML, "document.main+xml", "template.main+xml", 1),
		"_rels/.rels":         relsXML,
		"word/document.xml":   `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body/></w:document>`,
	})

	res, err := NewExtractor().Extract(data)
	require.NoError(t, err)
	assert.Equal(t, KindText, res.Kind)
}

func TestExtractMalformedDocumentXMLFallsBackToText(t *testing.T) {
	data := buildDocx(t, `<w:p><w:r><w:t>unclosed`)

	res, err := NewExtractor().Extract(data)
	require.NoError(t, err)
	assert.Equal(t, KindText, res.Kind)
}

func TestExtractPDF(t *testing.T) {
	data := buildPDF(t, "Invoice 42", "Total 99")

	res, err := NewExtractor().Extract(data)
	require.NoError(t, err)

	assert.Equal(t, KindPDF, res.Kind)
	assert.Equal(t, 2, res.Units)
	first := strings.Index(res.Text, "Invoice")
	second := strings.Index(res.Text, "Total")
	assert.GreaterOrEqual(t, first, 0)
	assert.Greater(t, second, first)
}

func TestExtractPDFBlankPage(t *testing.T) {
	res, err := NewExtractor().Extract(buildPDF(t, ""))
	require.NoError(t, err)
	assert.Equal(t, KindPDF, res.Kind)
	assert.Equal(t, 1, res.Units)
	assert.Empty(t, strings.TrimSpace(res.Text))
}

func TestExtractPDFSignatureAlwaysTakesPDFBranch(t *testing.T) {
	for _, data := range [][]byte{
		[]byte("%PDF"),
		[]byte("%PDF-1.7 this is not really a pdf"),
		append([]byte("%PDF"), buildDocx(t, `<w:p><w:r><w:t>x</w:t></w:r></w:p>`)...),
	} {
		res, err := NewExtractor().Extract(data)
		assert.True(t, errors.Is(err, ErrDocumentParse), "got %v", err)
		assert.Equal(t, KindPDF, res.Kind)
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	inputs := [][]byte{
		[]byte("plain"),
		buildDocx(t, `<w:p><w:r><w:t>docx</w:t></w:r></w:p>`),
		buildPDF(t, "pdf text"),
	}
	e := NewExtractor()
	for _, in := range inputs {
		a, errA := e.Extract(in)
		b, errB := e.Extract(in)
		require.NoError(t, errA)
		require.NoError(t, errB)
		assert.Equal(t, a, b)
	}
}

func TestIsPDF(t *testing.T) {
	assert.True(t, IsPDF([]byte("%PDF-1.4")))
	assert.False(t, IsPDF([]byte("%PD")))
	assert.False(t, IsPDF([]byte(" %PDF")))
	assert.False(t, IsPDF(nil))
}
