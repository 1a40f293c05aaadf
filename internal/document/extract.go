// Package document turns uploaded payloads into plain text.
//
// The text extractor is a fallback chain: PDF when the payload carries the
// %PDF signature, then a WordprocessingML (DOCX) attempt, then a lossy UTF-8
// decode of the raw bytes. Output is a pure function of the input bytes.
package document

import "bytes"

// Kind names the branch of the chain that produced the text.
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindDOCX Kind = "docx"
	KindText Kind = "text"
)

var pdfSignature = []byte("%PDF")

// Result is the outcome of one extraction.
type Result struct {
	Text  string
	Kind  Kind
	Units int // pages for PDF, paragraphs for DOCX, 0 for text
}

// Extractor runs the fallback chain. The zero value is ready to use.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the best-effort text of data. Only the PDF branch can fail:
// a DOCX failure silently falls through to the plain-text decode.
func (e *Extractor) Extract(data []byte) (Result, error) {
	if IsPDF(data) {
		pages, err := pdfPages(data)
		if err != nil {
			return Result{Kind: KindPDF}, err
		}
		return Result{Text: joinUnits(pages), Kind: KindPDF, Units: len(pages)}, nil
	}

	if paragraphs, err := docxParagraphs(data); err == nil {
		return Result{Text: joinUnits(paragraphs), Kind: KindDOCX, Units: len(paragraphs)}, nil
	}

	return Result{Text: lossyUTF8(data), Kind: KindText}, nil
}

// IsPDF reports whether the first four bytes are the PDF signature.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, pdfSignature)
}

func joinUnits(units []string) string {
	var b bytes.Buffer
	for i, u := range units {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(u)
	}
	return b.String()
}
