package document

import (
	"encoding/base64"
	"errors"
	"fmt"
)

var (
	// ErrInvalidEncoding is returned when the payload is not standard base64.
	ErrInvalidEncoding = errors.New("invalid base64 payload")
	// ErrDocumentParse is returned when a payload carrying the PDF signature
	// cannot be read as a PDF.
	ErrDocumentParse = errors.New("document parse failure")
)

// Decode turns a standard (padded) base64 string into bytes. Line breaks
// inside the payload are ignored; anything else outside the alphabet fails.
func Decode(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return b, nil
}
