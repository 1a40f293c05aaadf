package document

import "strings"

// lossyUTF8 drops every byte sequence that is not valid UTF-8.
func lossyUTF8(data []byte) string {
	return strings.ToValidUTF8(string(data), "")
}
