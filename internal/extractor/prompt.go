package extractor

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// SystemPrompt is sent as the system message on every gateway call.
const SystemPrompt = "Return STRICT JSON only."

const fieldsPrompt = `
Extract ONLY the following fields from the document text.

RULES:
- Use ONLY the document text
- Do NOT guess or infer
- If a field is not found, return empty string
- Return STRICT JSON only (key-value pairs)
- No explanations, no extra text

Fields:
%s

Document:
%s
`

// BuildPrompt interpolates the requested field names and the document text
// into the extraction template. Neither value is escaped or shortened.
func BuildPrompt(fields []string, text string) string {
	if fields == nil {
		fields = []string{}
	}
	fj, _ := json.Marshal(fields)
	return fmt.Sprintf(fieldsPrompt, string(fj), text)
}

// Truncate cuts text to at most max runes. max <= 0 disables the cap.
// The second return reports whether anything was dropped.
func Truncate(text string, max int) (string, bool) {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text, false
	}
	n := 0
	for i := range text {
		if n == max {
			return text[:i], true
		}
		n++
	}
	return text, false
}
