package captcha

import (
	"strings"
)

// DefaultLength is the length of the codes rendered by the portal.
const DefaultLength = 5

// NormalizeCode turns raw recognized text into a candidate code: uppercase,
// everything outside [A-Z0-9] dropped, truncated to length when longer.
// ok is true only when the result has exactly `length` characters, shorter
// results are never padded.
//
// NormalizeCode(NormalizeCode(x)) == NormalizeCode(x) for any x.
func NormalizeCode(text string, length int) (code string, ok bool) {
	text = strings.ToUpper(text)

	var out strings.Builder
	for _, c := range text {
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			out.WriteRune(c)
		}
	}
	code = out.String()

	if len(code) >= length {
		code = code[:length]
	}
	return code, len(code) == length
}
