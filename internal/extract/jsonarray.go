package extract

import "strings"

// EmptyArray is returned whenever no array can be located in a reply
const EmptyArray = "[]"

// ExtractArray returns the span of reply from the first '[' to the last ']' inclusive.
// When no such span exists it returns EmptyArray and fallback=true.
//
// The scan does not track nesting or quoting, so brackets in surrounding prose
// are picked up as well; the normalizer rejects the result if it is not JSON.
func ExtractArray(reply string) (text string, fallback bool) {
	start := strings.Index(reply, "[")
	end := strings.LastIndex(reply, "]")

	if start == -1 || end == -1 || end <= start {
		return EmptyArray, true
	}

	text = strings.TrimSpace(reply[start : end+1])
	if !strings.HasPrefix(text, "[") || !strings.HasSuffix(text, "]") {
		return EmptyArray, true
	}

	return text, false
}
