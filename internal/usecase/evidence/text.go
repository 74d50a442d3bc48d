package evidence

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/drugqa/internal/domain"
)

// clean collapses whitespace and truncates to MaxSnippetLen runes.
func clean(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= domain.MaxSnippetLen {
		return s
	}
	r := []rune(s)
	return strings.TrimRight(string(r[:domain.MaxSnippetLen]), " ") + "…"
}

// stringValue renders a scalar metadata value. Non-scalars yield "".
func stringValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case fmt.Stringer:
		return strings.TrimSpace(x.String())
	case bool, int, int32, int64, float32, float64:
		return fmt.Sprint(x)
	default:
		return ""
	}
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := stringValue(m[k]); s != "" {
			return s
		}
	}
	return ""
}
