package llm

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/bills-tracker/internal/common"
)

// DefaultMaxInputChars caps pasted text.
const DefaultMaxInputChars = 20000

// NormalizeInput rejects blank or oversized input. Accepted text is returned unchanged so the
// model can use the line structure of the paste.
func NormalizeInput(text string, maxChars int) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", &common.ValidationError{Field: "text", Value: text, Message: "is required"}
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxInputChars
	}
	if n := utf8.RuneCountInString(text); n > maxChars {
		return "", &common.ValidationError{
			Field:   "text",
			Value:   n,
			Message: fmt.Sprintf("must be at most %d characters", maxChars),
		}
	}
	return text, nil
}
