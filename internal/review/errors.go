package review

import (
	"errors"
	"fmt"
)

// ErrRevisionUsedToday signals the same-day quick-revision lock: one quick
// revision per topic per local day. Callers surface it as "try again after
// local midnight"; it is not fatal. Check with errors.Is.
var ErrRevisionUsedToday = errors.New("review: quick revision already used today")

// ValidationError reports malformed or out-of-bounds user input (for example
// a backfilled review dated after the subject's exam). It is returned, never
// panicked, and never propagates further than the caller.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("review: %s", e.Message)
	}
	return fmt.Sprintf("review: %s: %s", e.Field, e.Message)
}

func validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
