package annotation

import (
	"errors"
	"fmt"
)

// SyntaxError describes a construct that Parse tolerates silently
type SyntaxError struct {
	// Offset is the byte offset into the normalized text
	Offset  int
	Tag     string
	Message string
}

func (e *SyntaxError) Error() string {
	if e.Tag == "" {
		return fmt.Sprintf("offset %d: %s", e.Offset, e.Message)
	}
	return fmt.Sprintf("offset %d: @%s: %s", e.Offset, e.Tag, e.Message)
}

// ParseStrict parses text like Parse and additionally reports every
// malformed construct. The returned Result is identical to Parse(text); the
// error, when non-nil, joins one *SyntaxError per defect.
func ParseStrict(text string) (Result, error) {
	s := newScanner(Normalize(text))

	var errs []error
	s.issue = func(offset int, tag, message string) {
		errs = append(errs, &SyntaxError{Offset: offset, Tag: tag, Message: message})
	}
	s.run()

	return s.result, errors.Join(errs...)
}

// SyntaxErrors unpacks the defects reported by ParseStrict
func SyntaxErrors(err error) []*SyntaxError {
	if err == nil {
		return nil
	}
	var out []*SyntaxError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, SyntaxErrors(e)...)
		}
		return out
	}
	var se *SyntaxError
	if errors.As(err, &se) {
		out = append(out, se)
	}
	return out
}
