package resume

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrUnsupportedFormat is returned when the resume file extension is not one we can extract text from
var ErrUnsupportedFormat = errors.New("unsupported resume format")

// ErrEmptyResume is returned when a resume parses but yields no text
var ErrEmptyResume = errors.New("resume contains no extractable text")

// ParseError represents a failure to read or decode a resume file
type ParseError struct {
	Path   string
	Format string
	Cause  error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to parse %s resume %s: %v", e.Format, e.Path, e.Cause)
	}
	return fmt.Sprintf("failed to parse %s resume %s", e.Format, e.Path)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
