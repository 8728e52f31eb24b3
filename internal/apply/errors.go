package apply

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrControlNotFound is returned when a page snapshot lacks an expected control
var ErrControlNotFound = errors.New("control not found on page")

// StepError represents a failure at one step of a site's application flow
type StepError struct {
	Site string
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Site, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
