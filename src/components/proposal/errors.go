package proposal

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a voting message id has no active proposal.
var ErrNotFound = errors.New("proposal not found")

// ValidationError reports a proposal field that is missing or malformed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid proposal: %s %s", e.Field, e.Reason)
}
