package filter

import (
	"errors"
	"fmt"
)

// ErrInvalidOption is the panic value raised when an option batch is empty.
var ErrInvalidOption = errors.New("filter: invalid option")

// ConflictError records a strict-mode call that tried to replace an
// operation already set on a node.
type ConflictError struct {
	Path      string
	Current   string
	Attempted string
}

func (e *ConflictError) Error() string {
	path := e.Path
	if path == "" {
		path = "<root>"
	}
	return fmt.Sprintf("filter: %s: operation %q already set, refusing %q", path, e.Current, e.Attempted)
}
