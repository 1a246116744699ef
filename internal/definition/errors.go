package definition

import "errors"

var (
	// ErrNotFound is returned when a source or name has no stored definition.
	ErrNotFound = errors.New("definition: not found")

	// ErrInvalidSource is returned for a source identifier the store does not
	// accept, such as a file name outside the definitions directory.
	ErrInvalidSource = errors.New("definition: invalid source")
)
