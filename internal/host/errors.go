package host

import "errors"

var (
	// ErrUnknownObserver is returned for interactions from observers that
	// never announced themselves.
	ErrUnknownObserver = errors.New("host: unknown observer")

	// ErrInvalidMessage is returned for presence or interaction messages
	// that cannot be decoded.
	ErrInvalidMessage = errors.New("host: invalid message")
)
