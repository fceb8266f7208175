package comms

import "errors"

var (
	// ErrTemplateNotFound is returned by template store lookups for
	// unknown template IDs.
	ErrTemplateNotFound = errors.New("communication template not found")

	// ErrLogNotFound is returned when a communication log entry does
	// not exist.
	ErrLogNotFound = errors.New("communication log entry not found")
)
