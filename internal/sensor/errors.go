package sensor

import (
	"errors"
	"fmt"
)

// Sentinel errors for sensor operations.
var (
	// ErrNotEnoughFields indicates a sensor list line without both a bus id and a name.
	ErrNotEnoughFields = errors.New("sensor: not enough fields in line")

	// ErrRead indicates the sensor input file could not be read or parsed.
	ErrRead = errors.New("sensor: read failed")

	// ErrInvalidBusID indicates a bus id that cannot name a device directory.
	ErrInvalidBusID = errors.New("sensor: invalid bus id")
)

// ListError reports a failure while loading a sensor list, with file and
// line context. Line is 1-based; 0 means the failure happened before the
// first line was read (e.g. the file could not be opened).
type ListError struct {
	File string
	Line int
	Err  error
}

func (e *ListError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

func (e *ListError) Unwrap() error {
	return e.Err
}
