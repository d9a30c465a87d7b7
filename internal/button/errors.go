package button

import (
	"errors"

	"github.com/sweeney/pushbutton/internal/config"
)

// Error kinds returned by Registry operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotInitialized is returned by any operation on a nil Registry.
	ErrNotInitialized = errors.New("pbtn: library not initialized")

	// ErrConfig is returned for missing or malformed configuration data,
	// including an unsupported configuration version.
	ErrConfig = config.ErrConfig

	// ErrInvalidArgument is returned for an out-of-range button id,
	// type/index pair or hold duration.
	ErrInvalidArgument = errors.New("pbtn: invalid argument")

	// ErrIO is returned when a button device cannot be opened.
	ErrIO = errors.New("pbtn: i/o error")

	// ErrButtonNotOpen is returned by a status query on a closed button.
	ErrButtonNotOpen = errors.New("pbtn: button not opened")
)
