package access

import (
	"errors"
	"fmt"

	"github.com/sagarc03/mayray"
)

// ErrNoPassword is returned when the registry holds no password for a
// directory. It matches mayray.ErrNotFound.
var ErrNoPassword = fmt.Errorf("no password for directory: %w", mayray.ErrNotFound)

// ErrUnknownLayout is returned by NewRegistry for a layout it does not know.
var ErrUnknownLayout = errors.New("unknown registry layout")
