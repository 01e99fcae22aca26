package action

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// ErrNotExecutable is returned for scripts that are missing or lack
// execute permission.
var ErrNotExecutable = errors.New("not found or not executable")

// CheckExecutable verifies that path can be executed by this process.
func CheckExecutable(path string) error {
	if err := unix.Access(path, unix.X_OK); err != nil {
		return fmt.Errorf("%s: %w (%w)", path, ErrNotExecutable, err)
	}
	return nil
}
