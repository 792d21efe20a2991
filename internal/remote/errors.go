package remote

import (
	"errors"
	"fmt"
)

// ErrExit is matched by every ExitError.
var ErrExit = errors.New("remote: non-zero exit status")

// ErrNoSSHConfig is returned when `vagrant ssh-config` yields no usable host.
var ErrNoSSHConfig = errors.New("remote: no ssh configuration for the VM")

// ExitError is a delegated command that exited with a non-zero status.
type ExitError struct {
	Command string
	Code    int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s: exit status %d", e.Command, e.Code)
}

func (e *ExitError) Is(target error) bool {
	return target == ErrExit
}

// ExitCode returns the delegated exit status carried by err, if any.
func ExitCode(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}
