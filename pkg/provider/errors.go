package provider

import (
	"errors"
	"fmt"
)

// ErrUnknownProvider is matched by every UnknownError.
var ErrUnknownProvider = errors.New("provider: unknown provider")

// UnknownError reports a provider name that is neither virtualbox nor parallels.
type UnknownError struct {
	Name string
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("provider: unknown provider %q (want virtualbox or parallels)", e.Name)
}

func (e *UnknownError) Is(target error) bool {
	return target == ErrUnknownProvider
}
