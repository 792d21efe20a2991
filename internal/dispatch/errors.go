package dispatch

import (
	"errors"
	"fmt"
)

var (
	// ErrUsage is matched by every UsageError.
	ErrUsage = errors.New("dispatch: usage error")
	// ErrUnknownVerb is returned for a verb outside the table.
	ErrUnknownVerb = errors.New("dispatch: unknown command")
)

// UsageError reports missing arguments. It is raised before any step runs.
type UsageError struct {
	Verb  string
	Usage string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("usage: devenv %s %s", e.Verb, e.Usage)
}

func (e *UsageError) Is(target error) bool {
	return target == ErrUsage
}
