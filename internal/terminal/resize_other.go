//go:build !unix

package terminal

import "os"

// NotifyResize is a no-op where the platform has no resize signal.
func NotifyResize(chan<- os.Signal) {}
