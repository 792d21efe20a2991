//go:build !unix

package host

import "runtime"

// MachineArch returns the architecture of the running binary.
func MachineArch() string {
	return runtime.GOARCH
}
