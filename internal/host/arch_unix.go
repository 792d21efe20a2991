//go:build unix && !darwin

package host

import (
	"runtime"

	"golang.org/x/sys/unix"

	"github.com/javanstorm/devenv/pkg/provider"
)

// MachineArch returns the architecture reported by the kernel.
func MachineArch() string {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return runtime.GOARCH
	}
	machine := unix.ByteSliceToString(uts.Machine[:])
	if machine == "" {
		return runtime.GOARCH
	}
	return provider.NormalizeArch(machine)
}
