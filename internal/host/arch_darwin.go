package host

import (
	"runtime"

	"golang.org/x/sys/unix"

	"github.com/javanstorm/devenv/pkg/provider"
)

// MachineArch returns the hardware architecture. An amd64 binary running
// under Rosetta sees x86_64 from uname, so the translation flag is checked too.
func MachineArch() string {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return runtime.GOARCH
	}
	arch := provider.NormalizeArch(unix.ByteSliceToString(uts.Machine[:]))
	if arch == "" {
		arch = runtime.GOARCH
	}
	if arch == "amd64" {
		if translated, err := unix.SysctlUint32("sysctl.proc_translated"); err == nil && translated == 1 {
			return "arm64"
		}
	}
	return arch
}
