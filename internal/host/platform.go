// Package host inspects the machine devenv runs on: platform and provider
// selection, required tools, and the known Vagrant file patch.
package host

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/javanstorm/devenv/pkg/provider"
)

// ArchEnv carries the architecture to vagrant and the Vagrantfile.
const ArchEnv = "DEVENV_ARCH"

// Platform is the resolved host platform. It does not change for the
// lifetime of the process.
type Platform struct {
	OS       string
	Arch     string
	Provider provider.Provider
}

// Resolver turns overrides and host facts into a Platform.
type Resolver struct {
	GOOS        string
	MachineArch func() string
}

// NewResolver returns a Resolver for the running host.
func NewResolver() *Resolver {
	return &Resolver{GOOS: runtime.GOOS, MachineArch: MachineArch}
}

// Resolve applies archOverride and providerOverride. Empty overrides fall
// back to detection.
func (r *Resolver) Resolve(archOverride, providerOverride string) (Platform, error) {
	arch := provider.NormalizeArch(archOverride)
	if arch == "" {
		arch = r.MachineArch()
	}

	p, err := provider.Determine(r.GOOS, arch, providerOverride)
	if err != nil {
		return Platform{}, err
	}
	return Platform{OS: r.GOOS, Arch: arch, Provider: p}, nil
}

// Export publishes the architecture to child processes.
func (p Platform) Export(setenv func(key, value string) error) error {
	if err := setenv(ArchEnv, p.Arch); err != nil {
		return fmt.Errorf("export %s: %w", ArchEnv, err)
	}
	return nil
}

func (p Platform) String() string {
	return strings.Join([]string{p.OS, p.Arch, p.Provider.String()}, "/")
}
