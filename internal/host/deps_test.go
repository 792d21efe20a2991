package host

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javanstorm/devenv/internal/testutil"
	"github.com/javanstorm/devenv/pkg/provider"
)

func commands(deps []Dependency) []string {
	out := make([]string, 0, len(deps))
	for _, d := range deps {
		out = append(out, d.Command)
	}
	return out
}

func TestRequiredDependencies(t *testing.T) {
	assert.Equal(t, []string{"git", "vagrant", "VBoxManage"}, commands(RequiredDependencies(provider.VirtualBox)))
	assert.Equal(t, []string{"git", "vagrant", "prlctl"}, commands(RequiredDependencies(provider.Parallels)))
}

func TestCheckAllPresent(t *testing.T) {
	c := &Checker{HostOS: "ubuntu", LookPath: testutil.LookPath("git", "vagrant", "VBoxManage")}

	assert.NoError(t, c.Check(RequiredDependencies(provider.VirtualBox)))
}

func TestCheckFirstMissingWins(t *testing.T) {
	var looked []string
	lookPath := testutil.LookPath("vagrant")
	c := &Checker{HostOS: "macos", LookPath: func(name string) (string, error) {
		looked = append(looked, name)
		return lookPath(name)
	}}

	err := c.Check(RequiredDependencies(provider.Parallels))

	var missing *MissingError
	require.True(t, errors.As(err, &missing))
	assert.ErrorIs(t, err, ErrMissingDependency)
	assert.Equal(t, "git", missing.Dependency.Command)
	assert.Equal(t, []string{"git"}, looked, "checking stops at the first missing tool")
	assert.Contains(t, missing.Guidance(), "git")
}

func TestCheckProviderToolGuidance(t *testing.T) {
	c := &Checker{HostOS: "macos", LookPath: testutil.LookPath("git", "vagrant")}

	err := c.Check(RequiredDependencies(provider.Parallels))

	var missing *MissingError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "prlctl", missing.Dependency.Command)
	assert.Equal(t, "brew install --cask parallels   (a Pro or Business license is required for Vagrant)", missing.Guidance())
}

func TestDependencyGuidanceByFamily(t *testing.T) {
	tests := []struct {
		hostOS string
		want   string
	}{
		{"ubuntu", "sudo apt-get install -y git"},
		{"pop", "sudo apt-get install -y git"},
		{"rocky", "sudo dnf install -y git"},
		{"manjaro", "sudo pacman -S --noconfirm git"},
		{"opensuse-tumbleweed", "sudo zypper install -y git"},
		{"plan9", "download git from https://git-scm.com/downloads"},
	}

	for _, tt := range tests {
		t.Run(tt.hostOS, func(t *testing.T) {
			assert.Equal(t, tt.want, gitDep.Guidance(tt.hostOS))
		})
	}
}

func TestParseOSRelease(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"quoted id", "NAME=\"Ubuntu\"\nID=\"ubuntu\"\nID_LIKE=debian\n", "ubuntu"},
		{"plain id", "ID=fedora\n", "fedora"},
		{"id like fallback", "ID=\nID_LIKE=\"rhel centos fedora\"\n", "rhel"},
		{"nothing", "NAME=Custom\n", "linux"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseOSRelease(tt.content))
		})
	}
}

func TestDetectHostOSMissingFile(t *testing.T) {
	got := DetectHostOS(filepath.Join(t.TempDir(), "os-release"))
	assert.NotEmpty(t, got)
}

func TestDetectHostOSReadsFile(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("os-release is only read on linux")
	}
	path := filepath.Join(t.TempDir(), "os-release")
	require.NoError(t, os.WriteFile(path, []byte("ID=arch\n"), 0o644))

	assert.Equal(t, "arch", DetectHostOS(path))
}
