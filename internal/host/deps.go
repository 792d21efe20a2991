package host

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/javanstorm/devenv/pkg/provider"
)

// ErrMissingDependency is matched by every MissingError.
var ErrMissingDependency = errors.New("host: required tool not installed")

// Dependency represents a required external tool.
type Dependency struct {
	Name        string            // Tool name (e.g., "vagrant")
	Command     string            // Executable looked up on PATH
	Description string            // Human-readable description
	Install     map[string]string // OS family -> install guidance
	Fallback    string            // Guidance when the family has no entry
}

// Guidance returns install instructions for the given host OS.
func (d Dependency) Guidance(hostOS string) string {
	if g, ok := d.Install[Family(hostOS)]; ok {
		return g
	}
	return d.Fallback
}

// MissingError reports the first required tool that was not found.
type MissingError struct {
	Dependency Dependency
	HostOS     string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s not found on PATH (%s)", e.Dependency.Command, e.Dependency.Description)
}

func (e *MissingError) Is(target error) bool {
	return target == ErrMissingDependency
}

// Guidance returns the install instructions for the missing tool.
func (e *MissingError) Guidance() string {
	return e.Dependency.Guidance(e.HostOS)
}

var gitDep = Dependency{
	Name:        "git",
	Command:     "git",
	Description: "clones the project repositories",
	Install: map[string]string{
		"macos":  "xcode-select --install   (or: brew install git)",
		"debian": "sudo apt-get install -y git",
		"fedora": "sudo dnf install -y git",
		"arch":   "sudo pacman -S --noconfirm git",
		"suse":   "sudo zypper install -y git",
	},
	Fallback: "download git from https://git-scm.com/downloads",
}

var vagrantDep = Dependency{
	Name:        "vagrant",
	Command:     "vagrant",
	Description: "creates and manages the development VM",
	Install: map[string]string{
		"macos":  "brew install --cask vagrant",
		"debian": "add the HashiCorp apt repository, then: sudo apt-get install -y vagrant",
		"fedora": "add the HashiCorp dnf repository, then: sudo dnf install -y vagrant",
		"arch":   "sudo pacman -S --noconfirm vagrant",
	},
	Fallback: "download vagrant from https://developer.hashicorp.com/vagrant/install",
}

var providerDeps = map[provider.Provider]Dependency{
	provider.VirtualBox: {
		Name: "virtualbox",
		Install: map[string]string{
			"macos":  "brew install --cask virtualbox",
			"debian": "sudo apt-get install -y virtualbox",
			"arch":   "sudo pacman -S --noconfirm virtualbox",
		},
		Fallback: "download VirtualBox from https://www.virtualbox.org/wiki/Downloads",
	},
	provider.Parallels: {
		Name: "parallels",
		Install: map[string]string{
			"macos": "brew install --cask parallels   (a Pro or Business license is required for Vagrant)",
		},
		Fallback: "Parallels Desktop is only available on macOS; set VAGRANT_DEFAULT_PROVIDER=virtualbox",
	},
}

// RequiredDependencies lists the tools needed for p, in check order.
func RequiredDependencies(p provider.Provider) []Dependency {
	info := p.Info()
	dep := providerDeps[p]
	dep.Command = info.Tool
	dep.Description = info.ToolDescription
	return []Dependency{gitDep, vagrantDep, dep}
}

// Checker looks required tools up on PATH.
type Checker struct {
	HostOS   string
	LookPath func(string) (string, error)
}

// NewChecker creates a checker for the current host.
func NewChecker() *Checker {
	return &Checker{
		HostOS:   DetectHostOS("/etc/os-release"),
		LookPath: exec.LookPath,
	}
}

// Check returns a *MissingError for the first dependency that is not
// installed. Later dependencies are not looked at.
func (c *Checker) Check(deps []Dependency) error {
	for _, dep := range deps {
		if _, err := c.LookPath(dep.Command); err != nil {
			return &MissingError{Dependency: dep, HostOS: c.HostOS}
		}
	}
	return nil
}

// DetectHostOS returns "macos", "windows", a Linux distribution ID read from
// osRelease, or "linux" when the distribution is unknown.
func DetectHostOS(osRelease string) string {
	switch runtime.GOOS {
	case "darwin":
		return "macos"
	case "windows":
		return "windows"
	case "linux":
	default:
		return runtime.GOOS
	}

	data, err := os.ReadFile(osRelease)
	if err != nil {
		return "linux"
	}
	return parseOSRelease(string(data))
}

func parseOSRelease(content string) string {
	lines := strings.Split(content, "\n")
	for _, line := range lines {
		if id, ok := strings.CutPrefix(line, "ID="); ok {
			if id = strings.Trim(id, `"`); id != "" {
				return id
			}
		}
	}
	for _, line := range lines {
		if like, ok := strings.CutPrefix(line, "ID_LIKE="); ok {
			if fields := strings.Fields(strings.Trim(like, `"`)); len(fields) > 0 {
				return fields[0]
			}
		}
	}
	return "linux"
}

// Family groups distributions that share a package manager.
func Family(hostOS string) string {
	switch hostOS {
	case "arch", "manjaro", "endeavouros":
		return "arch"
	case "ubuntu", "debian", "linuxmint", "pop":
		return "debian"
	case "fedora", "rhel", "centos", "rocky", "almalinux":
		return "fedora"
	case "opensuse", "opensuse-leap", "opensuse-tumbleweed", "suse", "sles":
		return "suse"
	default:
		return hostOS
	}
}
