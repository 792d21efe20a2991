// Package provider describes the Vagrant virtualization providers devenv can
// drive (VirtualBox, Parallels) and selects one for the current host.
package provider

import "strings"

// Provider names a Vagrant provider.
type Provider string

// Supported providers.
const (
	VirtualBox Provider = "virtualbox"
	Parallels  Provider = "parallels"
)

// Info describes what a provider needs on the host.
type Info struct {
	// Name is the provider name passed to `vagrant up --provider`.
	Name Provider

	// Tool is the provider's management executable that must be on PATH.
	Tool string

	// ToolDescription is shown in install guidance.
	ToolDescription string

	// Plugins are the Vagrant plugins this provider needs.
	Plugins []string
}

var infos = map[Provider]Info{
	VirtualBox: {
		Name:            VirtualBox,
		Tool:            "VBoxManage",
		ToolDescription: "VirtualBox command-line management interface",
		Plugins:         []string{"vagrant-vbguest"},
	},
	Parallels: {
		Name:            Parallels,
		Tool:            "prlctl",
		ToolDescription: "Parallels Desktop command-line utility",
		Plugins:         []string{"vagrant-parallels"},
	},
}

// UniversalPlugins are installed for every provider.
var UniversalPlugins = []string{"vagrant-hostmanager"}

// All returns the supported providers.
func All() []Provider {
	return []Provider{VirtualBox, Parallels}
}

// Parse converts a provider name into a Provider.
func Parse(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := infos[p]; !ok {
		return "", &UnknownError{Name: s}
	}
	return p, nil
}

// Info returns the host requirements of p.
func (p Provider) Info() Info {
	info := infos[p]
	info.Plugins = append([]string(nil), info.Plugins...)
	return info
}

// Plugins returns provider-specific plugins followed by the universal ones.
func (p Provider) Plugins() []string {
	plugins := p.Info().Plugins
	return append(plugins, UniversalPlugins...)
}

func (p Provider) String() string {
	return string(p)
}
