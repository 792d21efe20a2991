package provider

import "strings"

// NormalizeArch maps kernel machine names onto Go architecture names.
func NormalizeArch(arch string) string {
	switch a := strings.ToLower(strings.TrimSpace(arch)); a {
	case "aarch64", "arm64":
		return "arm64"
	case "x86_64", "amd64", "x64":
		return "amd64"
	default:
		return a
	}
}

// Determine selects the provider for a host.
//
// A non-empty override always wins. Without one, Parallels is chosen only on
// macOS running on 64-bit ARM; every other host gets VirtualBox.
func Determine(goos, arch, override string) (Provider, error) {
	if strings.TrimSpace(override) != "" {
		return Parse(override)
	}
	if goos == "darwin" && NormalizeArch(arch) == "arm64" {
		return Parallels, nil
	}
	return VirtualBox, nil
}
