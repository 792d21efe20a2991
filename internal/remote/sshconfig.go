package remote

import (
	"bytes"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/kevinburke/ssh_config"
)

// SSHConfig is the subset of `vagrant ssh-config` output needed to dial the VM.
type SSHConfig struct {
	Host                  string
	HostName              string
	User                  string
	Port                  int
	IdentityFiles         []string
	UserKnownHostsFile    string
	StrictHostKeyChecking bool
}

// Addr returns host:port.
func (c *SSHConfig) Addr() string {
	return net.JoinHostPort(c.HostName, strconv.Itoa(c.Port))
}

// ParseSSHConfig reads the first named Host block of an OpenSSH client config.
func ParseSSHConfig(data []byte) (*SSHConfig, error) {
	decoded, err := ssh_config.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse ssh config: %w", err)
	}

	alias := firstAlias(decoded)
	if alias == "" {
		return nil, ErrNoSSHConfig
	}
	get := func(key string) string {
		v, _ := decoded.Get(alias, key)
		return unquote(v)
	}

	cfg := &SSHConfig{
		Host:                  alias,
		HostName:              get("HostName"),
		User:                  get("User"),
		Port:                  22,
		UserKnownHostsFile:    get("UserKnownHostsFile"),
		StrictHostKeyChecking: !strings.EqualFold(get("StrictHostKeyChecking"), "no"),
	}
	if p, err := strconv.Atoi(get("Port")); err == nil {
		cfg.Port = p
	}
	identities, _ := decoded.GetAll(alias, "IdentityFile")
	for _, id := range identities {
		if id = unquote(id); id != "" {
			cfg.IdentityFiles = append(cfg.IdentityFiles, id)
		}
	}

	if cfg.HostName == "" || len(cfg.IdentityFiles) == 0 {
		return nil, ErrNoSSHConfig
	}
	return cfg, nil
}

// firstAlias returns the first concrete Host pattern, skipping wildcards.
func firstAlias(cfg *ssh_config.Config) string {
	for _, h := range cfg.Hosts {
		for _, p := range h.Patterns {
			if s := p.String(); s != "" && !strings.ContainsAny(s, "*?!") {
				return s
			}
		}
	}
	return ""
}

func unquote(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		return v[1 : len(v)-1]
	}
	return v
}
