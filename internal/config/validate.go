package config

import (
	"fmt"
	"path"
	"strings"

	"github.com/javanstorm/devenv/internal/logging"
	"github.com/javanstorm/devenv/pkg/provider"
)

// ValidationError represents a configuration issue.
type ValidationError struct {
	Field   string
	Message string
	Fatal   bool // true = can't proceed, false = will be ignored
}

// Validate checks cfg for values devenv cannot work with.
func Validate(cfg *Config) []ValidationError {
	var errs []ValidationError

	if cfg.Provider != "" {
		if _, err := provider.Parse(cfg.Provider); err != nil {
			errs = append(errs, ValidationError{Field: "provider", Message: err.Error(), Fatal: true})
		}
	}

	switch cfg.Transport {
	case TransportVagrant, TransportNative:
	default:
		errs = append(errs, ValidationError{
			Field:   "transport",
			Message: fmt.Sprintf("unknown transport %q (want %s or %s)", cfg.Transport, TransportVagrant, TransportNative),
			Fatal:   true,
		})
	}

	if cfg.RetryDelay <= 0 {
		errs = append(errs, ValidationError{
			Field:   "retry_delay",
			Message: fmt.Sprintf("must be positive, got %s", cfg.RetryDelay),
			Fatal:   true,
		})
	}

	if len(cfg.Repositories) == 0 {
		errs = append(errs, ValidationError{Field: "repositories", Message: "at least one repository is required", Fatal: true})
	} else {
		found := false
		seen := make(map[string]bool, len(cfg.Repositories))
		for _, r := range cfg.Repositories {
			if r.Name == "" || r.URL == "" || strings.ContainsAny(r.Name, `/\`) || r.Name == "." || r.Name == ".." {
				errs = append(errs, ValidationError{
					Field:   "repositories",
					Message: fmt.Sprintf("repository %q needs a plain name and a url", r.Name),
					Fatal:   true,
				})
			}
			if seen[r.Name] {
				errs = append(errs, ValidationError{Field: "repositories", Message: fmt.Sprintf("repository %q listed twice", r.Name), Fatal: true})
			}
			seen[r.Name] = true
			found = found || r.Name == cfg.ComposeRepo
		}
		if !found {
			errs = append(errs, ValidationError{
				Field:   "compose_repo",
				Message: fmt.Sprintf("%q is not one of the configured repositories", cfg.ComposeRepo),
				Fatal:   true,
			})
		}
	}

	if !path.IsAbs(cfg.VMDir) {
		errs = append(errs, ValidationError{
			Field:   "vm_dir",
			Message: fmt.Sprintf("%q is relative to the VM login directory", cfg.VMDir),
		})
	}

	if cfg.PublicHostname == "" {
		errs = append(errs, ValidationError{Field: "public_hostname", Message: "empty, containers will see PUBLIC_HOSTNAME=''"})
	}

	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		errs = append(errs, ValidationError{Field: "log_level", Message: err.Error() + ", using warn"})
	}

	return errs
}

// HasFatal reports whether any error prevents devenv from continuing.
func HasFatal(errs []ValidationError) bool {
	for _, e := range errs {
		if e.Fatal {
			return true
		}
	}
	return false
}

// FormatValidationErrors returns human-readable error summary.
func FormatValidationErrors(errors []ValidationError) string {
	if len(errors) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Configuration problems:\n")
	for _, e := range errors {
		prefix := "Warning"
		if e.Fatal {
			prefix = "Error"
		}
		fmt.Fprintf(&b, "  %s [%s]: %s\n", prefix, e.Field, e.Message)
	}
	return b.String()
}
