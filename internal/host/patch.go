package host

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/javanstorm/devenv/internal/remote"
)

// KnownIssue identifies one faulty file shipped with a Vagrant release and
// where a corrected copy can be downloaded.
type KnownIssue struct {
	Name         string `mapstructure:"name"`
	Path         string `mapstructure:"path"`
	FaultySHA256 string `mapstructure:"faulty_sha256"`
	URL          string `mapstructure:"url"`
	FixedSHA256  string `mapstructure:"fixed_sha256"`
}

// VagrantVirtualBox61 is the Vagrant 2.2.6 VirtualBox driver table, which
// rejects VirtualBox 6.1 as an unsupported version. The corrected table is
// the one released with 2.2.7.
//
// The digests come from configuration (patch.faulty_sha256 and
// patch.fixed_sha256); without them Apply reports PatchUnverified.
var VagrantVirtualBox61 = KnownIssue{
	Name: "vagrant 2.2.6 virtualbox 6.1 driver table",
	Path: "/opt/vagrant/embedded/gems/2.2.6/gems/vagrant-2.2.6/plugins/providers/virtualbox/driver/meta.rb",
	URL:  "https://raw.githubusercontent.com/hashicorp/vagrant/v2.2.7/plugins/providers/virtualbox/driver/meta.rb",
}

// Verifiable reports whether both digests are set.
func (k KnownIssue) Verifiable() bool {
	return k.FaultySHA256 != "" && k.FixedSHA256 != ""
}

// PatchResult describes what Apply did.
type PatchResult int

const (
	// PatchNotNeeded means the faulty file is not installed.
	PatchNotNeeded PatchResult = iota
	// PatchApplied means the file was replaced.
	PatchApplied
	// PatchSkipped means the file is faulty but no verified replacement
	// could be obtained; it was left untouched.
	PatchSkipped
	// PatchFailed means installing a verified replacement failed.
	PatchFailed
	// PatchUnverified means the target exists but no digests are
	// configured to tell whether it is the faulty file.
	PatchUnverified
)

func (r PatchResult) String() string {
	switch r {
	case PatchNotNeeded:
		return "not-needed"
	case PatchApplied:
		return "applied"
	case PatchSkipped:
		return "skipped"
	case PatchFailed:
		return "failed"
	case PatchUnverified:
		return "unverified"
	default:
		return fmt.Sprintf("PatchResult(%d)", int(r))
	}
}

// Fetcher downloads a file.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Installer replaces a file that needs elevated privileges to write.
type Installer interface {
	// Replace copies dst to dst.bak, then atomically moves src over dst.
	Replace(ctx context.Context, src, dst string) error
}

// HTTPFetcher downloads over HTTP(S).
type HTTPFetcher struct {
	Client   *http.Client
	MaxBytes int64
}

// NewHTTPFetcher returns a fetcher with a bounded timeout and body size.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		Client:   &http.Client{Timeout: 30 * time.Second},
		MaxBytes: 1 << 20,
	}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, f.MaxBytes))
}

// SudoInstaller replaces files through sudo.
type SudoInstaller struct {
	Runner remote.Runner
}

// Replace implements Installer. The replacement is staged next to dst so
// the final mv is a same-directory rename.
func (s *SudoInstaller) Replace(ctx context.Context, src, dst string) error {
	staged := dst + ".devenv-new"
	steps := [][]string{
		{"cp", "-p", dst, dst + ".bak"},
		{"cp", src, staged},
		{"mv", "-f", staged, dst},
	}
	for _, args := range steps {
		if err := s.Runner.Run(ctx, remote.Command{Name: "sudo", Args: args}); err != nil {
			return fmt.Errorf("sudo %s: %w", strings.Join(args, " "), err)
		}
	}
	return nil
}

// Patcher applies known-issue patches.
type Patcher struct {
	Fetcher   Fetcher
	Installer Installer
	Logger    zerolog.Logger

	ReadFile func(string) ([]byte, error)
	TempDir  string
}

// NewPatcher returns a Patcher that downloads over HTTP and installs via sudo.
func NewPatcher(runner remote.Runner, logger zerolog.Logger) *Patcher {
	return &Patcher{
		Fetcher:   NewHTTPFetcher(),
		Installer: &SudoInstaller{Runner: runner},
		Logger:    logger,
		ReadFile:  os.ReadFile,
	}
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Apply replaces issue.Path when it is the known faulty file.
//
// A download whose hash does not match issue.FixedSHA256 is dropped without
// telling the operator; it is only visible at debug level.
func (p *Patcher) Apply(ctx context.Context, issue KnownIssue) (PatchResult, error) {
	log := p.Logger.With().Str("issue", issue.Name).Str("path", issue.Path).Logger()

	current, err := p.ReadFile(issue.Path)
	if err != nil {
		log.Debug().Err(err).Msg("patch target not readable")
		return PatchNotNeeded, nil
	}
	if !issue.Verifiable() {
		log.Debug().Msg("no digests configured")
		return PatchUnverified, nil
	}
	if !strings.EqualFold(sha256Hex(current), issue.FaultySHA256) {
		return PatchNotNeeded, nil
	}

	log.Debug().Str("url", issue.URL).Msg("faulty file detected, downloading replacement")
	fixed, err := p.Fetcher.Fetch(ctx, issue.URL)
	if err != nil {
		log.Debug().Err(err).Msg("replacement download failed")
		return PatchSkipped, nil
	}
	if got := sha256Hex(fixed); !strings.EqualFold(got, issue.FixedSHA256) {
		log.Debug().Str("sha256", got).Str("want", issue.FixedSHA256).Msg("replacement hash mismatch")
		return PatchSkipped, nil
	}

	tmp, err := os.CreateTemp(p.TempDir, "devenv-patch-*")
	if err != nil {
		return PatchFailed, fmt.Errorf("stage replacement: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(fixed); err != nil {
		tmp.Close()
		return PatchFailed, fmt.Errorf("stage replacement: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return PatchFailed, fmt.Errorf("stage replacement: %w", err)
	}

	if err := p.Installer.Replace(ctx, tmp.Name(), issue.Path); err != nil {
		return PatchFailed, fmt.Errorf("patch %s: %w", issue.Path, err)
	}
	log.Info().Msg("patched faulty vagrant file")
	return PatchApplied, nil
}
