package cli

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javanstorm/devenv/internal/host"
	"github.com/javanstorm/devenv/internal/remote"
	"github.com/javanstorm/devenv/internal/testutil"
	"github.com/javanstorm/devenv/internal/workspace"
)

type harness struct {
	app    *App
	runner *testutil.FakeRunner
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	env    map[string]string
}

// newHarness returns an App on a linux amd64 host with every tool installed,
// working in cwd. The process environment is cleared of devenv overrides.
func newHarness(t *testing.T, cwd string) *harness {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	for _, k := range []string{
		"VAGRANT_DEFAULT_PROVIDER", "DEVENV_PROVIDER", "DEVENV_ARCH", "DEVENV_TRANSPORT",
		"DEVENV_RETRY_DELAY", "DEVENV_LOG_LEVEL", "DEVENV_TIMING", "DEVENV_VM_DIR",
		"DEVENV_PATCH_FAULTY_SHA256", "DEVENV_PATCH_FIXED_SHA256",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("DEVENV_SKIP_PATCH", "true")

	h := &harness{
		runner: &testutil.FakeRunner{},
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		env:    map[string]string{},
	}
	h.app = &App{
		Stdout: h.stdout,
		Stderr: h.stderr,
		Getwd:  func() (string, error) { return cwd, nil },
		Setenv: func(k, v string) error {
			h.env[k] = v
			return nil
		},
		Resolver: &host.Resolver{
			GOOS:        "linux",
			MachineArch: func() string { return "amd64" },
		},
		Checker: &host.Checker{
			HostOS:   "ubuntu",
			LookPath: testutil.LookPath("git", "vagrant", "VBoxManage", "prlctl"),
		},
		Runner: h.runner,
	}
	return h
}

func (h *harness) run(args ...string) int {
	return Execute(context.Background(), h.app, args)
}

func TestNewAppUsesRunningHost(t *testing.T) {
	app := NewApp()

	require.NotNil(t, app.Resolver)
	require.NotNil(t, app.Checker)
	assert.Equal(t, runtime.GOOS, app.Resolver.GOOS)
	assert.NotEmpty(t, app.Resolver.MachineArch())
	assert.NotNil(t, app.Checker.LookPath)
}

func TestNoCommandPrintsHelpAndFails(t *testing.T) {
	h := newHarness(t, t.TempDir())

	assert.Equal(t, 1, h.run())
	assert.Contains(t, h.stdout.String(), "Usage:")
	assert.Empty(t, h.stderr.String())
	assert.Empty(t, h.runner.Commands)
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t, t.TempDir())

	assert.Equal(t, 1, h.run("bot"))
	assert.Contains(t, h.stdout.String(), "Available Commands:")
	assert.Contains(t, h.stderr.String(), `unknown command "bot"`)
	assert.Contains(t, h.stderr.String(), `did you mean "boot"?`)
	assert.Empty(t, h.runner.Commands)
}

func TestHelpExitsZero(t *testing.T) {
	h := newHarness(t, t.TempDir())
	assert.Equal(t, 0, h.run("help"))
	assert.Contains(t, h.stdout.String(), "Available Commands:")

	h = newHarness(t, t.TempDir())
	assert.Equal(t, 0, h.run("help", "rebuild"))
	assert.Contains(t, h.stdout.String(), "devenv rebuild <service>")

	h = newHarness(t, t.TempDir())
	assert.Equal(t, 1, h.run("help", "nothing"))
}

func TestVersionNeedsNoEnvironment(t *testing.T) {
	h := newHarness(t, t.TempDir())
	h.app.Checker.LookPath = testutil.LookPath()

	assert.Equal(t, 0, h.run("version"))
	assert.True(t, strings.HasPrefix(h.stdout.String(), "devenv "))
}

func TestVerbOutsideEnvironment(t *testing.T) {
	h := newHarness(t, t.TempDir())

	assert.Equal(t, 1, h.run("boot"))
	assert.Contains(t, h.stderr.String(), "Not inside a devenv environment")
	assert.Empty(t, h.runner.Commands)
}

func TestBootFromNestedDirectory(t *testing.T) {
	root, nested := testutil.Workspace(t, workspace.Marker)
	h := newHarness(t, nested)

	require.Equal(t, 0, h.run("boot"), h.stderr.String())
	assert.Equal(t, []string{"vagrant up --provider=virtualbox"}, h.runner.Rendered())
	assert.Equal(t, root, h.runner.Commands[0].Dir)
	assert.Equal(t, map[string]string{host.ArchEnv: "amd64"}, h.env)
}

func TestProviderSelection(t *testing.T) {
	tests := []struct {
		name    string
		goos    string
		arch    string
		envKey  string
		envVal  string
		want    string
		wantEnv string
	}{
		{name: "apple silicon", goos: "darwin", arch: "arm64", want: "parallels", wantEnv: "arm64"},
		{name: "intel mac", goos: "darwin", arch: "amd64", want: "virtualbox", wantEnv: "amd64"},
		{name: "arm linux", goos: "linux", arch: "arm64", want: "virtualbox", wantEnv: "arm64"},
		{name: "vagrant override", goos: "linux", arch: "amd64", envKey: "VAGRANT_DEFAULT_PROVIDER", envVal: "parallels", want: "parallels", wantEnv: "amd64"},
		{name: "arch override", goos: "darwin", arch: "amd64", envKey: "DEVENV_ARCH", envVal: "aarch64", want: "parallels", wantEnv: "arm64"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, nested := testutil.Workspace(t, workspace.Marker)
			h := newHarness(t, nested)
			h.app.Resolver.GOOS = tt.goos
			h.app.Resolver.MachineArch = func() string { return tt.arch }
			if tt.envKey != "" {
				t.Setenv(tt.envKey, tt.envVal)
			}

			require.Equal(t, 0, h.run("boot"), h.stderr.String())
			assert.Equal(t, []string{"vagrant up --provider=" + tt.want}, h.runner.Rendered())
			assert.Equal(t, tt.wantEnv, h.env[host.ArchEnv])
		})
	}
}

func TestUnknownProviderOverride(t *testing.T) {
	_, nested := testutil.Workspace(t, workspace.Marker)
	h := newHarness(t, nested)
	t.Setenv("VAGRANT_DEFAULT_PROVIDER", "hyperv")

	assert.Equal(t, 1, h.run("boot"))
	assert.Contains(t, h.stderr.String(), "provider")
	assert.Empty(t, h.runner.Commands)
}

func TestMissingDependency(t *testing.T) {
	_, nested := testutil.Workspace(t, workspace.Marker)
	h := newHarness(t, nested)
	h.app.Resolver.GOOS = "darwin"
	h.app.Resolver.MachineArch = func() string { return "arm64" }
	h.app.Checker.HostOS = "macos"
	h.app.Checker.LookPath = testutil.LookPath("git", "vagrant", "VBoxManage")

	assert.Equal(t, 1, h.run("boot"))
	assert.Contains(t, h.stderr.String(), "prlctl")
	assert.NotContains(t, h.stderr.String(), "Error:", "guidance replaces the generic error line")
	assert.Empty(t, h.runner.Commands)
}

func TestUsageErrorsInvokeNothing(t *testing.T) {
	for _, args := range [][]string{{"rebuild"}, {"run"}, {"rebuild", ""}, {"run", ""}, {"run", " ", "ls"}} {
		t.Run(strings.Join(args, "_"), func(t *testing.T) {
			_, nested := testutil.Workspace(t, workspace.Marker)
			h := newHarness(t, nested)

			assert.Equal(t, 1, h.run(args...))
			assert.Contains(t, h.stderr.String(), "usage: devenv "+args[0])
			assert.Empty(t, h.runner.Commands)
		})
	}
}

func TestRemoteVerbs(t *testing.T) {
	tests := []struct {
		args   []string
		script string
	}{
		{[]string{"run", "ls", "-la"}, "cd /vagrant/stack && ls -la"},
		{[]string{"app", "migrate", "--step", "2"}, "cd /vagrant/stack && ./bin/app migrate --step 2"},
		{[]string{"app"}, "cd /vagrant/stack && ./bin/app"},
		{[]string{"containers"}, "cd /vagrant/stack && docker compose config --services"},
		{[]string{"rebuild", "web"}, "cd /vagrant/stack && docker compose build web && docker compose stop web && " +
			"docker compose rm -f web && PUBLIC_HOSTNAME=localhost docker compose up -d web"},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			root, nested := testutil.Workspace(t, workspace.Marker)
			h := newHarness(t, nested)

			require.Equal(t, 0, h.run(tt.args...), h.stderr.String())
			require.Len(t, h.runner.Commands, 1)
			c := h.runner.Commands[0]
			assert.Equal(t, "vagrant", c.Name)
			assert.Equal(t, []string{"ssh", "-c", tt.script}, c.Args)
			assert.Equal(t, root, c.Dir)
		})
	}
}

func TestSSH(t *testing.T) {
	_, nested := testutil.Workspace(t, workspace.Marker)
	h := newHarness(t, nested)

	require.Equal(t, 0, h.run("ssh"))
	assert.Equal(t, []string{"vagrant ssh"}, h.runner.Rendered())
}

func TestDelegatedExitCodePassesThrough(t *testing.T) {
	_, nested := testutil.Workspace(t, workspace.Marker)
	h := newHarness(t, nested)
	h.runner.Fail = map[string]error{"vagrant up": &remote.ExitError{Command: "vagrant", Code: 3}}

	assert.Equal(t, 3, h.run("boot"))
	assert.NotContains(t, h.stderr.String(), "Error:")
}

func TestShutdownHaltsWhenStopFails(t *testing.T) {
	_, nested := testutil.Workspace(t, workspace.Marker)
	h := newHarness(t, nested)
	h.runner.Fail = map[string]error{"vagrant ssh": &remote.ExitError{Command: "vagrant", Code: 1}}

	assert.Equal(t, 0, h.run("shutdown"))
	assert.Equal(t, []string{
		"vagrant ssh -c 'cd /vagrant/stack && ./bin/stop'",
		"vagrant halt",
	}, h.runner.Rendered())
}

func TestDestroyWarns(t *testing.T) {
	_, nested := testutil.Workspace(t, workspace.Marker)
	h := newHarness(t, nested)

	require.Equal(t, 0, h.run("destroy"))
	assert.Contains(t, h.stdout.String(), "warning: destroying the VM")
	assert.Equal(t, []string{"vagrant destroy -f"}, h.runner.Rendered())
}

func TestLogsRetriesUntilInterrupted(t *testing.T) {
	_, nested := testutil.Workspace(t, workspace.Marker)
	h := newHarness(t, nested)
	t.Setenv("DEVENV_RETRY_DELAY", "1ms")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.runner.OnRun = func(remote.Command) error {
		if len(h.runner.Commands) == 3 {
			cancel()
			return errors.New("signal: interrupt")
		}
		return nil
	}

	code := Execute(ctx, h.app, []string{"logs"})
	assert.Equal(t, 130, code)
	assert.Len(t, h.runner.Commands, 3)
	assert.Equal(t, 2, strings.Count(h.stderr.String(), "log stream ended, retrying in 1ms"))
	for _, c := range h.runner.Commands {
		assert.Equal(t, []string{"ssh", "-c", "cd /vagrant/stack && docker compose logs -f --tail=100"}, c.Args)
	}
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	h := newHarness(t, dir)

	require.Equal(t, 0, h.run("init"), h.stderr.String())
	rendered := h.runner.Rendered()
	require.Len(t, rendered, 6)
	assert.Equal(t, "vagrant plugin install vagrant-vbguest", rendered[0])
	assert.Equal(t, "vagrant plugin install vagrant-hostmanager", rendered[1])
	assert.True(t, strings.HasPrefix(rendered[2], "git clone "))
	assert.FileExists(t, filepath.Join(dir, workspace.Marker))
	assert.FileExists(t, filepath.Join(dir, "stack", workspace.ComposeOverrideName))
}

func TestInitNonEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".keep"), nil, 0o644))
	h := newHarness(t, dir)

	assert.Equal(t, 1, h.run("init"))
	assert.Contains(t, h.stderr.String(), "is not empty")
	assert.Empty(t, h.runner.Commands)
	assert.NoFileExists(t, filepath.Join(dir, workspace.Marker))
}

func TestInvalidConfiguration(t *testing.T) {
	_, nested := testutil.Workspace(t, workspace.Marker)
	h := newHarness(t, nested)
	t.Setenv("DEVENV_TRANSPORT", "telnet")

	assert.Equal(t, 1, h.run("boot"))
	assert.Contains(t, h.stderr.String(), "Error [transport]")
	assert.Empty(t, h.runner.Commands)
}

func TestConfigFileInEnvironment(t *testing.T) {
	root, nested := testutil.Workspace(t, workspace.Marker)
	cfg := "vm_dir: /srv/app\npublic_hostname: dev.example.test\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "devenv.yaml"), []byte(cfg), 0o644))
	h := newHarness(t, nested)

	require.Equal(t, 0, h.run("rebuild", "api"), h.stderr.String())
	assert.Equal(t, "cd /srv/app && docker compose build api && docker compose stop api && "+
		"docker compose rm -f api && PUBLIC_HOSTNAME=dev.example.test docker compose up -d api",
		h.runner.Commands[0].Args[2])
}

type fetchFunc func(ctx context.Context, url string) ([]byte, error)

func (f fetchFunc) Fetch(ctx context.Context, url string) ([]byte, error) { return f(ctx, url) }

type failingInstaller struct{ calls int }

func (f *failingInstaller) Replace(context.Context, string, string) error {
	f.calls++
	return errors.New("sudo: a password is required")
}

func sum(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

func TestPatchInstallFailureDoesNotStopCommand(t *testing.T) {
	_, nested := testutil.Workspace(t, workspace.Marker)
	h := newHarness(t, nested)
	t.Setenv("DEVENV_SKIP_PATCH", "")
	t.Setenv("DEVENV_PATCH_FAULTY_SHA256", sum("faulty"))
	t.Setenv("DEVENV_PATCH_FIXED_SHA256", sum("fixed"))

	installer := &failingInstaller{}
	h.app.Patcher = &host.Patcher{
		Fetcher:   fetchFunc(func(context.Context, string) ([]byte, error) { return []byte("fixed"), nil }),
		Installer: installer,
		Logger:    zerolog.Nop(),
		ReadFile:  func(string) ([]byte, error) { return []byte("faulty"), nil },
		TempDir:   t.TempDir(),
	}

	require.Equal(t, 0, h.run("boot"), h.stderr.String())
	assert.Equal(t, 1, installer.calls)
	assert.Contains(t, h.stderr.String(), "warning: could not patch")
	assert.Equal(t, []string{"vagrant up --provider=virtualbox"}, h.runner.Rendered())
}

func TestPatchHashMismatchIsSilent(t *testing.T) {
	_, nested := testutil.Workspace(t, workspace.Marker)
	h := newHarness(t, nested)
	t.Setenv("DEVENV_SKIP_PATCH", "")
	t.Setenv("DEVENV_PATCH_FAULTY_SHA256", sum("faulty"))
	t.Setenv("DEVENV_PATCH_FIXED_SHA256", sum("fixed"))

	installer := &failingInstaller{}
	h.app.Patcher = &host.Patcher{
		Fetcher:   fetchFunc(func(context.Context, string) ([]byte, error) { return []byte("tampered"), nil }),
		Installer: installer,
		Logger:    zerolog.Nop(),
		ReadFile:  func(string) ([]byte, error) { return []byte("faulty"), nil },
	}

	require.Equal(t, 0, h.run("boot"))
	assert.Zero(t, installer.calls)
	assert.Empty(t, h.stderr.String())
}

func TestPatchWithoutDigestsWarns(t *testing.T) {
	_, nested := testutil.Workspace(t, workspace.Marker)
	h := newHarness(t, nested)
	t.Setenv("DEVENV_SKIP_PATCH", "")

	fetches := 0
	h.app.Patcher = &host.Patcher{
		Fetcher: fetchFunc(func(context.Context, string) ([]byte, error) {
			fetches++
			return nil, nil
		}),
		Installer: &failingInstaller{},
		Logger:    zerolog.Nop(),
		ReadFile:  func(string) ([]byte, error) { return []byte("faulty"), nil },
	}

	require.Equal(t, 0, h.run("boot"), h.stderr.String())
	assert.Zero(t, fetches)
	assert.Contains(t, h.stderr.String(), "cannot be checked for the vagrant 2.2.6 virtualbox 6.1 driver table issue")
	assert.Contains(t, h.stderr.String(), "patch.faulty_sha256")
	assert.Equal(t, []string{"vagrant up --provider=virtualbox"}, h.runner.Rendered())
}

func TestTimingReport(t *testing.T) {
	_, nested := testutil.Workspace(t, workspace.Marker)
	h := newHarness(t, nested)
	t.Setenv("DEVENV_TIMING", "1")

	require.Equal(t, 0, h.run("boot"))
	assert.Contains(t, h.stderr.String(), "=== Timing ===")
	assert.Contains(t, h.stderr.String(), "vagrant up --provider=virtualbox")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{errors.New("boom"), 1},
		{&remote.ExitError{Command: "vagrant", Code: 42}, 42},
		{fmt.Errorf("wrapped: %w", &remote.ExitError{Command: "vagrant", Code: 2}), 2},
		{context.Canceled, 130},
		{fmt.Errorf("logs: %w", context.Canceled), 130},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExitCode(tt.err), "%v", tt.err)
	}
}
