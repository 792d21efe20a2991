package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/javanstorm/devenv/internal/terminal"
)

// NativeShell talks SSH to the VM directly, using the connection details
// reported by `vagrant ssh-config`. It avoids starting a vagrant process for
// every remote command.
type NativeShell struct {
	Runner Runner
	Root   string
	Logger zerolog.Logger

	Stdout  io.Writer
	Stderr  io.Writer
	Console *terminal.Console

	DialTimeout time.Duration

	mu  sync.Mutex
	cfg *SSHConfig
}

// NewNativeShell returns a NativeShell for the environment at root.
func NewNativeShell(runner Runner, root string, logger zerolog.Logger) *NativeShell {
	return &NativeShell{
		Runner:      runner,
		Root:        root,
		Logger:      logger,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Console:     terminal.Current(),
		DialTimeout: 10 * time.Second,
	}
}

// sshConfig returns the cached connection details, asking vagrant for them
// when none are cached. Failures are not cached.
func (s *NativeShell) sshConfig(ctx context.Context) (*SSHConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg != nil {
		return s.cfg, nil
	}
	out, err := s.Runner.Output(ctx, Command{
		Name: "vagrant",
		Args: []string{"ssh-config"},
		Dir:  s.Root,
	})
	if err != nil {
		return nil, fmt.Errorf("vagrant ssh-config: %w", err)
	}
	cfg, err := ParseSSHConfig(out)
	if err != nil {
		return nil, err
	}
	s.cfg = cfg
	return cfg, nil
}

// forget drops the cached details so the next dial asks vagrant again; the
// forwarded port can change when the VM restarts.
func (s *NativeShell) forget() {
	s.mu.Lock()
	s.cfg = nil
	s.mu.Unlock()
}

func (s *NativeShell) clientConfig(cfg *SSHConfig) (*ssh.ClientConfig, error) {
	var signers []ssh.Signer
	for _, path := range cfg.IdentityFiles {
		key, err := os.ReadFile(path)
		if err != nil {
			s.Logger.Debug().Err(err).Str("identity", path).Msg("skipping identity file")
			continue
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			s.Logger.Debug().Err(err).Str("identity", path).Msg("skipping identity file")
			continue
		}
		signers = append(signers, signer)
	}
	if len(signers) == 0 {
		return nil, fmt.Errorf("%w: no readable identity file", ErrNoSSHConfig)
	}

	hostKey := ssh.InsecureIgnoreHostKey()
	if cfg.StrictHostKeyChecking && cfg.UserKnownHostsFile != "" && cfg.UserKnownHostsFile != os.DevNull {
		cb, err := knownhosts.New(cfg.UserKnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("load known hosts: %w", err)
		}
		hostKey = cb
	}

	return &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signers...)},
		HostKeyCallback: hostKey,
		Timeout:         s.DialTimeout,
	}, nil
}

func (s *NativeShell) dial(ctx context.Context) (*ssh.Client, error) {
	cfg, err := s.sshConfig(ctx)
	if err != nil {
		return nil, err
	}
	clientCfg, err := s.clientConfig(cfg)
	if err != nil {
		return nil, err
	}
	s.Logger.Debug().Str("addr", cfg.Addr()).Str("user", cfg.User).Msg("ssh dial")
	client, err := ssh.Dial("tcp", cfg.Addr(), clientCfg)
	if err != nil {
		s.forget()
		return nil, fmt.Errorf("ssh dial %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// runSession runs fn and closes the session when ctx is cancelled first.
func runSession(ctx context.Context, session *ssh.Session, fn func() error) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = session.Signal(ssh.SIGINT)
			_ = session.Close()
		case <-done:
		}
	}()

	err := fn()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Command: "ssh", Code: exitErr.ExitStatus()}
	}
	return err
}

// Exec implements Shell.
func (s *NativeShell) Exec(ctx context.Context, script string) error {
	client, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return fmt.Errorf("ssh session: %w", err)
	}
	defer session.Close()

	session.Stdout = s.Stdout
	session.Stderr = s.Stderr

	s.Logger.Debug().Str("script", script).Msg("ssh exec")
	return runSession(ctx, session, func() error { return session.Run(script) })
}

// Interactive implements Shell. Ctrl+] twice detaches.
func (s *NativeShell) Interactive(ctx context.Context) error {
	client, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return fmt.Errorf("ssh session: %w", err)
	}
	defer session.Close()

	stdin := terminal.NewDetachReader(s.Console.In)
	session.Stdin = stdin
	session.Stdout = s.Console.Out
	session.Stderr = s.Stderr

	if s.Console.IsTerminal() {
		restore, err := s.Console.MakeRaw()
		if err != nil {
			return fmt.Errorf("raw terminal: %w", err)
		}
		defer restore()

		width, height := s.Console.Size()
		modes := ssh.TerminalModes{
			ssh.ECHO:          1,
			ssh.TTY_OP_ISPEED: 14400,
			ssh.TTY_OP_OSPEED: 14400,
		}
		term := os.Getenv("TERM")
		if term == "" {
			term = "xterm-256color"
		}
		if err := session.RequestPty(term, height, width, modes); err != nil {
			return fmt.Errorf("request pty: %w", err)
		}
	}

	if err := session.Shell(); err != nil {
		return fmt.Errorf("start shell: %w", err)
	}

	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-stdin.Detached():
			_ = session.Close()
		case <-finished:
		}
	}()
	if s.Console.IsTerminal() {
		go s.forwardResize(session, finished)
	}

	err = runSession(ctx, session, session.Wait)
	select {
	case <-stdin.Detached():
		fmt.Fprint(s.Console.Out, "\r\ndetached\r\n")
		return nil
	default:
	}
	return err
}

// forwardResize sends the local terminal size to the session whenever it
// changes, until done is closed.
func (s *NativeShell) forwardResize(session *ssh.Session, done <-chan struct{}) {
	resize := make(chan os.Signal, 1)
	terminal.NotifyResize(resize)
	defer signal.Stop(resize)
	for {
		select {
		case <-resize:
			width, height := s.Console.Size()
			if err := session.WindowChange(height, width); err != nil {
				s.Logger.Debug().Err(err).Msg("window change")
			}
		case <-done:
			return
		}
	}
}
