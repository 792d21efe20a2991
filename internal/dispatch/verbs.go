// Package dispatch turns a verb and its arguments into the fixed list of
// delegated commands that implement it, and runs that list.
package dispatch

import (
	"strings"

	"github.com/alessio/shellescape"

	"github.com/javanstorm/devenv/internal/remote"
	"github.com/javanstorm/devenv/pkg/provider"
)

// Params are the resolved session values plans are built from.
type Params struct {
	Provider       provider.Provider
	ComposeCommand string
	PublicHostname string
}

// DefaultParams returns the values used when configuration is silent.
func DefaultParams(p provider.Provider) Params {
	return Params{
		Provider:       p,
		ComposeCommand: "docker compose",
		PublicHostname: "localhost",
	}
}

// StepKind says where a step runs.
type StepKind int

const (
	// Local runs Command on the host from the environment root.
	Local StepKind = iota
	// Remote runs Script inside the VM.
	Remote
	// Interactive opens a shell in the VM.
	Interactive
	// Notice prints Message.
	Notice
)

// Step is one delegated action.
type Step struct {
	Kind    StepKind
	Command remote.Command
	Script  string
	Message string

	// IgnoreFailure lets the plan continue when this step fails.
	IgnoreFailure bool
}

func (s Step) String() string {
	switch s.Kind {
	case Local:
		return s.Command.String()
	case Remote:
		return s.Script
	case Interactive:
		return "interactive shell"
	default:
		return "notice"
	}
}

func localStep(name string, args ...string) Step {
	return Step{Kind: Local, Command: remote.Command{Name: name, Args: args}}
}

func remoteStep(script string) Step {
	return Step{Kind: Remote, Script: script}
}

// Verb describes one VM-targeting command.
type Verb struct {
	Name  string
	Short string
	// Usage is the argument synopsis, e.g. "<service>".
	Usage   string
	MinArgs int
	Plan    func(p Params, args []string) []Step
}

// Steps validates args and returns the plan. A blank first argument counts
// as missing.
func (v Verb) Steps(p Params, args []string) ([]Step, error) {
	if len(args) < v.MinArgs || (v.MinArgs > 0 && strings.TrimSpace(args[0]) == "") {
		return nil, &UsageError{Verb: v.Name, Usage: v.Usage}
	}
	return v.Plan(p, args), nil
}

// DestroyWarning is printed before the VM is destroyed.
const DestroyWarning = "destroying the VM; all of its disks and container data will be deleted"

var verbs = map[string]Verb{
	"boot": {
		Name:  "boot",
		Short: "Start the VM",
		Plan: func(p Params, _ []string) []Step {
			return []Step{localStep("vagrant", "up", "--provider="+p.Provider.String())}
		},
	},
	"shutdown": {
		Name:  "shutdown",
		Short: "Stop the application stack and halt the VM",
		Plan: func(Params, []string) []Step {
			stop := remoteStep("./bin/stop")
			stop.IgnoreFailure = true
			return []Step{stop, localStep("vagrant", "halt")}
		},
	},
	"destroy": {
		Name:  "destroy",
		Short: "Destroy the VM",
		Plan: func(Params, []string) []Step {
			return []Step{
				{Kind: Notice, Message: DestroyWarning},
				localStep("vagrant", "destroy", "-f"),
			}
		},
	},
	"status": {
		Name:  "status",
		Short: "Show the VM state",
		Plan: func(Params, []string) []Step {
			return []Step{localStep("vagrant", "status")}
		},
	},
	"containers": {
		Name:  "containers",
		Short: "List the compose services",
		Plan: func(p Params, _ []string) []Step {
			return []Step{remoteStep(p.ComposeCommand + " config --services")}
		},
	},
	"rebuild": {
		Name:    "rebuild",
		Short:   "Rebuild and restart one service",
		Usage:   "<service>",
		MinArgs: 1,
		Plan: func(p Params, args []string) []Step {
			svc := shellescape.Quote(args[0])
			dc := p.ComposeCommand
			return []Step{remoteStep(strings.Join([]string{
				dc + " build " + svc,
				dc + " stop " + svc,
				dc + " rm -f " + svc,
				"PUBLIC_HOSTNAME=" + shellescape.Quote(p.PublicHostname) + " " + dc + " up -d " + svc,
			}, " && "))}
		},
	},
	"reload": {
		Name:  "reload",
		Short: "Stop, reconfigure and start the application stack",
		Plan: func(Params, []string) []Step {
			return []Step{remoteStep("./bin/stop && ./bin/configure && ./bin/start")}
		},
	},
	"app": {
		Name:  "app",
		Short: "Run the application helper with arguments",
		Usage: "[args...]",
		Plan: func(_ Params, args []string) []Step {
			script := "./bin/app"
			if len(args) > 0 {
				script += " " + shellescape.QuoteCommand(args)
			}
			return []Step{remoteStep(script)}
		},
	},
	"logs": {
		Name:  "logs",
		Short: "Follow container logs",
		Plan: func(p Params, _ []string) []Step {
			return []Step{remoteStep(p.ComposeCommand + " logs -f --tail=100")}
		},
	},
	"run": {
		Name:    "run",
		Short:   "Run a shell command in the VM",
		Usage:   "<command...>",
		MinArgs: 1,
		Plan: func(_ Params, args []string) []Step {
			return []Step{remoteStep(strings.Join(args, " "))}
		},
	},
	"ssh": {
		Name:  "ssh",
		Short: "Open a shell in the VM",
		Plan: func(Params, []string) []Step {
			return []Step{{Kind: Interactive}}
		},
	},
}

// Lookup returns the verb registered under name.
func Lookup(name string) (Verb, bool) {
	v, ok := verbs[name]
	return v, ok
}
