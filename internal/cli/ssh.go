package cli

import "github.com/spf13/cobra"

func newSSHCmd(a *App) *cobra.Command {
	cmd := verbCmd(a, "ssh")
	cmd.Long = `Open a login shell inside the VM.

With transport: native the session is opened directly over SSH; press
Ctrl+] twice to detach.`
	cmd.Args = cobra.NoArgs
	return cmd
}
