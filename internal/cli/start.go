package cli

import (
	"github.com/spf13/cobra"
)

var startQuiet bool

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Activate the firewall and start the proxy service",
	RunE:  runStart,
}

// startContainerCmd is the systemd entry point; same operation as start.
var startContainerCmd = &cobra.Command{
	Use:    "start-container",
	Hidden: true,
	RunE:   runStart,
}

func init() {
	startCmd.Flags().BoolVarP(&startQuiet, "quiet", "q", false, "Suppress progress output")
}

func runStart(cmd *cobra.Command, args []string) error {
	out := quietWriter(startQuiet)

	o, err := newOrchestrator(cmd.Context(), out)
	if err != nil {
		return err
	}
	if err := o.Start(cmd.Context()); err != nil {
		return err
	}
	progress(out, "✓ Service running\n")
	return nil
}
