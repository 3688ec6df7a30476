package cli

import (
	"github.com/spf13/cobra"
)

var stopQuiet bool

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the proxy service and tear down the firewall",
	RunE:  runStop,
}

// stopContainerCmd is the systemd entry point; same operation as stop.
var stopContainerCmd = &cobra.Command{
	Use:    "stop-container",
	Hidden: true,
	RunE:   runStop,
}

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the proxy service",
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := newOrchestrator(cmd.Context(), quietWriter(false))
		if err != nil {
			return err
		}
		if err := o.Restart(cmd.Context()); err != nil {
			return err
		}
		progress(quietWriter(false), "✓ Service running\n")
		return nil
	},
}

func init() {
	stopCmd.Flags().BoolVarP(&stopQuiet, "quiet", "q", false, "Suppress progress output")
}

func runStop(cmd *cobra.Command, args []string) error {
	out := quietWriter(stopQuiet)

	o, err := newOrchestrator(cmd.Context(), out)
	if err != nil {
		return err
	}
	if err := o.Stop(cmd.Context()); err != nil {
		return err
	}
	progress(out, "✓ Service stopped\n")
	return nil
}
