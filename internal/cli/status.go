package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BonFireWatch/proxflix/internal/firewall"
	"github.com/BonFireWatch/proxflix/internal/runtime"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show service and firewall status",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	o, err := newOrchestrator(cmd.Context(), nil)
	if err != nil {
		return err
	}

	cs, chains, err := o.Status(cmd.Context())
	if err != nil {
		return err
	}

	switch cs.State {
	case runtime.StateRunning:
		fmt.Println("Service: Running")
		fmt.Printf("  ID:    %s\n", cs.ID)
		fmt.Printf("  Image: %s\n", cs.Image)
		if cs.StartedAt != "" {
			fmt.Printf("  Started: %s\n", cs.StartedAt)
		}
	case runtime.StateStopped:
		fmt.Println("Service: Stopped")
	case runtime.StateNotFound:
		fmt.Println("Service: Not created")
	default:
		fmt.Println("Service: Unknown state")
	}

	fmt.Println("")
	for _, f := range firewall.Families {
		state := "inactive"
		if chains[f] {
			state = "active"
		}
		fmt.Printf("Firewall (%s): %s\n", f, state)
	}

	if chains[firewall.FamilyIPv4] || chains[firewall.FamilyIPv6] {
		addrs, err := o.Firewall().List()
		if err != nil {
			return err
		}
		fmt.Printf("Allowed addresses: %d\n", len(addrs))
	}
	return nil
}
