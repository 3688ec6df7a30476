package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BonFireWatch/proxflix/internal/systemd"
	"github.com/BonFireWatch/proxflix/internal/util"
)

var enableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Install the systemd unit and enable it at boot",
	RunE: func(cmd *cobra.Command, args []string) error {
		env := util.NewEnv()
		if err := systemd.Enable(env); err != nil {
			return err
		}
		fmt.Printf("✓ %s enabled\n", systemd.UnitName)
		return nil
	},
}

var disableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable the systemd unit at boot",
	RunE: func(cmd *cobra.Command, args []string) error {
		env := util.NewEnv()
		if err := systemd.Disable(env); err != nil {
			return err
		}
		fmt.Printf("✓ %s disabled\n", systemd.UnitName)
		return nil
	},
}
