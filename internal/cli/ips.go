package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BonFireWatch/proxflix/internal/firewall"
	"github.com/BonFireWatch/proxflix/internal/util"
)

var addIPCmd = &cobra.Command{
	Use:   "add-ip <address>",
	Short: "Allow-list a client address (optionally with /prefix)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := firewall.ParseAddress(args[0])
		if err != nil {
			return err
		}
		fw := firewall.NewController(util.NewEnv())
		if err := fw.Allow(addr); err != nil {
			return err
		}
		fmt.Printf("✓ %s allowed (%s)\n", addr.Text, addr.Family)
		return nil
	},
}

var removeIPCmd = &cobra.Command{
	Use:   "remove-ip <address>",
	Short: "Remove a client address from the allow-list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := firewall.ParseAddress(args[0])
		if err != nil {
			return err
		}
		fw := firewall.NewController(util.NewEnv())
		if err := fw.Disallow(addr); err != nil {
			return err
		}
		fmt.Printf("✓ %s removed (%s)\n", addr.Text, addr.Family)
		return nil
	},
}

var listIPsCmd = &cobra.Command{
	Use:   "list-ips",
	Short: "List the allow-listed client addresses",
	RunE: func(cmd *cobra.Command, args []string) error {
		fw := firewall.NewController(util.NewEnv())
		addrs, err := fw.List()
		if err != nil {
			return err
		}
		for _, a := range addrs {
			fmt.Println(a)
		}
		return nil
	},
}
