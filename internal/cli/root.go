// Package cli implements the proxflix command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and Date are set at build time via ldflags
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// geteuid is overridable in tests.
var geteuid = os.Geteuid

var rootCmd = &cobra.Command{
	Use:   "proxflix",
	Short: "Proxflix - access-controlled DNS/HTTP/HTTPS proxy front end",
	Long: `Proxflix manages a dockerized DNS/HTTP/HTTPS proxy behind a
default-reject firewall: only explicitly allow-listed client addresses
can reach the exposed ports. It creates and tears down the packet-filter
rules, keeps the allow-list persistent across restarts, and wires the
service into systemd.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	// Every operation either mutates the kernel ruleset or queries it,
	// so nothing runs without root.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if geteuid() != 0 {
			return fmt.Errorf("%s must be run as root", cmd.Root().Name())
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("proxflix version %s\ncommit: %s\ndate: %s\n", Version, Commit, Date))

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(restartCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(enableCmd)
	rootCmd.AddCommand(disableCmd)
	rootCmd.AddCommand(addIPCmd)
	rootCmd.AddCommand(removeIPCmd)
	rootCmd.AddCommand(listIPsCmd)
	rootCmd.AddCommand(getConfigCmd)
	rootCmd.AddCommand(setConfigCmd)
	rootCmd.AddCommand(startContainerCmd)
	rootCmd.AddCommand(stopContainerCmd)
}
