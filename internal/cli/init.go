package cli

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/BonFireWatch/proxflix/internal/config"
	"github.com/BonFireWatch/proxflix/internal/util"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactively create the proxflix configuration",
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	env := util.NewEnv()

	if _, err := env.Fs.Stat(util.ConfigFile); err == nil {
		return fmt.Errorf("configuration file already exists: %s", util.ConfigFile)
	}

	var dnsServers string
	err := huh.NewSelect[string]().
		Title("Upstream DNS servers").
		Options(
			huh.NewOption("Google (8.8.8.8, 8.8.4.4)", "8.8.8.8,8.8.4.4"),
			huh.NewOption("Cloudflare (1.1.1.1, 1.0.0.1)", "1.1.1.1,1.0.0.1"),
			huh.NewOption("Quad9 (9.9.9.9, 149.112.112.112)", "9.9.9.9,149.112.112.112"),
		).
		Value(&dnsServers).
		Run()
	if err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}

	manageIptables := true
	err = huh.NewConfirm().
		Title("Manage firewall rules?").
		Description("Default-reject the proxy ports and only accept allow-listed addresses.").
		Value(&manageIptables).
		Run()
	if err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}

	ipv6NAT := false
	err = huh.NewConfirm().
		Title("Enable transient IPv6 NAT?").
		Description("Masquerade the service's private IPv6 subnet while the service runs.").
		Value(&ipv6NAT).
		Run()
	if err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}

	cfg := config.New()
	if err := cfg.Set(config.KeyDNSServer, dnsServers); err != nil {
		return err
	}
	if err := cfg.Set(config.KeyManageIptables, yesNo(manageIptables)); err != nil {
		return err
	}
	if err := cfg.Set(config.KeyIPv6NAT, yesNo(ipv6NAT)); err != nil {
		return err
	}
	if err := cfg.Save(env); err != nil {
		return err
	}

	fmt.Printf("✓ Configuration written to %s\n", util.ConfigFile)
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
