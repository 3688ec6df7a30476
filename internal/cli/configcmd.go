package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BonFireWatch/proxflix/internal/config"
	"github.com/BonFireWatch/proxflix/internal/util"
)

var getConfigCmd = &cobra.Command{
	Use:   "get-config <key>",
	Short: "Print a config value (built-in default when unset)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env := util.NewEnv()
		cfg, err := config.Load(env)
		if err != nil {
			return err
		}
		value, ok := cfg.Get(args[0])
		if !ok {
			return fmt.Errorf("unknown config key %q", args[0])
		}
		fmt.Println(value)
		return nil
	},
}

var setConfigCmd = &cobra.Command{
	Use:   "set-config <key> <value>",
	Short: "Set a config value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env := util.NewEnv()
		cfg, err := config.Load(env)
		if err != nil {
			return err
		}
		if err := cfg.Set(args[0], args[1]); err != nil {
			return err
		}
		return cfg.Save(env)
	},
}
