package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/dixel/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit the configuration file",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file in use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		printf(cmd, "%s\n", configPath())
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		settings := viper.AllSettings()
		if dbFlag != "" {
			settings["db_path"] = dbFlag
		}
		if jsonFlag {
			return output(cmd, settings, nil)
		}
		out, err := yaml.Marshal(settings)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

var configForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Reset the configuration file to the defaults",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := configPath()
		// The first run of any command writes the defaults, so only a file
		// that was edited needs --force.
		if data, err := os.ReadFile(path); err == nil && string(data) != config.DefaultConfigTemplate() && !configForce {
			return fmt.Errorf("%s has local changes (use --force to overwrite)", path)
		}
		if err := config.WriteDefaultConfig(path); err != nil {
			return err
		}
		printf(cmd, "wrote %s\n", path)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a dotted key in the config file. Comments elsewhere in the file are kept.

Examples:
  dixel config set factory.creation_fee 0.05ether
  dixel config set tracing.enabled true`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath()
		if err := config.SetValue(path, args[0], args[1]); err != nil {
			return err
		}
		printf(cmd, "%s = %s (%s)\n", args[0], args[1], path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configPathCmd, configShowCmd, configInitCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}
