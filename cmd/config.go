package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/user/sdsec/pkg/config"
	"github.com/user/sdsec/pkg/logger"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration (analyzer, defaults, output)",
	// Skip the root loader so a broken file can still be repaired.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Init("info", DebugMode)
	},
}

var showConfigCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration (defaults, file and env merged)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(c)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var setConfigCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Persist one setting to the config file",
	Long:  "Persist one setting to the config file. An empty value clears optional keys.\nKnown keys: analyzer_path, analyzer_args, log_level, default_top_n, default_predicate, output, metrics_file, color",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}

		c := config.New()
		if _, statErr := os.Stat(path); statErr == nil {
			if c, err = config.LoadFile(path); err != nil {
				return err
			}
		}
		if err := c.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := config.SaveConfig(path, c); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s=%q to %s\n", args[0], args[1], path)
		return nil
	},
}

var pathConfigCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.GetConfigPath()
}

func init() {
	configCmd.AddCommand(showConfigCmd)
	configCmd.AddCommand(setConfigCmd)
	configCmd.AddCommand(pathConfigCmd)
	rootCmd.AddCommand(configCmd)
}
