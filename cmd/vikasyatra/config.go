package main

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

var configShowFile bool

func init() {
	configShowCmd.Flags().BoolVar(&configShowFile, "file", false, "Print the config file as stored, without environment overrides")
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configSetCmd, configPathCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage VikasYatra configuration",
	Long: "View or modify the CLI configuration stored in $XDG_CONFIG_HOME/vikasyatra/config.toml.\n" +
		"Environment variables (and a .env file in the working directory) override file values.",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			cfg *Config
			err error
		)
		if configShowFile {
			cfg, err = loadFileConfig()
		} else {
			cfg, err = loadConfig()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if jsonOutput {
			return printJSON(redacted(cfg))
		}
		out, err := renderConfig(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			fmt.Printf("%s (not created yet; run 'vikasyatra init <base-url> <email>')\n", path)
			return nil
		}
		fmt.Println(path)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value using dot notation.\nExample: vikasyatra config set store.backend sqlite",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		// environment overrides must not end up in the file
		cfg, err := loadFileConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := setConfigValue(cfg, key, value); err != nil {
			return err
		}
		if err := saveConfig(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		if key == "default.token" {
			value = maskKey(value)
		}
		fmt.Printf("Set %s = %s\n", key, value)
		return nil
	},
}

// redacted returns a copy of cfg with secrets masked for display.
func redacted(cfg *Config) *Config {
	out := *cfg
	if out.Default.Token != "" {
		out.Default.Token = maskKey(out.Default.Token)
	}
	return &out
}

// renderConfig formats cfg as TOML with secrets masked and the resolved
// store backend filled in.
func renderConfig(cfg *Config) ([]byte, error) {
	out := redacted(cfg)
	out.Store.Backend = valueOrDefault(out.Store.Backend, "sqlite")
	data, err := toml.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("cannot marshal config: %w", err)
	}
	return data, nil
}
