package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

var initUID string

func init() {
	initCmd.Flags().StringVar(&initUID, "uid", "", "Account uid (defaults to the email)")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init <base-url> <email>",
	Short: "Store the backend URL and learner email",
	Long:  "Initialize the CLI by storing the backend base URL and the learner's email in the local configuration file.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		baseURL, email := args[0], args[1]
		if u, err := url.Parse(baseURL); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid base url %q", baseURL)
		}

		cfg, err := loadFileConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		cfg.Default.BaseURL = baseURL
		cfg.Default.UserEmail = email
		if initUID != "" {
			cfg.Default.UserUID = initUID
		}
		if cfg.Store.Backend == "" {
			cfg.Store.Backend = "sqlite"
		}

		if err := saveConfig(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		path, _ := configPath()
		fmt.Printf("Configuration saved to %s\n", path)
		return nil
	},
}
