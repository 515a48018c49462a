package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

// ============================================================================
// Config types
// ============================================================================

// Config represents the CLI configuration stored in
// $XDG_CONFIG_HOME/vikasyatra/config.toml.
type Config struct {
	Default ConfigDefault `toml:"default"`
	Store   ConfigStore   `toml:"store"`
	History ConfigHistory `toml:"history"`
	Upload  ConfigUpload  `toml:"upload"`
	Log     ConfigLog     `toml:"log"`
}

// ConfigDefault holds the backend location and the signed-in learner.
type ConfigDefault struct {
	BaseURL     string `toml:"base_url" env:"VIKASYATRA_BASE_URL"`
	Environment string `toml:"environment"`
	UserEmail   string `toml:"user_email" env:"VIKASYATRA_USER_EMAIL"`
	UserUID     string `toml:"user_uid"`
	DisplayName string `toml:"display_name"`
	Token       string `toml:"token" env:"VIKASYATRA_TOKEN"`
}

// ConfigStore selects the local cache backend: memory, file, sqlite or redis.
type ConfigStore struct {
	Backend     string `toml:"backend" env:"VIKASYATRA_STORE_BACKEND"`
	Path        string `toml:"path" env:"VIKASYATRA_STORE_PATH"`
	RedisAddr   string `toml:"redis_addr" env:"VIKASYATRA_REDIS_ADDR"`
	RedisPrefix string `toml:"redis_prefix"`
}

type ConfigHistory struct {
	DSN string `toml:"dsn" env:"VIKASYATRA_HISTORY_DSN"`
}

// ConfigUpload picks where local media goes before a job is created.
type ConfigUpload struct {
	Provider         string `toml:"provider" env:"VIKASYATRA_UPLOAD_PROVIDER"`
	CloudinaryCloud  string `toml:"cloudinary_cloud" env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryPreset string `toml:"cloudinary_preset" env:"CLOUDINARY_UPLOAD_PRESET"`
	GCSBucket        string `toml:"gcs_bucket" env:"GCS_BUCKET"`
}

type ConfigLog struct {
	Mode string `toml:"mode" env:"VIKASYATRA_LOG_MODE"`
}

// ============================================================================
// Config helpers
// ============================================================================

// configPath returns the config file path, creating its directory if needed.
func configPath() (string, error) {
	path, err := xdg.ConfigFile("vikasyatra/config.toml")
	if err != nil {
		return "", fmt.Errorf("cannot determine config path: %w", err)
	}
	return path, nil
}

// dataPath returns a path under the XDG data dir for name.
func dataPath(name string) (string, error) {
	path, err := xdg.DataFile("vikasyatra/" + name)
	if err != nil {
		return "", fmt.Errorf("cannot determine data path: %w", err)
	}
	return path, nil
}

// loadConfig reads the config file and applies environment overrides.
func loadConfig() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	cfg, err := readConfig(path)
	if err != nil {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// readConfig parses path. A missing file yields a zero-value Config.
func readConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config: %w", err)
	}
	return &cfg, nil
}

// applyEnv loads an optional .env from the working directory, then lets
// set environment variables override file values.
func applyEnv(cfg *Config) error {
	_ = godotenv.Load()
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// loadFileConfig reads the config file without environment overrides, for
// commands that write it back.
func loadFileConfig() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	return readConfig(path)
}

// saveConfig writes cfg to the config file.
func saveConfig(cfg *Config) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	return writeConfig(path, cfg)
}

func writeConfig(path string, cfg *Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("cannot write config: %w", err)
	}
	return nil
}

// setConfigValue sets a config field using dot notation (e.g. "default.user_email").
func setConfigValue(cfg *Config, key, value string) error {
	parts := strings.SplitN(key, ".", 2)
	if len(parts) != 2 {
		return fmt.Errorf("key must use dot notation: section.field (e.g. default.base_url)")
	}
	section, field := parts[0], parts[1]

	var target *string
	switch section {
	case "default":
		target = map[string]*string{
			"base_url":     &cfg.Default.BaseURL,
			"environment":  &cfg.Default.Environment,
			"user_email":   &cfg.Default.UserEmail,
			"user_uid":     &cfg.Default.UserUID,
			"display_name": &cfg.Default.DisplayName,
			"token":        &cfg.Default.Token,
		}[field]
	case "store":
		target = map[string]*string{
			"backend":      &cfg.Store.Backend,
			"path":         &cfg.Store.Path,
			"redis_addr":   &cfg.Store.RedisAddr,
			"redis_prefix": &cfg.Store.RedisPrefix,
		}[field]
	case "history":
		if field == "dsn" {
			target = &cfg.History.DSN
		}
	case "upload":
		target = map[string]*string{
			"provider":          &cfg.Upload.Provider,
			"cloudinary_cloud":  &cfg.Upload.CloudinaryCloud,
			"cloudinary_preset": &cfg.Upload.CloudinaryPreset,
			"gcs_bucket":        &cfg.Upload.GCSBucket,
		}[field]
	case "log":
		if field == "mode" {
			target = &cfg.Log.Mode
		}
	default:
		return fmt.Errorf("unknown config section %q (valid: default, store, history, upload, log)", section)
	}
	if target == nil {
		return fmt.Errorf("unknown field %q in section [%s]", field, section)
	}

	if section == "store" && field == "backend" {
		switch value {
		case "memory", "file", "sqlite", "redis":
		default:
			return fmt.Errorf("store backend must be one of memory, file, sqlite, redis")
		}
	}
	if section == "upload" && field == "provider" {
		switch value {
		case "", "cloudinary", "gcs":
		default:
			return fmt.Errorf("upload provider must be cloudinary or gcs")
		}
	}
	*target = value
	return nil
}

// ============================================================================
// Root command
// ============================================================================

var jsonOutput bool

var rootCmd = &cobra.Command{
	Use:   "vikasyatra",
	Short: "VikasYatra offline cache and job CLI",
	Long: "Command-line interface for the VikasYatra SDK.\n" +
		"Sync the learner's profile, stats, dashboard and quizzes into a local cache,\n" +
		"inspect cache freshness, and run visual-generation and resume-analysis jobs.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print raw JSON output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
