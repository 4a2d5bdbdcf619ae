package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dotcommander/sitecms/internal/logging"
)

// ConfigFiles are looked up, in order, in the working directory and then in
// the explicit site root.
var ConfigFiles = []string{".sitecmsrc.json", ".sitecmsrc.yaml", ".sitecmsrc.yml"}

// Config represents the sitecms configuration
type Config struct {
	Root           string         `mapstructure:"root" json:"root"`
	FollowSymlinks bool           `mapstructure:"followSymlinks" json:"followSymlinks"`
	Format         string         `mapstructure:"format" json:"format"`
	Output         string         `mapstructure:"output" json:"output,omitempty"`
	FailOn         string         `mapstructure:"failOn" json:"failOn"`
	Quiet          bool           `mapstructure:"quiet" json:"quiet"`
	Verbose        bool           `mapstructure:"verbose" json:"verbose"`
	LogLevel       string         `mapstructure:"logLevel" json:"logLevel"`
	LogFormat      string         `mapstructure:"logFormat" json:"logFormat"`
	Server         ServerConfig   `mapstructure:"server" json:"server"`
	Markdown       MarkdownConfig `mapstructure:"markdown" json:"markdown"`
}

// ServerConfig contains settings for the content API
type ServerConfig struct {
	Addr     string        `mapstructure:"addr" json:"addr"`
	Watch    bool          `mapstructure:"watch" json:"watch"`
	Debounce time.Duration `mapstructure:"debounce" json:"debounce"`
}

// MarkdownConfig contains body rendering options
type MarkdownConfig struct {
	Unsafe    bool `mapstructure:"unsafe" json:"unsafe"`
	HardWraps bool `mapstructure:"hardWraps" json:"hardWraps"`
}

// LoadConfig loads configuration from defaults, config file, environment and
// the explicit root override, in increasing precedence.
func LoadConfig(rootPath string) (*Config, error) {
	viper.SetDefault("root", ".")
	viper.SetDefault("format", "console")
	viper.SetDefault("failOn", "error")
	viper.SetDefault("followSymlinks", false)
	viper.SetDefault("quiet", false)
	viper.SetDefault("verbose", false)
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logFormat", "console")
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.watch", true)
	viper.SetDefault("server.debounce", "250ms")
	viper.SetDefault("markdown.unsafe", false)
	viper.SetDefault("markdown.hardWraps", true)

	if path := findConfigFile(rootPath); path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	viper.SetEnvPrefix("SITECMS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if rootPath != "" {
		config.Root = rootPath
	}
	if abs, err := filepath.Abs(config.Root); err == nil {
		config.Root = abs
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func findConfigFile(rootPath string) string {
	dirs := []string{"."}
	if rootPath != "" {
		dirs = append(dirs, rootPath)
	}
	for _, dir := range dirs {
		for _, name := range ConfigFiles {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.Format != "console" && config.Format != "json" && config.Format != "markdown" {
		return fmt.Errorf("invalid format: %s. Must be 'console', 'json', or 'markdown'", config.Format)
	}

	if config.FailOn != "error" && config.FailOn != "warning" && config.FailOn != "suggestion" {
		return fmt.Errorf("invalid fail-on level: %s. Must be 'error', 'warning', or 'suggestion'", config.FailOn)
	}

	if _, err := logging.ParseLevel(config.LogLevel); err != nil {
		return err
	}

	if config.LogFormat != "console" && config.LogFormat != "json" {
		return fmt.Errorf("invalid log format: %s. Must be 'console' or 'json'", config.LogFormat)
	}

	if config.Server.Debounce <= 0 {
		return fmt.Errorf("server debounce must be positive")
	}

	if config.Format != "console" && config.Output == "" {
		return fmt.Errorf("output file is required when format is not 'console'")
	}

	return nil
}

// SaveConfig saves the current configuration to a file
func SaveConfig(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	jsonData, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}
