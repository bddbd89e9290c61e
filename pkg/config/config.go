package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath overrides the config file location.
const EnvConfigPath = "E8AUDIT_CONFIG"

type Config struct {
	ProfilesDir  string `yaml:"profiles_dir"`
	PlaybooksDir string `yaml:"playbooks_dir"`
	OutputFormat string `yaml:"output_format"`
	SnapshotPath string `yaml:"snapshot_path"`
	LogLevel     string `yaml:"log_level"`
	LogFormat    string `yaml:"log_format"`
	FailOn       string `yaml:"fail_on"` // priority; empty disables
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		ProfilesDir:  "profiles",
		PlaybooksDir: "playbooks",
		OutputFormat: "text",
		SnapshotPath: ".e8audit-snapshot.json",
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

func GetConfigPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".e8audit", "config.yaml"), nil
}

func LoadConfig() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. Fields missing from the file keep their
// default values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func SaveConfig(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

func SaveFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Keys lists the settable configuration keys
func Keys() []string {
	return []string{"profiles_dir", "playbooks_dir", "output_format", "snapshot_path", "log_level", "log_format", "fail_on"}
}

// Set assigns a value by its YAML key
func (c *Config) Set(key, value string) error {
	switch strings.ToLower(key) {
	case "profiles_dir":
		c.ProfilesDir = value
	case "playbooks_dir":
		c.PlaybooksDir = value
	case "output_format":
		c.OutputFormat = value
	case "snapshot_path":
		c.SnapshotPath = value
	case "log_level":
		c.LogLevel = value
	case "log_format":
		c.LogFormat = value
	case "fail_on":
		c.FailOn = value
	default:
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	return nil
}
