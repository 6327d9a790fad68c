package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type ToolsConfig struct {
	Git string `yaml:"git"`
	P4  string `yaml:"p4"`
	Svn string `yaml:"svn"`
}

// ClassifiersConfig extends the built-in "no usable history here" substring
// lists. These lists are tool-version-dependent, so they are kept as
// maintained data rather than hard-coded logic; entries here are matched in
// addition to the defaults.
type ClassifiersConfig struct {
	Git        []string `yaml:"git,omitempty"`
	Perforce   []string `yaml:"perforce,omitempty"`
	Subversion []string `yaml:"subversion,omitempty"`
}

type Config struct {
	Tools       ToolsConfig       `yaml:"tools"`
	Classifiers ClassifiersConfig `yaml:"classifiers,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Tools: ToolsConfig{
			Git: "git",
			P4:  "p4",
			Svn: "svn",
		},
	}
}

// ConfigPath returns the user-level config file location.
func ConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "revlog", "config.yaml"), nil
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Tools.Git == "" {
		cfg.Tools.Git = "git"
	}
	if cfg.Tools.P4 == "" {
		cfg.Tools.P4 = "p4"
	}
	if cfg.Tools.Svn == "" {
		cfg.Tools.Svn = "svn"
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}
