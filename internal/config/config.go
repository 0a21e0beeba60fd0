package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the journal directory.
const FileName = "invjournal.yaml"

// Environment variables that override the config file.
const (
	EnvHost     = "INVJOURNAL_HOST"
	EnvPort     = "INVJOURNAL_PORT"
	EnvFile     = "INVJOURNAL_FILE"
	EnvLogLevel = "INVJOURNAL_LOG_LEVEL"
)

// Config represents the top-level invjournal.yaml configuration.
type Config struct {
	Journal JournalConfig `yaml:"journal"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Git     GitConfig     `yaml:"git"`
}

// JournalConfig locates the backing file.
type JournalConfig struct {
	Title       string `yaml:"title"`
	File        string `yaml:"file"`         // relative paths resolve against the config directory
	ActivityLog bool   `yaml:"activity_log"` // append add/delete actions to logs/activity-log.csv
}

// ServerConfig controls the local HTTP listener.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LogConfig controls application logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// GitConfig controls git history of the backing file.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads an invjournal.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadDir reads <dir>/invjournal.yaml, falling back to defaults when the file
// does not exist, then applies environment overrides and resolves the journal
// file against dir.
func LoadDir(dir string) (*Config, error) {
	cfg, err := Load(filepath.Join(dir, FileName))
	if errors.Is(err, fs.ErrNotExist) {
		cfg = Default()
	} else if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if !filepath.IsAbs(cfg.Journal.File) {
		cfg.Journal.File = filepath.Join(dir, cfg.Journal.File)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new journal.
func Default() *Config {
	return &Config{
		Journal: JournalConfig{
			Title:       "Investment Journal",
			File:        "journal.yaml",
			ActivityLog: true,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8050,
		},
		Log: LogConfig{
			Level: "info",
		},
		Git: GitConfig{
			AutoCommit:  false,
			AuthorName:  "Investment Journal",
			AuthorEmail: "journal@localhost",
		},
	}
}

// ApplyEnv overrides fields from environment variables looked up with lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvHost); ok && v != "" {
		c.Server.Host = v
	}
	if v, ok := lookup(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 0 || port > 65535 {
			return fmt.Errorf("invalid %s %q", EnvPort, v)
		}
		c.Server.Port = port
	}
	if v, ok := lookup(EnvFile); ok && v != "" {
		c.Journal.File = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	return nil
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}
