// Package config holds the settings of the sheetctl command-line client.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/sheetkeeper/internal/timex"
)

// Config holds runtime settings for the CLI.
//
// Fields:
//   - ServerURL: base URL of the SheetKeeper API.
//   - Token: access token overriding the saved session.
//   - SessionPath: SQLite file holding the saved login.
//   - Timeout: per-request HTTP timeout.
type Config struct {
	ServerURL   string
	Token       string
	SessionPath string
	Timeout     time.Duration
}

// Environment variables read by LoadConfig.
const (
	EnvServerURL   = "SHEETKEEPER_URL"
	EnvToken       = "SHEETKEEPER_TOKEN"
	EnvSessionPath = "SHEETKEEPER_SESSION"
)

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:3001"
	c.SessionPath = defaultSessionPath()
	c.Timeout = 10 * time.Second
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "sheetctl-session.db"
	}
	return filepath.Join(dir, "sheetkeeper", "session.db")
}

// JsonConfig is the on-disk shape of the config file.
type JsonConfig struct {
	ServerURL   string         `json:"server_url"`
	SessionPath string         `json:"session_path"`
	Timeout     timex.Duration `json:"timeout"`
}

// lookupEnv is a seam for tests.
var lookupEnv = os.LookupEnv

// LoadConfig builds a Config from defaults, the JSON file named by -c, the
// environment and the global flags, in that order. Parsing stops at the first
// non-flag argument; that argument and the rest are returned as the command.
func LoadConfig(args []string) (*Config, []string, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	fs := flag.NewFlagSet("sheetctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	file := fs.String("c", "", "path to JSON config file")
	url := fs.String("a", "", "server base URL")
	token := fs.String("t", "", "access token")
	session := fs.String("s", "", "session database path")
	timeout := fs.Duration("timeout", 0, "request timeout")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	if *file != "" {
		if err := parseJson(cfg, *file); err != nil {
			return nil, nil, err
		}
	}

	if v, ok := lookupEnv(EnvServerURL); ok && v != "" {
		cfg.ServerURL = v
	}
	if v, ok := lookupEnv(EnvToken); ok && v != "" {
		cfg.Token = v
	}
	if v, ok := lookupEnv(EnvSessionPath); ok && v != "" {
		cfg.SessionPath = v
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "a":
			cfg.ServerURL = *url
		case "t":
			cfg.Token = *token
		case "s":
			cfg.SessionPath = *session
		case "timeout":
			cfg.Timeout = *timeout
		}
	})

	if cfg.ServerURL == "" {
		return nil, nil, errors.New("server URL is required")
	}
	return cfg, fs.Args(), nil
}

func parseJson(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.SessionPath != "" {
		cfg.SessionPath = jc.SessionPath
	}
	if jc.Timeout.Duration != 0 {
		cfg.Timeout = jc.Timeout.Duration
	}
	return nil
}
