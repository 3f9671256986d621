package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"southernrail/api"
)

const (
	envPrefix = "SOUTHERNRAIL_"

	defaultRows     = 10
	defaultInterval = 30 * time.Second
)

type Config struct {
	BaseURL     string      `yaml:"base_url"`
	AutoRefresh bool        `yaml:"auto_refresh"`
	Application Application `yaml:"application"`
	Redis       Redis       `yaml:"redis"`
	Board       Board       `yaml:"board"`
}

type Application struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// Redis is optional. The shared station cache is only used when Address is set.
type Redis struct {
	Address    string        `yaml:"address"`
	Password   string        `yaml:"password"`
	Database   int           `yaml:"database"`
	Expiration time.Duration `yaml:"expiration"`
}

type Board struct {
	From     string        `yaml:"from"`
	To       string        `yaml:"to"`
	Rows     int           `yaml:"rows"`
	Interval time.Duration `yaml:"interval"`
}

func Default() *Config {
	return &Config{
		BaseURL: api.DefaultBaseURL,
		Application: Application{
			Name:    api.DefaultAppName,
			Version: api.DefaultAppVersion,
		},
		Redis: Redis{
			Expiration: 90 * time.Minute,
		},
		Board: Board{
			Rows:     defaultRows,
			Interval: defaultInterval,
		},
	}
}

// DefaultPath is config.yaml under the user config directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}

	return filepath.Join(dir, "southernrail", "config.yaml")
}

// Load reads the YAML file at path on top of the defaults and applies the
// SOUTHERNRAIL_* environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			defer f.Close()

			decoder := yaml.NewDecoder(f)
			if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnvironment(environmentVariables()); err != nil {
		return nil, err
	}

	// Zero or negative values in the file mean "use the default".
	if cfg.Board.Rows <= 0 {
		cfg.Board.Rows = defaultRows
	}
	if cfg.Board.Interval <= 0 {
		cfg.Board.Interval = defaultInterval
	}

	return cfg, nil
}

func environmentVariables() map[string]string {
	env := map[string]string{}

	for _, variable := range os.Environ() {
		pair := strings.SplitN(variable, "=", 2)
		if len(pair) == 2 && strings.HasPrefix(pair[0], envPrefix) {
			env[strings.TrimPrefix(pair[0], envPrefix)] = pair[1]
		}
	}

	return env
}

func (c *Config) applyEnvironment(env map[string]string) error {
	if env["BASE_URL"] != "" {
		c.BaseURL = env["BASE_URL"]
	}

	if env["AUTO_REFRESH"] != "" {
		c.AutoRefresh = isYes(env["AUTO_REFRESH"])
	}

	if env["APP_NAME"] != "" {
		c.Application.Name = env["APP_NAME"]
	}

	if env["APP_VERSION"] != "" {
		c.Application.Version = env["APP_VERSION"]
	}

	if env["REDIS_ADDRESS"] != "" {
		c.Redis.Address = env["REDIS_ADDRESS"]
	}

	if env["REDIS_PASSWORD"] != "" {
		c.Redis.Password = env["REDIS_PASSWORD"]
	}

	if env["REDIS_DATABASE"] != "" {
		n, err := strconv.Atoi(env["REDIS_DATABASE"])
		if err != nil {
			return fmt.Errorf("invalid %sREDIS_DATABASE: %w", envPrefix, err)
		}
		c.Redis.Database = n
	}

	return nil
}

func isYes(value string) bool {
	switch strings.ToUpper(value) {
	case "YES", "TRUE", "1":
		return true
	}

	return false
}
