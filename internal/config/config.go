// Package config loads the household configuration from YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fentz26/hogar/internal/board"
	"github.com/fentz26/hogar/internal/models"
	"github.com/fentz26/hogar/internal/roster"
	"github.com/fentz26/hogar/internal/scheduler"
	"github.com/fentz26/hogar/internal/store"
)

// EnvPath overrides the config file location.
const EnvPath = "HOGAR_CONFIG"

// Config holds the daemon configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`
	// LogLevel is a logrus level name: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// Storage selects the task store backend.
	Storage store.Options `yaml:"storage"`
	// Policy tunes release refunds and reset replenishment.
	Policy board.Policy `yaml:"policy"`
	// Timeslots are the windows a task may be claimed for, in display order.
	Timeslots []string `yaml:"timeslots"`
	// Roster is the closed list of users.
	Roster []roster.Member `yaml:"roster"`
	// Scheduler configures the automatic daily reset.
	Scheduler scheduler.Config `yaml:"scheduler"`
}

// Dir returns ~/.hogar, or .hogar when the home directory is unknown.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hogar"
	}
	return filepath.Join(home, ".hogar")
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Listen:   "127.0.0.1:7466",
		LogLevel: "info",
		Storage: store.Options{
			Driver: store.DriverSQLite,
			Path:   filepath.Join(Dir(), "hogar.db"),
		},
		Policy:    board.DefaultPolicy(),
		Timeslots: []string{"Mañana", "Mediodía", "Tarde", "Noche"},
		Roster:    roster.Default(),
		Scheduler: scheduler.DefaultConfig(),
	}
}

// LoadConfig loads configuration from a YAML file. A missing file yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Path returns $HOGAR_CONFIG or ~/.hogar/config.yaml.
func Path() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return filepath.Join(Dir(), "config.yaml")
}

// LoadConfigFromHome loads the config at Path().
func LoadConfigFromHome() (*Config, error) {
	return LoadConfig(Path())
}

// SaveConfig saves configuration to a YAML file, creating parent directories if needed.
func SaveConfig(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks the configuration and canonicalises audience names so
// that legacy spellings such as "Hijos" are accepted.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Listen) == "" {
		return fmt.Errorf("listen address is required")
	}

	switch c.Storage.Driver {
	case store.DriverSQLite, store.DriverFile:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for driver %s", c.Storage.Driver)
		}
	case store.DriverRedis:
		if c.Storage.RedisURL == "" {
			return fmt.Errorf("storage.redis_url is required for driver redis")
		}
	default:
		return fmt.Errorf("invalid storage driver %q, must be: sqlite, file, or redis", c.Storage.Driver)
	}

	if len(c.Timeslots) == 0 {
		return fmt.Errorf("at least one timeslot is required")
	}
	seen := make(map[string]bool, len(c.Timeslots))
	for i, s := range c.Timeslots {
		s = strings.TrimSpace(s)
		if models.Slot(s).IsNone() {
			return fmt.Errorf("timeslot %d is blank", i+1)
		}
		if seen[strings.ToLower(s)] {
			return fmt.Errorf("duplicate timeslot %q", s)
		}
		seen[strings.ToLower(s)] = true
		c.Timeslots[i] = s
	}

	if len(c.Roster) == 0 {
		return fmt.Errorf("roster is empty")
	}
	for i := range c.Roster {
		aud, err := models.ParseAudience(string(c.Roster[i].Audience))
		if err != nil {
			return fmt.Errorf("roster member %s: %w", c.Roster[i].Name, err)
		}
		c.Roster[i].Audience = aud
	}
	r, err := roster.New(c.Roster)
	if err != nil {
		return err
	}

	if err := c.Scheduler.Validate(); err != nil {
		return err
	}
	if c.Scheduler.Enabled() {
		m, err := r.Lookup(c.Scheduler.Actor)
		if err != nil {
			return fmt.Errorf("scheduler.actor: %w", err)
		}
		if !m.Admin {
			return fmt.Errorf("scheduler.actor %s is not an admin", m.Name)
		}
	}

	return nil
}

// BuildRoster returns the validated roster.
func (c *Config) BuildRoster() (*roster.Roster, error) {
	return roster.New(c.Roster)
}
