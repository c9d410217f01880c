// Package config loads and validates superpeer configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Defaults applied when a value is unset.
const (
	DefaultRegularCount = 100
	DefaultSuperCount   = 13
	DefaultPeerDivisor  = 20
	DefaultPeerPolicy   = "abandon"
	DefaultStore        = "memory"
	DefaultStepInterval = time.Second
	DefaultLogLevel     = "info"
)

var validate = validator.New()

// Config is the top-level configuration.
type Config struct {
	// RegularCount is the number of regular nodes.
	RegularCount int `json:"regular_count" yaml:"regular_count" validate:"gte=1"`

	// SuperCount is the number of super nodes.
	SuperCount int `json:"super_count" yaml:"super_count" validate:"gte=1"`

	// Peers contains peer-edge generation settings.
	Peers PeerConfig `json:"peers" yaml:"peers"`

	// Store selects the graph store backend.
	Store string `json:"store" yaml:"store" validate:"oneof=memory badger"`

	// Playback contains path playback settings.
	Playback PlaybackConfig `json:"playback" yaml:"playback"`

	LogLevel string `json:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
}

// PeerConfig contains peer-edge generation settings.
type PeerConfig struct {
	Divisor int    `json:"divisor" yaml:"divisor" validate:"gte=1"`
	Policy  string `json:"policy" yaml:"policy" validate:"oneof=abandon resample"`
	Seed    uint64 `json:"seed" yaml:"seed"`
}

// PlaybackConfig contains path playback settings.
type PlaybackConfig struct {
	StepInterval time.Duration `json:"step_interval" yaml:"step_interval" validate:"gte=0"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		RegularCount: DefaultRegularCount,
		SuperCount:   DefaultSuperCount,
		Peers: PeerConfig{
			Divisor: DefaultPeerDivisor,
			Policy:  DefaultPeerPolicy,
		},
		Store: DefaultStore,
		Playback: PlaybackConfig{
			StepInterval: DefaultStepInterval,
		},
		LogLevel: DefaultLogLevel,
	}
}

// ApplyDefaults fills every unset field. Each count is defaulted on its own,
// so setting only one of them keeps it and defaults the other.
func (c *Config) ApplyDefaults() {
	if c.RegularCount == 0 {
		c.RegularCount = DefaultRegularCount
	}
	if c.SuperCount == 0 {
		c.SuperCount = DefaultSuperCount
	}
	if c.Peers.Divisor == 0 {
		c.Peers.Divisor = DefaultPeerDivisor
	}
	if c.Peers.Policy == "" {
		c.Peers.Policy = DefaultPeerPolicy
	}
	if c.Store == "" {
		c.Store = DefaultStore
	}
	if c.Playback.StepInterval == 0 {
		c.Playback.StepInterval = DefaultStepInterval
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s fails %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Load reads a YAML config file. A missing file or empty path yields the
// defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML config data, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Write encodes the config as YAML.
func (c Config) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return enc.Close()
}
