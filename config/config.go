// Package config defines this engine's configuration, loaded from a TOML
// file with CLI-flag overrides, using a layered mapstructure-tagged config
// pattern.
package config

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/bridgewatch/lightclient/errs"
)

const (
	defaultConfigFileName = "lightclient.toml"
	defaultPollInterval   = 10 * time.Second
	defaultTrustLevel     = 1.0 / 3.0
)

// Config is the top-level configuration for cmd/lightclientd and
// cmd/lcctl.
type Config struct {
	ChainName    string        `mapstructure:"chain_name"`
	RelayURL     string        `mapstructure:"relay_url"`
	StorePath    string        `mapstructure:"store_path"`
	TrustLevel   float64       `mapstructure:"trust_level"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	LogLevel     string        `mapstructure:"log_level"`
}

// DefaultConfig returns a configuration with every field set to a usable
// default except ChainName and RelayURL, which have no safe default and
// must be supplied by the caller.
func DefaultConfig() *Config {
	return &Config{
		StorePath:    "lightclient.db",
		TrustLevel:   defaultTrustLevel,
		PollInterval: defaultPollInterval,
		LogLevel:     "info",
	}
}

// Validate checks that every field required for the engine to start is
// present and well-formed.
func (c *Config) Validate() error {
	if c.ChainName == "" {
		return errs.InvalidConfig{Field: "chain_name", Reason: errEmpty}
	}
	if c.RelayURL == "" {
		return errs.InvalidConfig{Field: "relay_url", Reason: errEmpty}
	}
	if c.StorePath == "" {
		return errs.InvalidConfig{Field: "store_path", Reason: errEmpty}
	}
	if c.PollInterval <= 0 {
		return errs.InvalidConfig{Field: "poll_interval", Reason: errNotPositive}
	}
	switch c.LogLevel {
	case "debug", "info", "error":
	default:
		return errs.InvalidConfig{Field: "log_level", Reason: errUnknownLevel}
	}
	return nil
}

type configError string

func (e configError) Error() string { return string(e) }

const (
	errEmpty        configError = "must not be empty"
	errNotPositive  configError = "must be positive"
	errUnknownLevel configError = "must be one of debug, info, error"
)

// Load reads path (or defaultConfigFileName if path is empty) as TOML into
// a DefaultConfig, then lets any bound viper flags from v override fields
// the operator passed on the command line.
func Load(path string, v *viper.Viper) (*Config, error) {
	if path == "" {
		path = defaultConfigFileName
	}

	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, errs.InvalidConfig{Field: "file", Reason: errors.Wrap(err, "decoding "+path)}
	}

	if v != nil {
		applyOverrides(cfg, v)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyOverrides(cfg *Config, v *viper.Viper) {
	if v.IsSet("chain_name") {
		cfg.ChainName = v.GetString("chain_name")
	}
	if v.IsSet("relay_url") {
		cfg.RelayURL = v.GetString("relay_url")
	}
	if v.IsSet("store_path") {
		cfg.StorePath = v.GetString("store_path")
	}
	if v.IsSet("trust_level") {
		cfg.TrustLevel = v.GetFloat64("trust_level")
	}
	if v.IsSet("poll_interval") {
		cfg.PollInterval = v.GetDuration("poll_interval")
	}
	if v.IsSet("log_level") {
		cfg.LogLevel = v.GetString("log_level")
	}
}
