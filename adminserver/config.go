/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package adminserver

import (
	"fmt"
	"time"

	"github.com/acronis/go-respcache/config"
)

const cfgDefaultKeyPrefix = "admin"

const (
	cfgKeyEnabled            = "enabled"
	cfgKeyAddress            = "address"
	cfgKeyPProf              = "pprof"
	cfgKeyTimeoutsWrite      = "timeouts.write"
	cfgKeyTimeoutsRead       = "timeouts.read"
	cfgKeyTimeoutsReadHeader = "timeouts.readHeader"
	cfgKeyTimeoutsIdle       = "timeouts.idle"
	cfgKeyTimeoutsShutdown   = "timeouts.shutdown"
)

// Default values.
const (
	DefaultAddress            = ":8090"
	DefaultTimeoutsWrite      = 30 * time.Second
	DefaultTimeoutsRead       = 15 * time.Second
	DefaultTimeoutsReadHeader = 10 * time.Second
	DefaultTimeoutsIdle       = time.Minute
	DefaultTimeoutsShutdown   = 5 * time.Second
)

// TimeoutsConfig represents a set of configuration parameters for HTTP server timeouts.
type TimeoutsConfig struct {
	Write      time.Duration `mapstructure:"write" yaml:"write" json:"write"`
	Read       time.Duration `mapstructure:"read" yaml:"read" json:"read"`
	ReadHeader time.Duration `mapstructure:"readHeader" yaml:"readHeader" json:"readHeader"`
	Idle       time.Duration `mapstructure:"idle" yaml:"idle" json:"idle"`
	Shutdown   time.Duration `mapstructure:"shutdown" yaml:"shutdown" json:"shutdown"`
}

// Config represents a set of configuration parameters for the admin HTTP server.
type Config struct {
	Enabled  bool           `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Address  string         `mapstructure:"address" yaml:"address" json:"address"`
	PProf    bool           `mapstructure:"pprof" yaml:"pprof" json:"pprof"`
	Timeouts TimeoutsConfig `mapstructure:"timeouts" yaml:"timeouts" json:"timeouts"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates a new instance of the Config. An empty keyPrefix means "admin".
func NewConfig(keyPrefix string) *Config {
	return &Config{keyPrefix: keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Enabled: true,
		Address: DefaultAddress,
		Timeouts: TimeoutsConfig{
			Write:      DefaultTimeoutsWrite,
			Read:       DefaultTimeoutsRead,
			ReadHeader: DefaultTimeoutsReadHeader,
			Idle:       DefaultTimeoutsIdle,
			Shutdown:   DefaultTimeoutsShutdown,
		},
	}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values for the admin server in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyEnabled, true)
	dp.SetDefault(cfgKeyAddress, DefaultAddress)
	dp.SetDefault(cfgKeyPProf, false)
	dp.SetDefault(cfgKeyTimeoutsWrite, DefaultTimeoutsWrite.String())
	dp.SetDefault(cfgKeyTimeoutsRead, DefaultTimeoutsRead.String())
	dp.SetDefault(cfgKeyTimeoutsReadHeader, DefaultTimeoutsReadHeader.String())
	dp.SetDefault(cfgKeyTimeoutsIdle, DefaultTimeoutsIdle.String())
	dp.SetDefault(cfgKeyTimeoutsShutdown, DefaultTimeoutsShutdown.String())
}

// Set sets admin server configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	var err error
	if c.Enabled, err = dp.GetBool(cfgKeyEnabled); err != nil {
		return err
	}
	if c.Address, err = dp.GetString(cfgKeyAddress); err != nil {
		return err
	}
	if c.Enabled && c.Address == "" {
		return dp.WrapKeyErr(cfgKeyAddress, fmt.Errorf("cannot be empty"))
	}
	if c.PProf, err = dp.GetBool(cfgKeyPProf); err != nil {
		return err
	}

	for _, t := range []struct {
		key string
		dst *time.Duration
	}{
		{cfgKeyTimeoutsWrite, &c.Timeouts.Write},
		{cfgKeyTimeoutsRead, &c.Timeouts.Read},
		{cfgKeyTimeoutsReadHeader, &c.Timeouts.ReadHeader},
		{cfgKeyTimeoutsIdle, &c.Timeouts.Idle},
		{cfgKeyTimeoutsShutdown, &c.Timeouts.Shutdown},
	} {
		if *t.dst, err = dp.GetDuration(t.key); err != nil {
			return err
		}
		if *t.dst < 0 {
			return dp.WrapKeyErr(t.key, fmt.Errorf("cannot be negative"))
		}
	}
	return nil
}
