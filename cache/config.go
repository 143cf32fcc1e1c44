/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package cache

import (
	"fmt"

	"code.cloudfoundry.org/bytefmt"

	"github.com/acronis/go-respcache/backend"
	"github.com/acronis/go-respcache/config"
	"github.com/acronis/go-respcache/store"
)

// Unbounded is the MaxSize value of a backend without capacity limit.
const Unbounded = -1

// BackendConfig holds the capacity policy of a single backend.
type BackendConfig struct {
	// MaxSize is the maximum number of entries, Unbounded means no limit.
	// Zero is a valid bound which keeps the backend empty while LRU is enabled.
	MaxSize int `mapstructure:"maxSize" yaml:"maxSize" json:"maxSize"`

	// EnableLRU turns eviction of the least recently used entries on insert on and off.
	// Disabling it keeps the existing entries and recency information.
	EnableLRU bool `mapstructure:"enableLRU" yaml:"enableLRU" json:"enableLRU"`
}

// DefaultBackendConfig returns an unbounded configuration with LRU eviction enabled.
func DefaultBackendConfig() BackendConfig {
	return BackendConfig{MaxSize: Unbounded, EnableLRU: true}
}

func (bc BackendConfig) validate() error {
	if bc.MaxSize < Unbounded {
		return fmt.Errorf("max size should be >= 0 or %d (unbounded), got %d", Unbounded, bc.MaxSize)
	}
	return nil
}

// bounded reports whether inserts must be followed by eviction down to MaxSize.
func (bc BackendConfig) bounded() bool {
	return bc.EnableLRU && bc.MaxSize != Unbounded
}

// Update is a partial change of BackendConfig, nil fields are left as is.
type Update struct {
	MaxSize   *int  `json:"maxSize,omitempty"`
	EnableLRU *bool `json:"enableLRU,omitempty"`
}

func (u Update) apply(bc BackendConfig) BackendConfig {
	if u.MaxSize != nil {
		bc.MaxSize = *u.MaxSize
	}
	if u.EnableLRU != nil {
		bc.EnableLRU = *u.EnableLRU
	}
	return bc
}

const cfgDefaultKeyPrefix = "cache"

const (
	cfgKeyNamespace              = "namespace"
	cfgKeyMemory                 = "memory"
	cfgKeyLocalPersistent        = "localPersistent"
	cfgKeySessionPersistent      = "sessionPersistent"
	cfgKeyMaxSize                = "maxSize"
	cfgKeyEnableLRU              = "enableLRU"
	cfgKeyLocalPersistentDir     = "localPersistent.dir"
	cfgKeySessionPersistentQuota = "sessionPersistent.quota"
)

// Default values.
const (
	DefaultNamespace               = "respcache"
	DefaultLocalPersistentDir      = "./data/respcache"
	DefaultSessionPersistentQuota  = 5 * bytefmt.MEGABYTE
	defaultSessionPersistentQuotaS = "5M"
)

// LocalPersistentConfig configures the file-backed local persistent backend.
type LocalPersistentConfig struct {
	BackendConfig `mapstructure:",squash" yaml:",inline"`
	Dir           string `mapstructure:"dir" yaml:"dir" json:"dir"`
}

// SessionPersistentConfig configures the session persistent backend which lives as long as the process.
type SessionPersistentConfig struct {
	BackendConfig `mapstructure:",squash" yaml:",inline"`
	Quota         config.ByteSize `mapstructure:"quota" yaml:"quota" json:"quota"`
}

// Config represents a set of configuration parameters for the cache.
// Configuration can be loaded in different formats (YAML, JSON) using config.Loader.
type Config struct {
	// Namespace is prepended to keys of persistent backends.
	Namespace         string                  `mapstructure:"namespace" yaml:"namespace" json:"namespace"`
	Memory            BackendConfig           `mapstructure:"memory" yaml:"memory" json:"memory"`
	LocalPersistent   LocalPersistentConfig   `mapstructure:"localPersistent" yaml:"localPersistent" json:"localPersistent"`
	SessionPersistent SessionPersistentConfig `mapstructure:"sessionPersistent" yaml:"sessionPersistent" json:"sessionPersistent"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates a new instance of the Config. An empty keyPrefix means "cache".
func NewConfig(keyPrefix string) *Config {
	return &Config{keyPrefix: keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Namespace:         DefaultNamespace,
		Memory:            DefaultBackendConfig(),
		LocalPersistent:   LocalPersistentConfig{BackendConfig: DefaultBackendConfig(), Dir: DefaultLocalPersistentDir},
		SessionPersistent: SessionPersistentConfig{BackendConfig: DefaultBackendConfig(), Quota: DefaultSessionPersistentQuota},
	}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
// Implements config.KeyPrefixProvider interface.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values for the cache in config.DataProvider.
// Implements config.Config interface.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyNamespace, DefaultNamespace)
	for _, b := range []string{cfgKeyMemory, cfgKeyLocalPersistent, cfgKeySessionPersistent} {
		dp.SetDefault(b+"."+cfgKeyMaxSize, Unbounded)
		dp.SetDefault(b+"."+cfgKeyEnableLRU, true)
	}
	dp.SetDefault(cfgKeyLocalPersistentDir, DefaultLocalPersistentDir)
	dp.SetDefault(cfgKeySessionPersistentQuota, defaultSessionPersistentQuotaS)
}

// Set sets cache configuration values from config.DataProvider.
// Implements config.Config interface.
func (c *Config) Set(dp config.DataProvider) error {
	var err error

	if c.Namespace, err = dp.GetString(cfgKeyNamespace); err != nil {
		return err
	}
	if c.Namespace == "" {
		return dp.WrapKeyErr(cfgKeyNamespace, fmt.Errorf("cannot be empty"))
	}
	if err = store.ValidateNamespace(c.Namespace); err != nil {
		return dp.WrapKeyErr(cfgKeyNamespace, err)
	}

	if err = setBackendConfig(dp, cfgKeyMemory, &c.Memory); err != nil {
		return err
	}

	if err = setBackendConfig(dp, cfgKeyLocalPersistent, &c.LocalPersistent.BackendConfig); err != nil {
		return err
	}
	if c.LocalPersistent.Dir, err = dp.GetString(cfgKeyLocalPersistentDir); err != nil {
		return err
	}
	if c.LocalPersistent.Dir == "" {
		return dp.WrapKeyErr(cfgKeyLocalPersistentDir, fmt.Errorf("cannot be empty"))
	}

	if err = setBackendConfig(dp, cfgKeySessionPersistent, &c.SessionPersistent.BackendConfig); err != nil {
		return err
	}
	if c.SessionPersistent.Quota, err = dp.GetByteSize(cfgKeySessionPersistentQuota); err != nil {
		return err
	}

	return nil
}

func setBackendConfig(dp config.DataProvider, prefix string, bc *BackendConfig) error {
	var err error
	maxSizeKey := prefix + "." + cfgKeyMaxSize
	if bc.MaxSize, err = dp.GetInt(maxSizeKey); err != nil {
		return err
	}
	if bc.MaxSize < Unbounded {
		return dp.WrapKeyErr(maxSizeKey, fmt.Errorf("should be >= 0 or %d (unbounded)", Unbounded))
	}
	if bc.EnableLRU, err = dp.GetBool(prefix + "." + cfgKeyEnableLRU); err != nil {
		return err
	}
	return nil
}

// BackendConfigs returns the standing configuration of every backend.
func (c *Config) BackendConfigs() map[backend.Backend]BackendConfig {
	return map[backend.Backend]BackendConfig{
		backend.Memory:            c.Memory,
		backend.LocalPersistent:   c.LocalPersistent.BackendConfig,
		backend.SessionPersistent: c.SessionPersistent.BackendConfig,
	}
}
