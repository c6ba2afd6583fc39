// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Services     ServicesConfig     `mapstructure:"services"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Reconcile    ReconcileConfig    `mapstructure:"reconcile"`
	Signals      SignalsConfig      `mapstructure:"signals"`
	Admin        AdminConfig        `mapstructure:"admin"`
	Registration RegistrationConfig `mapstructure:"registration"`
}

// ServicesConfig holds the endpoints of the two remote collaborator services.
type ServicesConfig struct {
	AuthURL      string        `mapstructure:"auth_url"`
	DirectoryURL string        `mapstructure:"directory_url"`
	HTTPTimeout  time.Duration `mapstructure:"http_timeout"`
}

// StorageConfig holds the durable local store configuration.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// ReconcileConfig holds the reconciliation loop configuration.
type ReconcileConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// SignalsConfig holds per-channel signal generation configuration.
type SignalsConfig struct {
	Standard ChannelConfig `mapstructure:"standard"`
	Premium  ChannelConfig `mapstructure:"premium"`
}

// ChannelConfig holds configuration for a single signal channel.
type ChannelConfig struct {
	CooldownSeconds int `mapstructure:"cooldown_seconds"`
}

// AdminConfig holds the admin login configuration. The reserved username
// routes authentication to the directory service instead of the auth service.
type AdminConfig struct {
	Username string `mapstructure:"username"`
}

// RegistrationConfig holds the local registration cap. The cap is advisory
// only and not enforced server-side.
type RegistrationConfig struct {
	MaxAccounts int `mapstructure:"max_accounts"`
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Enable environment variable override
	// e.g. SERVICES_AUTH_URL, RECONCILE_POLL_INTERVAL
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional - env vars can provide all config)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - we can use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("services.http_timeout", "10s")

	v.SetDefault("storage.path", "signals.db")

	v.SetDefault("reconcile.poll_interval", "5s")

	v.SetDefault("signals.standard.cooldown_seconds", 60)
	v.SetDefault("signals.premium.cooldown_seconds", 60)

	v.SetDefault("admin.username", "admin345")

	v.SetDefault("registration.max_accounts", 2)
}

// IsAdminUsername reports whether a username is the reserved admin login.
func (c *Config) IsAdminUsername(username string) bool {
	return c.Admin.Username != "" && username == c.Admin.Username
}
