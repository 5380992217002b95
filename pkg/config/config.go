// Package config loads essctl settings from a YAML file, ESS_* environment
// variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/lgess-community/ess-go/pkg/discovery"
	"github.com/lgess-community/ess-go/pkg/esserr"
	"github.com/lgess-community/ess-go/pkg/session"
)

// File lookup.
const (
	EnvPrefix = "ESS"
	FileName  = "essctl"
	FileType  = "yaml"
	HomeDir   = ".essctl"
)

// Config holds every essctl setting.
type Config struct {
	Name               string        `mapstructure:"name" yaml:"name"`
	Password           string        `mapstructure:"password" yaml:"password"`
	Address            string        `mapstructure:"address" yaml:"address"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	Timeout            time.Duration `mapstructure:"timeout" yaml:"timeout"`

	Retry     RetryConfig     `mapstructure:"retry" yaml:"retry"`
	Discovery DiscoveryConfig `mapstructure:"discovery" yaml:"discovery"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

// RetryConfig mirrors session.RetryPolicy.
type RetryConfig struct {
	MaxRetries int           `mapstructure:"max_retries" yaml:"max_retries"`
	Step       time.Duration `mapstructure:"step" yaml:"step"`
	MaxDelay   time.Duration `mapstructure:"max_delay" yaml:"max_delay"`
}

// DiscoveryConfig configures the mDNS browser.
type DiscoveryConfig struct {
	Interface      string        `mapstructure:"interface" yaml:"interface"`
	ResolveTimeout time.Duration `mapstructure:"resolve_timeout" yaml:"resolve_timeout"`
	ListenWindow   time.Duration `mapstructure:"listen_window" yaml:"listen_window"`
}

// RateLimitConfig limits requests per second. PerSecond 0 disables limiting.
type RateLimitConfig struct {
	PerSecond float64 `mapstructure:"per_second" yaml:"per_second"`
	Burst     int     `mapstructure:"burst" yaml:"burst"`
}

// LogConfig selects the log level and the optional protocol log file.
type LogConfig struct {
	Level        string `mapstructure:"level" yaml:"level"`
	ProtocolFile string `mapstructure:"protocol_file" yaml:"protocol_file"`
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("name", "")
	v.SetDefault("password", "")
	v.SetDefault("address", "")
	v.SetDefault("insecure_skip_verify", true)
	v.SetDefault("timeout", session.DefaultTimeout)
	v.SetDefault("retry.max_retries", session.DefaultMaxRetries)
	v.SetDefault("retry.step", session.DefaultRetryStep)
	v.SetDefault("retry.max_delay", session.DefaultMaxDelay)
	v.SetDefault("discovery.interface", "")
	v.SetDefault("discovery.resolve_timeout", discovery.ResolveTimeout)
	v.SetDefault("discovery.listen_window", discovery.ListenWindow)
	v.SetDefault("rate_limit.per_second", 0.0)
	v.SetDefault("rate_limit.burst", 1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.protocol_file", "")
}

// Load reads file, or essctl.yaml from the working directory and
// $HOME/.essctl when file is empty, and returns the validated result.
// A missing default file is not an error; a missing explicit file is.
func Load(v *viper.Viper, file string) (*Config, error) {
	const op = "load config"

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType(FileType)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, HomeDir))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, esserr.InvalidArgument(op, fmt.Errorf("read config: %w", err))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, esserr.InvalidArgument(op, fmt.Errorf("decode config: %w", err))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and the device name.
func (c *Config) Validate() error {
	var errs []error
	if c.Name != "" {
		if err := discovery.ValidateName(discovery.DeviceName(c.Name)); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if err := c.RetryPolicy().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Discovery.ResolveTimeout <= 0 {
		errs = append(errs, fmt.Errorf("discovery.resolve_timeout must be positive, got %s", c.Discovery.ResolveTimeout))
	}
	if c.Discovery.ListenWindow <= 0 {
		errs = append(errs, fmt.Errorf("discovery.listen_window must be positive, got %s", c.Discovery.ListenWindow))
	}
	if c.RateLimit.PerSecond < 0 {
		errs = append(errs, fmt.Errorf("rate_limit.per_second must be >= 0, got %v", c.RateLimit.PerSecond))
	}
	if c.RateLimit.PerSecond > 0 && c.RateLimit.Burst <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit.burst must be positive, got %d", c.RateLimit.Burst))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return esserr.InvalidArgument("validate config", errors.Join(errs...))
	}
	return nil
}

// RetryPolicy returns the configured session retry policy.
func (c *Config) RetryPolicy() session.RetryPolicy {
	return session.RetryPolicy{
		MaxRetries: c.Retry.MaxRetries,
		Step:       c.Retry.Step,
		MaxDelay:   c.Retry.MaxDelay,
	}
}

// BrowserConfig returns the discovery settings.
func (c *Config) BrowserConfig() discovery.BrowserConfig {
	bc := discovery.DefaultBrowserConfig()
	bc.Interface = c.Discovery.Interface
	bc.ResolveTimeout = c.Discovery.ResolveTimeout
	bc.ListenWindow = c.Discovery.ListenWindow
	return bc
}

// SessionOptions returns the session options implied by the config.
func (c *Config) SessionOptions() []session.Option {
	opts := []session.Option{
		session.WithInsecureSkipVerify(c.InsecureSkipVerify),
		session.WithTimeout(c.Timeout),
		session.WithRetryPolicy(c.RetryPolicy()),
	}
	if c.RateLimit.PerSecond > 0 {
		opts = append(opts, session.WithRateLimit(rate.Limit(c.RateLimit.PerSecond), c.RateLimit.Burst))
	}
	return opts
}

// ParseLevel maps a level name to an slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}
