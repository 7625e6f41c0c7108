package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/betclient/internal/client/session"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "BETCLIENT"

// SessionConfig mirrors session.Config with file/env friendly names.
type SessionConfig struct {
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
	MaxRetryWait   time.Duration `mapstructure:"max_retry_wait"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	PreemptiveLead time.Duration `mapstructure:"preemptive_lead"`
	TokenLifetime  time.Duration `mapstructure:"token_lifetime"`
}

// Config holds runtime settings for the betclient CLI.
type Config struct {
	// BaseURL is the backend root, e.g. https://bets.example.com.
	BaseURL string `mapstructure:"base_url"`
	// DataDir holds the local database. "~/" is expanded.
	DataDir string `mapstructure:"data_dir"`
	DBFile  string `mapstructure:"db_file"`
	// RequestTimeout bounds a single HTTP exchange.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	LogLevel       string        `mapstructure:"log_level"`
	LogFormat      string        `mapstructure:"log_format"`

	Session SessionConfig `mapstructure:"session"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	s := session.DefaultConfig()

	c.BaseURL = "http://127.0.0.1:8080"
	c.DataDir = "~/.betclient"
	c.DBFile = "betclient.db"
	c.RequestTimeout = 15 * time.Second
	c.LogLevel = "warn"
	c.LogFormat = "text"
	c.Session = SessionConfig{
		MaxRetries:     s.MaxRetries,
		RetryBaseDelay: s.RetryBaseDelay,
		MaxRetryWait:   s.MaxRetryWait,
		IdleTimeout:    s.IdleTimeout,
		PreemptiveLead: s.PreemptiveLead,
		TokenLifetime:  s.TokenLifetime,
	}
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.StringP("config", "c", "", "path to a JSON or YAML config file")
	fs.StringP("base-url", "a", d.BaseURL, "backend base URL")
	fs.String("data-dir", d.DataDir, "directory for local state")
	fs.Duration("request-timeout", d.RequestTimeout, "timeout of a single HTTP request")
	fs.String("log-level", d.LogLevel, "log level: debug, info, warn, error")
	fs.String("log-format", d.LogFormat, "log format: text or json")
}

var flagKeys = map[string]string{
	"base-url":        "base_url",
	"data-dir":        "data_dir",
	"request-timeout": "request_timeout",
	"log-level":       "log_level",
	"log-format":      "log_format",
}

// Load builds a Config from, lowest precedence first: defaults, the config
// file named by --config or BETCLIENT_CONFIG, BETCLIENT_* environment
// variables and flags set on fs. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	var d Config
	d.LoadDefaults()
	v.SetDefault("base_url", d.BaseURL)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("db_file", d.DBFile)
	v.SetDefault("request_timeout", d.RequestTimeout)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("session.max_retries", d.Session.MaxRetries)
	v.SetDefault("session.retry_base_delay", d.Session.RetryBaseDelay)
	v.SetDefault("session.max_retry_wait", d.Session.MaxRetryWait)
	v.SetDefault("session.idle_timeout", d.Session.IdleTimeout)
	v.SetDefault("session.preemptive_lead", d.Session.PreemptiveLead)
	v.SetDefault("session.token_lifetime", d.Session.TokenLifetime)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("config: bind flag %s: %w", name, err)
				}
			}
		}
		if f := fs.Lookup("config"); f != nil && f.Changed {
			v.Set("config", f.Value.String())
		}
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: base_url must be an absolute http(s) URL, got %q", c.BaseURL)
	}
	if c.DataDir == "" || c.DBFile == "" {
		return fmt.Errorf("config: data_dir and db_file must be set")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("config: request_timeout must be positive")
	}
	if err := c.RefreshConfig().Validate(); err != nil {
		return fmt.Errorf("config: session: %w", err)
	}
	return nil
}

// RefreshConfig returns the session refresh policy.
func (c *Config) RefreshConfig() session.Config {
	return session.Config{
		MaxRetries:     c.Session.MaxRetries,
		RetryBaseDelay: c.Session.RetryBaseDelay,
		MaxRetryWait:   c.Session.MaxRetryWait,
		IdleTimeout:    c.Session.IdleTimeout,
		PreemptiveLead: c.Session.PreemptiveLead,
		TokenLifetime:  c.Session.TokenLifetime,
	}
}
