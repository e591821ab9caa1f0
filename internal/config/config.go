package config

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "FNADAPTER"

type Config struct {
	InvocationID string // unique per process, attached to every log line
	LogLevel     string
	LogFormat    string // "json" or "console"

	ScreenEnabled bool   // scan string params for secrets before calling
	ScreenRules   string // gitleaks TOML rules file; empty uses the gitleaks defaults

	ServerHost string
	ServerPort int
}

// flag name -> config key
var flagKeys = map[string]string{
	"log-level":    "log.level",
	"log-format":   "log.format",
	"screen":       "screen.enabled",
	"screen-rules": "screen.rules",
	"host":         "server.host",
	"port":         "server.port",
}

// AddFlags defines the flags shared by every adapter command.
func AddFlags(fs *pflag.FlagSet) {
	AddLogFlags(fs)
	fs.Bool("screen", false, "reject params that contain secrets")
	fs.String("screen-rules", "", "gitleaks rules file used by --screen")
}

// AddLogFlags defines the config file and logging flags.
func AddLogFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (json, yaml or toml)")
	fs.String("log-level", "warn", "log level: debug, info, warn, error, disabled")
	fs.String("log-format", "json", "log format: json or console")
}

// AddServerFlags defines the flags of the HTTP mode.
func AddServerFlags(fs *pflag.FlagSet) {
	fs.String("host", "", "address to bind")
	fs.Int("port", 11435, "port to listen on; 0 picks a free port")
}

// New returns a viper instance reading, in priority order, the flags in fs,
// FNADAPTER_* environment variables, the --config file and defaults.
func New(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "json")
	v.SetDefault("screen.enabled", false)
	v.SetDefault("screen.rules", "")
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 11435)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}

	if f := fs.Lookup("config"); f != nil && f.Value.String() != "" {
		v.SetConfigFile(f.Value.String())
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return v, nil
}

// Load builds a validated Config from v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		InvocationID:  uuid.NewString(),
		LogLevel:      strings.ToLower(v.GetString("log.level")),
		LogFormat:     strings.ToLower(v.GetString("log.format")),
		ScreenEnabled: v.GetBool("screen.enabled"),
		ScreenRules:   v.GetString("screen.rules"),
		ServerHost:    v.GetString("server.host"),
		ServerPort:    v.GetInt("server.port"),
	}

	switch cfg.LogFormat {
	case "json", "console":
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.LogFormat)
	}
	if cfg.ServerPort < 0 || cfg.ServerPort > 65535 {
		return nil, fmt.Errorf("invalid server port %d", cfg.ServerPort)
	}
	return cfg, nil
}

// Addr is the HTTP mode listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}
