// Package config loads service settings from defaults, an optional YAML
// file, a .env file, MOBILIER_* environment variables and command flags,
// later sources overriding earlier ones.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/erazemk/mobilier/internal/fieldwork"
	"github.com/erazemk/mobilier/internal/geo"
	"github.com/erazemk/mobilier/internal/logging"
)

// EnvPrefix prefixes every environment variable, e.g. MOBILIER_GEO_EDIT_RADIUS.
const EnvPrefix = "MOBILIER"

// Config is the full service configuration.
type Config struct {
	Addr   string `mapstructure:"addr"`
	DB     string `mapstructure:"db"`
	Log    Log    `mapstructure:"log"`
	Auth   Auth   `mapstructure:"auth"`
	Geo    Geo    `mapstructure:"geo"`
	HTTP   HTTP   `mapstructure:"http"`
	Fluent Fluent `mapstructure:"fluent"`
}

type Log struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
	Color bool   `mapstructure:"color"`
}

type Auth struct {
	Domain    string `mapstructure:"domain"`
	Password  string `mapstructure:"password"`
	JWTSecret string `mapstructure:"jwt_secret"` // generated and stored in the database when empty
}

type Geo struct {
	DuplicateRadius float64 `mapstructure:"duplicate_radius"`
	EditRadius      float64 `mapstructure:"edit_radius"`
	FallbackLat     float64 `mapstructure:"fallback_lat"`
	FallbackLng     float64 `mapstructure:"fallback_lng"`
}

type HTTP struct {
	CORSOrigins  []string `mapstructure:"cors_origins"`
	MaxBodyBytes int64    `mapstructure:"max_body_bytes"`
}

type Fluent struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Tag     string `mapstructure:"tag"`
}

var defaults = map[string]any{
	"addr":                 ":8080",
	"db":                   "mobilier.sqlite3",
	"log.file":             "",
	"log.level":            "info",
	"log.color":            false,
	"auth.domain":          "mel.fr",
	"auth.password":        "1234",
	"auth.jwt_secret":      "",
	"geo.duplicate_radius": fieldwork.DefaultConfig.DuplicateRadius,
	"geo.edit_radius":      fieldwork.DefaultConfig.EditRadius,
	"geo.fallback_lat":     fieldwork.DefaultConfig.Fallback.Lat,
	"geo.fallback_lng":     fieldwork.DefaultConfig.Fallback.Lng,
	"http.cors_origins":    []string{"*"},
	"http.max_body_bytes":  int64(10 << 20),
	"fluent.enabled":       false,
	"fluent.host":          "127.0.0.1",
	"fluent.port":          24224,
	"fluent.tag":           "mobilier",
}

// Flags maps command-line flag names to configuration keys.
var Flags = map[string]string{
	"addr":      "addr",
	"db":        "db",
	"log":       "log.file",
	"log-level": "log.level",
	"color":     "log.color",
}

// Load reads the configuration. path names a YAML file; when empty,
// mobilier.yaml is looked up in the working directory and its absence is not
// an error. flags may be nil; only flags listed in Flags are bound.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range Flags {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("mobilier")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else {
		slog.Debug("config file loaded", "path", v.ConfigFileUsed())
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if c.Geo.DuplicateRadius < 0 || c.Geo.EditRadius < 0 {
		return fmt.Errorf("radii must not be negative (duplicate %v, edit %v)", c.Geo.DuplicateRadius, c.Geo.EditRadius)
	}
	if !c.Fallback().Valid() {
		return fmt.Errorf("invalid fallback position %v, %v", c.Geo.FallbackLat, c.Geo.FallbackLng)
	}
	if strings.TrimSpace(c.Auth.Domain) == "" {
		return errors.New("auth.domain is required")
	}
	if c.Auth.Password == "" {
		return errors.New("auth.password is required")
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return fmt.Errorf("http.max_body_bytes must be positive, got %d", c.HTTP.MaxBodyBytes)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// Fallback is the position assumed for agents that never reported one.
func (c *Config) Fallback() geo.Point {
	return geo.Point{Lat: c.Geo.FallbackLat, Lng: c.Geo.FallbackLng}
}

// Board returns the proximity settings for a fieldwork board.
func (c *Config) Board() fieldwork.Config {
	return fieldwork.Config{
		EditRadius:      c.Geo.EditRadius,
		DuplicateRadius: c.Geo.DuplicateRadius,
		Fallback:        c.Fallback(),
	}
}

// Logging returns the logger options.
func (c *Config) Logging() logging.Options {
	level, _ := logging.ParseLevel(c.Log.Level)
	return logging.Options{
		Level: level,
		File:  c.Log.File,
		Color: c.Log.Color,
		Fluent: logging.FluentOptions{
			Enabled: c.Fluent.Enabled,
			Host:    c.Fluent.Host,
			Port:    c.Fluent.Port,
			Tag:     c.Fluent.Tag,
		},
	}
}
