// Package config loads the YAML configuration and keeps it up to date while
// the process runs.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/haveachin/barebones/internal/logging"
	"github.com/haveachin/barebones/pkg/auth"
	"github.com/haveachin/barebones/pkg/storage/memory"
	"github.com/haveachin/barebones/pkg/storage/redis"
	"github.com/imdario/mergo"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

const (
	EnvPrefix      = "BAREBONES_"
	EnvConfigPath  = EnvPrefix + "CONFIG"
	EnvEnvironment = EnvPrefix + "ENVIRONMENT"
	EnvLogEncoding = EnvPrefix + "LOG_ENCODING"

	DefaultPath = "config.yml"
)

const (
	CacheDriverNone   = "none"
	CacheDriverMemory = "memory"
	CacheDriverRedis  = "redis"
)

type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Admin   AdminConfig   `mapstructure:"admin"`
}

type LoggingConfig struct {
	Environment string `mapstructure:"environment"`
	Encoding    string `mapstructure:"encoding"`
}

type AuthConfig struct {
	AuthURL             string            `mapstructure:"authURL"`
	UserProfileURL      string            `mapstructure:"userProfileURL"`
	MinecraftProfileURL string            `mapstructure:"minecraftProfileURL"`
	Timeout             time.Duration     `mapstructure:"timeout"`
	Workers             int               `mapstructure:"workers"`
	MaxResponseSize     datasize.ByteSize `mapstructure:"maxResponseSize"`
	UserAgent           string            `mapstructure:"userAgent"`
}

type CacheConfig struct {
	Driver string            `mapstructure:"driver"`
	Memory MemoryCacheConfig `mapstructure:"memory"`
	Redis  redis.Config      `mapstructure:"redis"`
}

type MemoryCacheConfig struct {
	Size    int           `mapstructure:"size"`
	TTL     time.Duration `mapstructure:"ttl"`
	Janitor string        `mapstructure:"janitor"`
}

type AdminConfig struct {
	// Bind is the listen address of the admin API. Leave empty to disable it.
	Bind           string   `mapstructure:"bind"`
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
	AllowedMethods []string `mapstructure:"allowedMethods"`
	AllowedHeaders []string `mapstructure:"allowedHeaders"`
}

func Default() Config {
	return Config{
		Logging: LoggingConfig{
			Environment: logging.EnvProd,
			Encoding:    logging.EncodingConsole,
		},
		Auth: AuthConfig{
			AuthURL:             auth.DefaultAuthURL,
			UserProfileURL:      auth.DefaultUserProfileURL,
			MinecraftProfileURL: auth.DefaultMinecraftProfileURL,
			Timeout:             auth.DefaultTimeout,
			Workers:             auth.DefaultWorkers,
			MaxResponseSize:     auth.DefaultMaxResponseSize,
			UserAgent:           auth.DefaultUserAgent,
		},
		Cache: CacheConfig{
			Driver: CacheDriverMemory,
			Memory: MemoryCacheConfig{
				Size:    memory.DefaultSize,
				TTL:     memory.DefaultTTL,
				Janitor: memory.DefaultJanitorSpec,
			},
			Redis: redis.Config{
				TTL:    redis.DefaultTTL,
				Prefix: redis.DefaultPrefix,
			},
		},
	}
}

// Load reads the file at path, fills everything it leaves out from Default
// and validates the result. Environment variables override the logging
// settings.
func Load(path string) (Config, error) {
	bb, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	data := map[string]any{}
	if err := yaml.Unmarshal(bb, &data); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg, err := Decode(data)
	if err != nil {
		return Config{}, fmt.Errorf("decode %s: %w", path, err)
	}

	cfg.Logging.Environment = EnvString(EnvEnvironment, cfg.Logging.Environment)
	cfg.Logging.Encoding = EnvString(EnvLogEncoding, cfg.Logging.Encoding)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode turns raw config data into a Config with defaults applied.
func Decode(data map[string]any) (Config, error) {
	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.TextUnmarshallerHookFunc(),
		),
		ErrorUnused: true,
		Result:      &cfg,
	})
	if err != nil {
		return Config{}, err
	}

	if err := decoder.Decode(data); err != nil {
		return Config{}, err
	}

	if err := mergo.Merge(&cfg, Default()); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every problem in cfg at once.
func (cfg Config) Validate() error {
	var err error

	switch cfg.Logging.Environment {
	case logging.EnvNop, logging.EnvDev, logging.EnvProd:
	default:
		err = multierr.Append(err, fmt.Errorf("logging.environment: unsupported value %q", cfg.Logging.Environment))
	}
	switch cfg.Logging.Encoding {
	case logging.EncodingConsole, logging.EncodingJSON:
	default:
		err = multierr.Append(err, fmt.Errorf("logging.encoding: unsupported value %q", cfg.Logging.Encoding))
	}

	err = multierr.Append(err, checkFormat("auth.authURL", cfg.Auth.AuthURL, 2))
	err = multierr.Append(err, checkFormat("auth.userProfileURL", cfg.Auth.UserProfileURL, 1))
	err = multierr.Append(err, checkFormat("auth.minecraftProfileURL", cfg.Auth.MinecraftProfileURL, 1))
	if cfg.Auth.Timeout <= 0 {
		err = multierr.Append(err, errors.New("auth.timeout: must be positive"))
	}
	if cfg.Auth.Workers <= 0 {
		err = multierr.Append(err, errors.New("auth.workers: must be positive"))
	}

	switch cfg.Cache.Driver {
	case CacheDriverNone:
	case CacheDriverMemory:
		if cfg.Cache.Memory.Size <= 0 {
			err = multierr.Append(err, errors.New("cache.memory.size: must be positive"))
		}
	case CacheDriverRedis:
		if cfg.Cache.Redis.URI == "" {
			err = multierr.Append(err, errors.New("cache.redis.uri: required by the redis driver"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("cache.driver: unsupported value %q", cfg.Cache.Driver))
	}

	return err
}

func checkFormat(field, format string, verbs int) error {
	if n := strings.Count(format, "%s"); n != verbs {
		return fmt.Errorf("%s: needs %d %%s verbs, has %d", field, verbs, n)
	}
	return nil
}

// EnvString returns the value of the environment variable name or defVal
// when it is unset or empty.
func EnvString(name, defVal string) string {
	v := os.Getenv(name)
	if v == "" {
		return defVal
	}
	return v
}
