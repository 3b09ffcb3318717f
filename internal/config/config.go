// Package config resolves ayr settings from flags, an ayr.yaml file, the
// environment and built-in defaults, in that order of precedence.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "ayr.yaml"

// Store kinds.
const (
	StoreFile   = "file"
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// Config is the resolved configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Log    LogConfig    `yaml:"log"`
	Listen ListenConfig `yaml:"listen"`
}

// ServerConfig addresses the remote runtime.
type ServerConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// StoreConfig selects where controller snapshots live.
type StoreConfig struct {
	Kind  string      `yaml:"kind"`
	Dir   string      `yaml:"dir"`
	Redis RedisConfig `yaml:"redis"`

	// EncryptionKey is a base64 AES-256 key. When set, snapshots are encrypted at rest.
	EncryptionKey string `yaml:"encryption_key"`
	// FallbackKeys decrypt snapshots written before a key rotation.
	FallbackKeys []string `yaml:"fallback_keys"`
	// Mask lists regular expressions of variable names masked before storage.
	Mask []string `yaml:"mask"`
}

// Keys decodes the encryption keys. Both are nil when encryption is off.
func (s StoreConfig) Keys() (active []byte, fallback [][]byte, err error) {
	if s.EncryptionKey == "" {
		return nil, nil, nil
	}
	if active, err = decodeKey(s.EncryptionKey); err != nil {
		return nil, nil, fmt.Errorf("%w: store.encryption_key: %w", ErrInvalid, err)
	}
	for i, k := range s.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: store.fallback_keys[%d]: %w", ErrInvalid, i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key is %d bytes, want 32", len(key))
	}
	return key, nil
}

// RedisConfig configures the redis store and locker.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
	Prefix   string        `yaml:"prefix"`
}

// LogConfig configures the slog logger.
type LogConfig struct {
	Level string `yaml:"level"`
}

// ListenConfig is used by the serve command.
type ListenConfig struct {
	Addr string `yaml:"addr"`
}

// Overrides carries command-line flags. Zero values mean "not set".
type Overrides struct {
	ServerURL string
	Timeout   time.Duration
	StoreKind string
	StoreDir  string
	LogLevel  string
	Listen    string
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:     "http://localhost:8000",
			Timeout: 15 * time.Second,
		},
		Store: StoreConfig{
			Kind: StoreFile,
			Dir:  filepath.Join(".ayr", "sessions"),
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "ayr:workspace:",
			},
		},
		Log:    LogConfig{Level: "info"},
		Listen: ListenConfig{Addr: ":8080"},
	}
}

// Resolve builds the configuration:
// 1) flags
// 2) config file values (path, or ./ayr.yaml when present)
// 3) environment (AYR_*)
// 4) defaults
func Resolve(path string, o Overrides) (*Config, error) {
	cfg := Default()
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := cfg.applyFile(path, explicit); err != nil {
		return nil, err
	}

	cfg.applyOverrides(o)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads a single YAML file over the defaults, without env or flags.
func Load(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.applyFile(path, true); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("AYR_SERVER_URL"); ok && v != "" {
		c.Server.URL = v
	}
	if v, ok := lookup("AYR_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: AYR_TIMEOUT: %w", ErrInvalid, err)
		}
		c.Server.Timeout = d
	}
	if v, ok := lookup("AYR_STORE"); ok && v != "" {
		c.Store.Kind = v
	}
	if v, ok := lookup("AYR_STORE_DIR"); ok && v != "" {
		c.Store.Dir = v
	}
	if v, ok := lookup("AYR_REDIS_ADDR"); ok && v != "" {
		c.Store.Redis.Addr = v
	}
	if v, ok := lookup("AYR_REDIS_PASSWORD"); ok {
		c.Store.Redis.Password = v
	}
	if v, ok := lookup("AYR_REDIS_DB"); ok && v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: AYR_REDIS_DB: %w", ErrInvalid, err)
		}
		c.Store.Redis.DB = db
	}
	if v, ok := lookup("AYR_STORE_KEY"); ok && v != "" {
		c.Store.EncryptionKey = v
	}
	if v, ok := lookup("AYR_LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}
	return nil
}

func (c *Config) applyOverrides(o Overrides) {
	if o.ServerURL != "" {
		c.Server.URL = o.ServerURL
	}
	if o.Timeout > 0 {
		c.Server.Timeout = o.Timeout
	}
	if o.StoreKind != "" {
		c.Store.Kind = o.StoreKind
	}
	if o.StoreDir != "" {
		c.Store.Dir = o.StoreDir
	}
	if o.LogLevel != "" {
		c.Log.Level = o.LogLevel
	}
	if o.Listen != "" {
		c.Listen.Addr = o.Listen
	}
}

// Validate checks the resolved values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: server.url %q is not an absolute URL", ErrInvalid, c.Server.URL)
	}
	if c.Server.Timeout < 0 {
		return fmt.Errorf("%w: server.timeout must not be negative", ErrInvalid)
	}
	switch c.Store.Kind {
	case StoreFile, StoreMemory:
	case StoreRedis:
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("%w: store.redis.addr is required for the redis store", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown store.kind %q", ErrInvalid, c.Store.Kind)
	}
	if _, _, err := c.Store.Keys(); err != nil {
		return err
	}
	return nil
}
