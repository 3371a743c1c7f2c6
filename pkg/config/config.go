// Package config loads DM3K settings from a dm3k.toml file.
//
// Settings are resolved in three layers: built-in [Default] values, the
// first config file found by [Path], then environment overrides:
//
//	DM3K_SOLVER_URL   solver.url
//	DM3K_REDIS_ADDR   cache.redis_addr and store.redis_addr
//	DM3K_MONGO_URI    store.mongo_uri
//
// A minimal file:
//
//	[solver]
//	url = "http://solver.internal:5000"
//	timeout = "5m"
//
//	[store]
//	backend = "mongo"
//	mongo_uri = "mongodb://localhost:27017"
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/dm3k/dm3k/pkg/layout"
	"github.com/dm3k/dm3k/pkg/solver"
)

const (
	appName  = "dm3k"
	fileName = "dm3k.toml"
)

// Environment variables read by [Load].
const (
	EnvConfig    = "DM3K_CONFIG"
	EnvSolverURL = "DM3K_SOLVER_URL"
	EnvRedisAddr = "DM3K_REDIS_ADDR"
	EnvMongoURI  = "DM3K_MONGO_URI"
)

// Backend names.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendS3     = "s3"
)

// ErrInvalidConfig is returned when a file cannot be decoded or a value is
// out of range.
var ErrInvalidConfig = errors.New("invalid config")

// =============================================================================
// Types
// =============================================================================

// Config is the complete DM3K configuration.
type Config struct {
	Solver SolverConfig `toml:"solver"`
	Layout LayoutConfig `toml:"layout"`
	Cache  CacheConfig  `toml:"cache"`
	Store  StoreConfig  `toml:"store"`
	Server ServerConfig `toml:"server"`
}

// SolverConfig locates the optimization service.
type SolverConfig struct {
	URL       string   `toml:"url" validate:"required,url"`
	Algorithm string   `toml:"algorithm" validate:"required"`
	Timeout   Duration `toml:"timeout"`
	Retries   int      `toml:"retries" validate:"gte=0,lte=10"`
}

// LayoutConfig holds defaults for solution layouts.
type LayoutConfig struct {
	WidthFunc  string  `toml:"width_func" validate:"oneof=cost reward ratio"`
	FrameWidth float64 `toml:"frame_width" validate:"gt=0"`
}

// CacheConfig selects where solutions, layouts and artifacts are cached.
type CacheConfig struct {
	Backend   string `toml:"backend" validate:"oneof=file redis none"`
	Dir       string `toml:"dir,omitempty"`
	RedisAddr string `toml:"redis_addr,omitempty" validate:"required_if=Backend redis"`
	// Prefix namespaces every cache key, e.g. "staging:".
	Prefix string `toml:"prefix,omitempty"`
}

// StoreConfig selects where saved documents live.
type StoreConfig struct {
	Backend       string `toml:"backend" validate:"oneof=memory file redis mongo s3"`
	Dir           string `toml:"dir,omitempty"`
	RedisAddr     string `toml:"redis_addr,omitempty" validate:"required_if=Backend redis"`
	MongoURI      string `toml:"mongo_uri,omitempty" validate:"required_if=Backend mongo"`
	MongoDatabase string `toml:"mongo_database,omitempty"`

	// S3 settings. Credentials default to the AWS SDK chain.
	S3Bucket    string `toml:"s3_bucket,omitempty" validate:"required_if=Backend s3"`
	S3Prefix    string `toml:"s3_prefix,omitempty"`
	S3Region    string `toml:"s3_region,omitempty"`
	S3Endpoint  string `toml:"s3_endpoint,omitempty" validate:"omitempty,url"`
	S3AccessKey string `toml:"s3_access_key,omitempty"`
	S3SecretKey string `toml:"s3_secret_key,omitempty"`
}

// ServerConfig configures `dm3k serve`.
type ServerConfig struct {
	Addr string `toml:"addr" validate:"required"`
}

// Duration is a time.Duration written as a string ("90s", "5m") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// =============================================================================
// Defaults
// =============================================================================

// Default returns the built-in configuration: a local solver, file cache,
// file store and the API on localhost:8080.
func Default() Config {
	return Config{
		Solver: SolverConfig{
			URL:       "http://localhost:5000",
			Algorithm: solver.DefaultAlgorithm,
			Timeout:   Duration{solver.DefaultTimeout},
			Retries:   solver.DefaultRetries,
		},
		Layout: LayoutConfig{
			WidthFunc:  string(layout.DefaultWidthFunc),
			FrameWidth: layout.DefaultFrameWidth,
		},
		Cache:  CacheConfig{Backend: BackendFile},
		Store:  StoreConfig{Backend: BackendFile},
		Server: ServerConfig{Addr: "localhost:8080"},
	}
}

// =============================================================================
// Loading
// =============================================================================

// Path returns the config file to read. An explicit path always wins, then
// $DM3K_CONFIG, then $XDG_CONFIG_HOME/dm3k/dm3k.toml (~/.config when unset).
// The boolean is false when no candidate exists; an explicit path is
// returned as found so that reading it reports the error.
func Path(explicit string) (string, bool) {
	if explicit != "" {
		return explicit, true
	}
	if p := os.Getenv(EnvConfig); p != "" {
		return p, true
	}
	dir, err := configHome()
	if err != nil {
		return "", false
	}
	p := filepath.Join(dir, appName, fileName)
	if _, err := os.Stat(p); err != nil {
		return "", false
	}
	return p, true
}

// Load resolves the configuration. explicit is the --config flag value and
// may be empty. A missing default file is not an error.
func Load(explicit string) (Config, string, error) {
	cfg := Default()
	path, ok := Path(explicit)
	if ok {
		if err := cfg.decodeFile(path); err != nil {
			return Config{}, path, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, path, err
	}
	return cfg, path, nil
}

// Parse decodes TOML on top of [Default] without consulting the
// environment.
func Parse(data string) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := undecoded(md); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file %s: %w", path, err)
		}
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	return undecoded(md)
}

func undecoded(md toml.MetaData) error {
	keys := md.Undecoded()
	if len(keys) == 0 {
		return nil
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	return fmt.Errorf("%w: unknown keys: %s", ErrInvalidConfig, strings.Join(names, ", "))
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvSolverURL); v != "" {
		c.Solver.URL = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Cache.RedisAddr = v
		c.Store.RedisAddr = v
	}
	if v := os.Getenv(EnvMongoURI); v != "" {
		c.Store.MongoURI = v
	}
}

// =============================================================================
// Validation
// =============================================================================

var validate = validator.New()

// Validate checks every section and reports all problems in one error
// wrapping [ErrInvalidConfig].
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		if c.Solver.Timeout.Duration < 0 {
			return fmt.Errorf("%w: solver.timeout must not be negative", ErrInvalidConfig)
		}
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	problems := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := tomlPath(e.Namespace())
		switch e.Tag() {
		case "required", "required_if":
			problems = append(problems, field+" is required")
		case "oneof":
			problems = append(problems, fmt.Sprintf("%s must be one of [%s]", field, e.Param()))
		default:
			problems = append(problems, fmt.Sprintf("%s is invalid (%s)", field, e.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
}

// tomlPath turns "Config.Store.MongoURI" into "store.mongo_uri".
func tomlPath(namespace string) string {
	parts := strings.Split(strings.TrimPrefix(namespace, "Config."), ".")
	for i, p := range parts {
		parts[i] = snake(p)
	}
	return strings.Join(parts, ".")
}

func snake(s string) string {
	var b strings.Builder
	for i, r := range s {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 {
			prev := rune(s[i-1])
			next := rune(0)
			if i+1 < len(s) {
				next = rune(s[i+1])
			}
			if prev >= 'a' && prev <= 'z' || prev >= '0' && prev <= '9' || next >= 'a' && next <= 'z' && prev >= 'A' && prev <= 'Z' {
				b.WriteByte('_')
			}
		}
		if upper {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// =============================================================================
// Output
// =============================================================================

// Write encodes c as TOML.
func (c Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// LayoutWidthFunc returns the configured width function.
func (c Config) LayoutWidthFunc() layout.WidthFunc {
	return layout.WidthFunc(c.Layout.WidthFunc)
}

// =============================================================================
// Paths
// =============================================================================

func configHome() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config"), nil
}

// CacheDir returns the cache directory using XDG standard (~/.cache/dm3k/).
func CacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
