package config

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/dm3k/dm3k/pkg/cache"
	"github.com/dm3k/dm3k/pkg/store"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse(`
[solver]
url = "http://solver.internal:5000"
timeout = "90s"
retries = 5

[layout]
width_func = "ratio"

[store]
backend = "mongo"
mongo_uri = "mongodb://localhost:27017"
mongo_database = "planning"
`)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if cfg.Solver.URL != "http://solver.internal:5000" {
		t.Errorf("solver.url = %q", cfg.Solver.URL)
	}
	if cfg.Solver.Timeout.Duration != 90*time.Second {
		t.Errorf("solver.timeout = %v, want 90s", cfg.Solver.Timeout)
	}
	if cfg.Solver.Retries != 5 {
		t.Errorf("solver.retries = %d, want 5", cfg.Solver.Retries)
	}
	if cfg.LayoutWidthFunc() != "ratio" {
		t.Errorf("layout.width_func = %q, want ratio", cfg.Layout.WidthFunc)
	}
	if cfg.Store.Backend != BackendMongo || cfg.Store.MongoDatabase != "planning" {
		t.Errorf("store = %+v", cfg.Store)
	}
	// Untouched sections keep their defaults.
	if cfg.Solver.Algorithm != Default().Solver.Algorithm {
		t.Errorf("solver.algorithm = %q, want default", cfg.Solver.Algorithm)
	}
	if cfg.Server.Addr != Default().Server.Addr {
		t.Errorf("server.addr = %q, want default", cfg.Server.Addr)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"syntax", `[solver`, ""},
		{"unknown key", "[solver]\nendpoint = \"x\"", "solver.endpoint"},
		{"bad duration", "[solver]\ntimeout = \"soon\"", ""},
		{"bad width func", "[layout]\nwidth_func = \"area\"", "layout.width_func"},
		{"zero frame", "[layout]\nframe_width = 0.0", "layout.frame_width"},
		{"bad cache backend", "[cache]\nbackend = \"s3\"", "cache.backend"},
		{"redis without addr", "[store]\nbackend = \"redis\"", "store.redis_addr is required"},
		{"mongo without uri", "[store]\nbackend = \"mongo\"", "store.mongo_uri is required"},
		{"s3 without bucket", "[store]\nbackend = \"s3\"", "store.s3_bucket is required"},
		{"bad url", "[solver]\nurl = \"not a url\"", "solver.url"},
		{"negative retries", "[solver]\nretries = -1", "solver.retries"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Parse() error = %v, want ErrInvalidConfig", err)
			}
			if tt.want != "" && !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestTOMLPath(t *testing.T) {
	tests := map[string]string{
		"Config.Store.MongoURI":    "store.mongo_uri",
		"Config.Cache.RedisAddr":   "cache.redis_addr",
		"Config.Solver.URL":        "solver.url",
		"Config.Layout.FrameWidth": "layout.frame_width",
		"Config.Store.S3Bucket":    "store.s3_bucket",
	}
	for in, want := range tests {
		if got := tomlPath(in); got != want {
			t.Errorf("tomlPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPath(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv(EnvConfig, "")

	if _, ok := Path(""); ok {
		t.Fatal("Path() found a file in an empty config home")
	}

	want := filepath.Join(xdg, "dm3k", "dm3k.toml")
	if err := os.MkdirAll(filepath.Dir(want), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(want, []byte("[server]\naddr = \":9000\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got, ok := Path(""); !ok || got != want {
		t.Errorf("Path() = %q, %v, want %q", got, ok, want)
	}

	t.Setenv(EnvConfig, "/etc/dm3k.toml")
	if got, _ := Path(""); got != "/etc/dm3k.toml" {
		t.Errorf("Path() with %s = %q", EnvConfig, got)
	}
	if got, _ := Path("custom.toml"); got != "custom.toml" {
		t.Errorf("Path(explicit) = %q, want custom.toml", got)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(EnvConfig, "")
	t.Setenv(EnvSolverURL, "")
	t.Setenv(EnvRedisAddr, "")
	t.Setenv(EnvMongoURI, "")

	t.Run("no file", func(t *testing.T) {
		cfg, path, err := Load("")
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if path != "" {
			t.Errorf("path = %q, want empty", path)
		}
		if cfg != Default() {
			t.Errorf("Load() without a file = %+v, want defaults", cfg)
		}
	})

	t.Run("explicit missing file", func(t *testing.T) {
		_, _, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Load() error = %v, want not exist", err)
		}
	})

	t.Run("file and env", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "dm3k.toml")
		data := "[cache]\nbackend = \"redis\"\nredis_addr = \"cache:6379\"\n\n[server]\naddr = \":9000\"\n"
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
		t.Setenv(EnvSolverURL, "http://env-solver:5000")
		t.Setenv(EnvRedisAddr, "env-redis:6379")

		cfg, got, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if got != path {
			t.Errorf("path = %q, want %q", got, path)
		}
		if cfg.Server.Addr != ":9000" {
			t.Errorf("server.addr = %q", cfg.Server.Addr)
		}
		if cfg.Solver.URL != "http://env-solver:5000" {
			t.Errorf("solver.url = %q, want env override", cfg.Solver.URL)
		}
		if cfg.Cache.RedisAddr != "env-redis:6379" || cfg.Store.RedisAddr != "env-redis:6379" {
			t.Errorf("redis addrs = %q, %q, want env override", cfg.Cache.RedisAddr, cfg.Store.RedisAddr)
		}
	})
}

func TestWriteParses(t *testing.T) {
	cfg := Default()
	cfg.Solver.Timeout = Duration{45 * time.Second}
	cfg.Store.Backend = BackendMemory

	var buf bytes.Buffer
	if err := cfg.Write(&buf); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if !strings.Contains(buf.String(), `timeout = "45s"`) {
		t.Errorf("timeout not written as a string:\n%s", buf.String())
	}
	got, err := Parse(buf.String())
	if err != nil {
		t.Fatalf("Parse(Write()) error: %v", err)
	}
	if got != cfg {
		t.Errorf("Parse(Write()) = %+v, want %+v", got, cfg)
	}
}

func TestOpenCache(t *testing.T) {
	ctx := context.Background()

	c, err := CacheConfig{Backend: BackendNone}.OpenCache(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(cache.NullCache); !ok {
		t.Errorf("none backend = %T, want NullCache", c)
	}

	dir := t.TempDir()
	c, err = CacheConfig{Backend: BackendFile, Dir: dir}.OpenCache(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if fc, ok := c.(*cache.FileCache); !ok || fc.Dir() != dir {
		t.Errorf("file backend = %T", c)
	}

	mr := miniredis.RunT(t)
	c, err = CacheConfig{Backend: BackendRedis, RedisAddr: mr.Addr()}.OpenCache(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if _, ok := c.(*cache.RedisCache); !ok {
		t.Errorf("redis backend = %T", c)
	}

	if _, err := (CacheConfig{Backend: "s3"}).OpenCache(ctx); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("unknown backend error = %v", err)
	}
}

func TestCacheKeyer(t *testing.T) {
	opts := cache.SolutionKeyOpts{Algorithm: "KnapsackViz"}
	plain := CacheConfig{}.Keyer().SolutionKey("abc", opts)
	scoped := CacheConfig{Prefix: "staging:"}.Keyer().SolutionKey("abc", opts)

	if strings.HasPrefix(plain, "staging:") {
		t.Errorf("unscoped key %q carries a prefix", plain)
	}
	if scoped != "staging:"+plain {
		t.Errorf("scoped key = %q, want %q", scoped, "staging:"+plain)
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	s, err := StoreConfig{Backend: BackendMemory}.OpenStore(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*store.MemoryStore); !ok {
		t.Errorf("memory backend = %T", s)
	}

	dir := t.TempDir()
	s, err = StoreConfig{Backend: BackendFile, Dir: dir}.OpenStore(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if fs, ok := s.(*store.FileStore); !ok || fs.Path() != dir {
		t.Errorf("file backend = %T", s)
	}

	mr := miniredis.RunT(t)
	s, err = StoreConfig{Backend: BackendRedis, RedisAddr: mr.Addr()}.OpenStore(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, ok := s.(*store.RedisStore); !ok {
		t.Errorf("redis backend = %T", s)
	}
}

func TestSolverClient(t *testing.T) {
	cfg := Default().Solver
	cfg.Timeout = Duration{10 * time.Second}
	cfg.Retries = 1

	c := cfg.Client(nil)
	if c.BaseURL != cfg.URL {
		t.Errorf("BaseURL = %q, want %q", c.BaseURL, cfg.URL)
	}
	if c.HTTPClient.Timeout != 10*time.Second {
		t.Errorf("timeout = %v, want 10s", c.HTTPClient.Timeout)
	}
	if c.Retries != 1 {
		t.Errorf("Retries = %d, want 1", c.Retries)
	}
	if c.Logger == nil {
		t.Error("Logger is nil")
	}
}
