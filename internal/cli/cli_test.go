package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/dm3k/dm3k/pkg/document"
	"github.com/dm3k/dm3k/pkg/pipeline"
)

// newTestCLI returns a CLI whose config file disables caching and keeps
// documents in memory.
func newTestCLI(t *testing.T, extra string) *CLI {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dm3k.toml")
	cfg := "[cache]\nbackend = \"none\"\n\n[store]\nbackend = \"memory\"\n" + extra
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	c := New(&bytes.Buffer{}, log.InfoLevel)
	c.configPath = path
	return c
}

func writeDoc(t *testing.T, d document.Document, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := document.WriteFile(d, path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(&bytes.Buffer{}, log.InfoLevel).RootCommand()

	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{
		"validate", "convert", "roundtrip", "solve", "layout", "diagram",
		"serve", "store", "cache", "config", "browse", "completion",
	} {
		if !slices.Contains(names, want) {
			t.Errorf("missing subcommand %q (have %v)", want, names)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("missing --config flag")
	}
}

func TestCompletionCommand(t *testing.T) {
	for shell := range completionShells {
		t.Run(shell, func(t *testing.T) {
			root := New(&bytes.Buffer{}, log.InfoLevel).RootCommand()
			var out bytes.Buffer
			root.SetOut(&out)
			root.SetArgs([]string{"completion", shell})
			if err := root.Execute(); err != nil {
				t.Fatalf("completion %s: %v", shell, err)
			}
			if !strings.Contains(out.String(), "dm3k") {
				t.Errorf("%s script does not mention dm3k", shell)
			}
		})
	}
}

func TestCacheDir(t *testing.T) {
	t.Run("xdg", func(t *testing.T) {
		t.Setenv("XDG_CACHE_HOME", "/tmp/custom-cache")
		dir, err := cacheDir()
		if err != nil {
			t.Fatalf("cacheDir() error: %v", err)
		}
		if want := filepath.Join("/tmp/custom-cache", appName); dir != want {
			t.Errorf("cacheDir() = %q, want %q", dir, want)
		}
	})

	t.Run("home", func(t *testing.T) {
		t.Setenv("XDG_CACHE_HOME", "")
		dir, err := cacheDir()
		if err != nil {
			t.Fatalf("cacheDir() error: %v", err)
		}
		home, _ := os.UserHomeDir()
		if want := filepath.Join(home, ".cache", appName); dir != want {
			t.Errorf("cacheDir() = %q, want %q", dir, want)
		}
	})
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		output, input, want string
	}{
		{"", "backpack.json", "backpack"},
		{"", "dir/backpack.yaml", "dir/backpack"},
		{"out.svg", "backpack.json", "out"},
		{"out.dot", "backpack.json", "out"},
		{"out", "backpack.json", "out"},
		{"out.v2", "backpack.json", "out.v2"},
	}
	for _, tt := range tests {
		if got := basePath(tt.output, tt.input); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
		}
	}
}

func TestParseFormats(t *testing.T) {
	if got := parseFormats(""); !slices.Equal(got, []string{pipeline.FormatSVG}) {
		t.Errorf("parseFormats(\"\") = %v", got)
	}
	if got := parseFormats("svg,json"); !slices.Equal(got, []string{"svg", "json"}) {
		t.Errorf("parseFormats(\"svg,json\") = %v", got)
	}
}

func TestMergeFlags(t *testing.T) {
	c := newTestCLI(t, "\n[solver]\nalgorithm = \"Greedy\"\n\n[layout]\nwidth_func = \"reward\"\nframe_width = 900\n")

	opts, err := c.mergeFlags(pipeline.Options{})
	if err != nil {
		t.Fatalf("mergeFlags() error: %v", err)
	}
	if opts.Algorithm != "Greedy" || opts.WidthFunc != "reward" || opts.FrameWidth != 900 {
		t.Errorf("config defaults not applied: %+v", opts)
	}

	opts, err = c.mergeFlags(pipeline.Options{Algorithm: "Exact", WidthFunc: "RATIO", FrameWidth: 600, Title: "t"})
	if err != nil {
		t.Fatalf("mergeFlags() error: %v", err)
	}
	if opts.Algorithm != "Exact" || opts.WidthFunc != "ratio" || opts.FrameWidth != 600 || opts.Title != "t" {
		t.Errorf("flags did not override config: %+v", opts)
	}
	if opts.Logger != c.Logger {
		t.Error("options should carry the CLI logger")
	}
}

func TestMergeFlagsBadConfig(t *testing.T) {
	c := newTestCLI(t, "\n[layout]\nwidth_func = \"area\"\n")
	if _, err := c.mergeFlags(pipeline.Options{}); err == nil {
		t.Error("mergeFlags() should report an invalid config")
	}
}

func TestWriteArtifacts(t *testing.T) {
	base := filepath.Join(t.TempDir(), "out")
	paths, err := writeArtifacts(base, []string{"svg", "json"}, map[string][]byte{
		"svg":  []byte("<svg/>"),
		"json": []byte("{}"),
	})
	if err != nil {
		t.Fatalf("writeArtifacts() error: %v", err)
	}
	if !slices.Equal(paths, []string{base + ".svg", base + ".json"}) {
		t.Errorf("paths = %v", paths)
	}
	data, _ := os.ReadFile(base + ".svg")
	if string(data) != "<svg/>" {
		t.Errorf("svg = %q", data)
	}
}

func TestLoadDocument(t *testing.T) {
	path := writeDoc(t, backpackDoc(), "backpack.yaml")
	d, err := loadDocument(path)
	if err != nil {
		t.Fatalf("loadDocument() error: %v", err)
	}
	if len(d.ResourceClasses) != 1 || d.ResourceClasses[0].ClassName != "Backpack" {
		t.Errorf("loaded %+v", d.ResourceClasses)
	}

	if _, err := loadDocument(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("loadDocument() should fail for a missing file")
	}
}

func TestRunValidate(t *testing.T) {
	c := newTestCLI(t, "")
	ctx := withLogger(context.Background(), c.Logger)

	if err := c.runValidate(ctx, writeDoc(t, backpackDoc(), "backpack.json")); err != nil {
		t.Errorf("runValidate() error: %v", err)
	}

	bad := backpackDoc()
	bad.ActivityInstances[0].ClassName = "Ghost"
	if err := c.runValidate(ctx, writeDoc(t, bad, "bad.json")); err == nil {
		t.Error("runValidate() should reject an unknown class")
	}
}

func TestRunRoundTrip(t *testing.T) {
	c := newTestCLI(t, "")
	ctx := withLogger(context.Background(), c.Logger)
	out := filepath.Join(t.TempDir(), "canonical.json")

	if err := c.runRoundTrip(ctx, writeDoc(t, backpackDoc(), "backpack.json"), out); err != nil {
		t.Fatalf("runRoundTrip() error: %v", err)
	}
	d, err := document.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(d.ActivityInstances) != 1 || len(d.ActivityInstances[0].InstanceTable) != 2 {
		t.Errorf("activity instances = %+v", d.ActivityInstances)
	}
}

func TestRunDiagram(t *testing.T) {
	c := newTestCLI(t, "")
	ctx := withLogger(context.Background(), c.Logger)
	input := writeDoc(t, backpackDoc(), "backpack.json")
	base := filepath.Join(t.TempDir(), "diagram")

	opts, err := c.pipelineDefaults()
	if err != nil {
		t.Fatal(err)
	}
	opts.Formats = []string{pipeline.FormatDOT}
	if err := c.runDiagram(ctx, input, base, true, opts); err != nil {
		t.Fatalf("runDiagram() error: %v", err)
	}
	data, err := os.ReadFile(base + ".dot")
	if err != nil {
		t.Fatalf("read dot: %v", err)
	}
	if !strings.Contains(string(data), "Backpack") {
		t.Errorf("dot output does not mention Backpack:\n%s", data)
	}
}

func TestRunStorePut(t *testing.T) {
	c := newTestCLI(t, "")
	ctx := context.Background()

	if err := c.runStorePut(ctx, writeDoc(t, backpackDoc(), "backpack.json"), "", ""); err != nil {
		t.Fatalf("runStorePut() error: %v", err)
	}
	if err := c.runStorePut(ctx, writeDoc(t, backpackDoc(), "backpack.json"), "", "not-a-uuid"); err == nil {
		t.Error("runStorePut() should reject an invalid ID")
	}
}

func TestSolverURLFlag(t *testing.T) {
	c := newTestCLI(t, "\n[solver]\nurl = \"http://solver:5000\"\n")
	c.solverURL = "https://override.example"
	cfg, err := c.loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Solver.URL != "https://override.example" {
		t.Errorf("Solver.URL = %s, want the flag value", cfg.Solver.URL)
	}

	c = newTestCLI(t, "")
	c.solverURL = "ftp://solver"
	if _, err := c.loadConfig(); err == nil {
		t.Error("loadConfig() should reject a non-http solver URL")
	}
}

func TestMergeFlagsRenderOptions(t *testing.T) {
	c := newTestCLI(t, "")
	opts, err := c.mergeFlags(pipeline.Options{Color: "#ff0000", NoLabels: true})
	if err != nil {
		t.Fatal(err)
	}
	if opts.Color != "#ff0000" || !opts.NoLabels {
		t.Errorf("render flags not carried: %+v", opts)
	}
}
