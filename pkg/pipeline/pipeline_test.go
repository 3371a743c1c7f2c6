package pipeline

import (
	"testing"

	"github.com/dm3k/dm3k/pkg/layout"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"json", false},
		{"dot", true}, // diagram only
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "json"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestValidateDiagramFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"dot", false},
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"json", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateDiagramFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateDiagramFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestOptionsValidateAndSetDefaults(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Empty options should pass: %v", err)
	}

	if opts.Algorithm != DefaultAlgorithm {
		t.Errorf("Algorithm should be %s, got %s", DefaultAlgorithm, opts.Algorithm)
	}
	if opts.WidthFunc != DefaultWidthFunc {
		t.Errorf("WidthFunc should be %s, got %s", DefaultWidthFunc, opts.WidthFunc)
	}
	if opts.FrameWidth != DefaultFrameWidth {
		t.Errorf("FrameWidth should be %f, got %f", DefaultFrameWidth, opts.FrameWidth)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats should be [svg], got %v", opts.Formats)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{WidthFunc: "ratio"}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("First validation failed: %v", err)
	}
	originalAlgorithm := opts.Algorithm
	originalFormats := len(opts.Formats)

	// Second call should be idempotent
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Second validation failed: %v", err)
	}
	if opts.Algorithm != originalAlgorithm {
		t.Error("Algorithm changed on second call")
	}
	if len(opts.Formats) != originalFormats {
		t.Error("Formats changed on second call")
	}
}

func TestOptionsRejectInvalid(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"width func", Options{WidthFunc: "area"}},
		{"negative frame", Options{FrameWidth: -1}},
		{"negative container", Options{ContainerHeight: -10}},
		{"format", Options{Formats: []string{"gif"}}},
		{"color", Options{Color: `red" onload="x`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.ValidateAndSetDefaults(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestOptionsValidateForDiagram(t *testing.T) {
	opts := Options{Formats: []string{"dot", "svg"}}
	if err := opts.ValidateForDiagram(); err != nil {
		t.Errorf("dot and svg diagrams should pass: %v", err)
	}
	opts = Options{Formats: []string{"json"}}
	if err := opts.ValidateForDiagram(); err == nil {
		t.Error("json diagrams should fail")
	}
}

func TestLayoutOptions(t *testing.T) {
	opts := Options{WidthFunc: "reward", ContainerWidth: 300, ContainerHeight: 100, FrameWidth: 900}
	got := opts.LayoutOptions()
	want := layout.Options{WidthFunc: layout.WidthReward, ContainerWidth: 300, ContainerHeight: 100, FrameWidth: 900}
	if got != want {
		t.Errorf("LayoutOptions() = %+v, want %+v", got, want)
	}

	key := opts.LayoutKeyOpts()
	if key.WidthFunc != "reward" || key.ContainerWidth != 300 || key.FrameWidth != 900 {
		t.Errorf("LayoutKeyOpts() = %+v", key)
	}
}

func TestKeyOpts(t *testing.T) {
	opts := Options{Algorithm: "Greedy", Title: "backpack", Detailed: true, Color: "#abc", NoLabels: true}
	if got := opts.SolutionKeyOpts().Algorithm; got != "Greedy" {
		t.Errorf("SolutionKeyOpts().Algorithm = %s", got)
	}
	if got := opts.ArtifactKeyOpts("svg"); got.Format != "svg" || got.Title != "backpack" || got.Color != "#abc" || !got.NoLabels {
		t.Errorf("ArtifactKeyOpts() = %+v", got)
	}
	if got := opts.DiagramKeyOpts("dot"); got.Format != "dot" || !got.Detailed {
		t.Errorf("DiagramKeyOpts() = %+v", got)
	}
}

func TestValidateColor(t *testing.T) {
	for _, c := range []string{"", "#abc", "#4A90D9", "steelblue"} {
		if err := ValidateColor(c); err != nil {
			t.Errorf("ValidateColor(%q) error: %v", c, err)
		}
	}
	for _, c := range []string{"#abcd", "rgb(1,2,3)", "#12345g", "<red>"} {
		if err := ValidateColor(c); err == nil {
			t.Errorf("ValidateColor(%q) should fail", c)
		}
	}
}
