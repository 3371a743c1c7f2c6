// Package pipeline provides the solve → layout → render pipeline for DM3K.
//
// This package holds the flow shared by the CLI and the API server so both
// solve, cache and draw a problem document the same way.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Solve: send the document to the solver service for an allocation trace
//  2. Layout: compute the solution matrix geometry from document and trace
//  3. Render: draw the matrix as SVG, PNG, PDF or JSON
//
// A fourth, independent stage draws the problem diagram itself (DOT, SVG,
// PNG, PDF) without contacting the solver.
//
// Each stage can be run on its own or as part of the complete pipeline, and
// each consults the [cache.Cache] before doing work.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, solver.New(url), logger)
//	result, err := runner.Execute(ctx, doc, pipeline.Options{
//	    WidthFunc: "ratio",
//	    Formats:   []string{"svg"},
//	})
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	sol, err := runner.Solve(ctx, doc, opts)
//	l, err := runner.Layout(ctx, doc, sol.FullTrace, opts)
//	artifacts, err := runner.Render(ctx, l, opts)
//	diagram, err := runner.Diagram(ctx, doc, opts)
package pipeline

import (
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dm3k/dm3k/pkg/cache"
	"github.com/dm3k/dm3k/pkg/layout"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultAlgorithm is the solver algorithm used when none is given.
	DefaultAlgorithm = "KnapsackViz"

	// DefaultWidthFunc drives column widths when none is given.
	DefaultWidthFunc = string(layout.DefaultWidthFunc)

	// DefaultFrameWidth is the drawing frame used to derive container sizes.
	DefaultFrameWidth = layout.DefaultFrameWidth
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
	FormatDOT  = "dot"
)

// pngScale renders PNGs at twice the SVG resolution.
const pngScale = 2.0

// ValidFormats is the set of formats a solution layout renders to.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
}

// ValidDiagramFormats is the set of formats the problem diagram renders to.
var ValidDiagramFormats = map[string]bool{
	FormatDOT: true,
	FormatSVG: true,
	FormatPNG: true,
	FormatPDF: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Solve options
	Algorithm string `json:"algorithm,omitempty"`
	Refresh   bool   `json:"refresh,omitempty"`

	// Layout options
	WidthFunc       string  `json:"width_func,omitempty"`
	ContainerWidth  float64 `json:"container_width,omitempty"`
	ContainerHeight float64 `json:"container_height,omitempty"`
	FrameWidth      float64 `json:"frame_width,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Title    string   `json:"title,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`  // Diagram labels list budgets, costs and rewards
	Color    string   `json:"color,omitempty"`     // Cell fill, e.g. "#4a90d9"
	NoLabels bool     `json:"no_labels,omitempty"` // Omit instance and container names

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// DocumentHash is the content hash of the input document.
	DocumentHash string

	// Solution is the solver response.
	Solution *layout.Solution

	// Layout is the computed matrix geometry.
	Layout *layout.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ResourceClasses int
	ActivityClasses int
	TraceEntries    int
	CellCount       int
	SolveTime       time.Duration
	LayoutTime      time.Duration
	RenderTime      time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	SolveHit  bool `json:"solve_hit"`  // Whether the solution came from cache
	LayoutHit bool `json:"layout_hit"` // Whether the layout came from cache
	RenderHit bool `json:"render_hit"` // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a layout output format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: svg, png, pdf, json)", format)
	}
	return nil
}

// ValidateFormats checks that all layout output formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateDiagramFormat checks that a diagram output format is valid.
func ValidateDiagramFormat(format string) error {
	if !ValidDiagramFormats[format] {
		return fmt.Errorf("invalid diagram format: %q (must be one of: dot, svg, png, pdf)", format)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetSolveDefaults()
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetSolveDefaults sets default values for solving.
func (o *Options) SetSolveDefaults() {
	if o.Algorithm == "" {
		o.Algorithm = DefaultAlgorithm
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.WidthFunc == "" {
		o.WidthFunc = DefaultWidthFunc
	}
	if o.FrameWidth == 0 {
		o.FrameWidth = DefaultFrameWidth
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	lo := o.LayoutOptions()
	return lo.ValidateAndSetDefaults()
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// colorPattern accepts hex colors and plain color names.
var colorPattern = regexp.MustCompile(`^(#[0-9a-fA-F]{3}|#[0-9a-fA-F]{6}|[a-zA-Z]+)$`)

// ValidateColor checks that a cell color is a hex triplet or a color name.
func ValidateColor(color string) error {
	if color != "" && !colorPattern.MatchString(color) {
		return fmt.Errorf("invalid color: %q (use #rgb, #rrggbb or a color name)", color)
	}
	return nil
}

// ValidateForRender validates and sets defaults for rendering a layout.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateColor(o.Color); err != nil {
		return err
	}
	return ValidateFormats(o.Formats)
}

// ValidateForDiagram validates and sets defaults for rendering the problem
// diagram.
func (o *Options) ValidateForDiagram() error {
	o.SetRenderDefaults()
	for _, f := range o.Formats {
		if err := ValidateDiagramFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// LayoutOptions returns the options passed to [layout.Compute].
func (o *Options) LayoutOptions() layout.Options {
	return layout.Options{
		WidthFunc:       layout.WidthFunc(o.WidthFunc),
		ContainerWidth:  o.ContainerWidth,
		ContainerHeight: o.ContainerHeight,
		FrameWidth:      o.FrameWidth,
	}
}

// SolutionKeyOpts returns cache key options for solving.
func (o *Options) SolutionKeyOpts() cache.SolutionKeyOpts {
	return cache.SolutionKeyOpts{Algorithm: o.Algorithm}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		WidthFunc:       o.WidthFunc,
		ContainerWidth:  o.ContainerWidth,
		ContainerHeight: o.ContainerHeight,
		FrameWidth:      o.FrameWidth,
	}
}

// ArtifactKeyOpts returns cache key options for rendering a layout.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		Title:    o.Title,
		Color:    o.Color,
		NoLabels: o.NoLabels,
	}
}

// DiagramKeyOpts returns cache key options for rendering the diagram.
func (o *Options) DiagramKeyOpts(format string) cache.DiagramKeyOpts {
	return cache.DiagramKeyOpts{Format: format, Detailed: o.Detailed}
}
