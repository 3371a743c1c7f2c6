package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dm3k/dm3k/pkg/document"
	"github.com/dm3k/dm3k/pkg/layout"
	"github.com/dm3k/dm3k/pkg/render"
	"github.com/dm3k/dm3k/pkg/render/diagram"
	"github.com/dm3k/dm3k/pkg/render/matrix"
)

// RenderLayout generates solution matrix artifacts in the requested formats.
func RenderLayout(ctx context.Context, l *layout.Layout, opts Options) (map[string][]byte, error) {
	var svgOpts []matrix.Option
	if opts.Title != "" {
		svgOpts = append(svgOpts, matrix.WithTitle(opts.Title))
	}
	if opts.Color != "" {
		svgOpts = append(svgOpts, matrix.WithColor(opts.Color))
	}
	if opts.NoLabels {
		svgOpts = append(svgOpts, matrix.WithoutLabels())
	}

	var svg []byte
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		if format != FormatJSON && svg == nil {
			svg = matrix.RenderSVG(l, svgOpts...)
		}

		var data []byte
		var err error
		switch format {
		case FormatSVG:
			data = svg
		case FormatPNG:
			data, err = render.ToPNG(ctx, svg, pngScale)
		case FormatPDF:
			data, err = render.ToPDF(ctx, svg)
		case FormatJSON:
			data, err = json.MarshalIndent(l, "", "  ")
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// RenderDiagram draws the problem diagram of d in the requested formats.
// The document is imported into a scratch model to build the diagram, so
// documents that fail to import fail here too.
func RenderDiagram(ctx context.Context, d document.Document, opts Options) (map[string][]byte, error) {
	c, err := diagram.FromDocument(d, document.WithLogger(opts.Logger))
	if err != nil {
		return nil, err
	}
	dot := c.DOT(diagram.Options{Detailed: opts.Detailed})

	var svg []byte
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		if format != FormatDOT && svg == nil {
			if svg, err = diagram.RenderSVG(ctx, dot); err != nil {
				return nil, fmt.Errorf("render svg: %w", err)
			}
		}

		var data []byte
		switch format {
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data = svg
		case FormatPNG:
			data, err = render.ToPNG(ctx, svg, pngScale)
		case FormatPDF:
			data, err = render.ToPDF(ctx, svg)
		default:
			return nil, fmt.Errorf("unsupported diagram format: %s", format)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
