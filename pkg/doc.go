// Package pkg provides the core libraries of DM3K, a toolkit for modelling,
// solving and drawing multi-dimensional knapsack style allocation problems.
//
// # Overview
//
// A problem is a set of resource classes (things with budgets) and activity
// classes (things with costs and rewards), their instances, and the links
// between them: containment, allocation and constraints. The pkg directory is
// organized around that model:
//
//  1. [model] - The in-memory problem graph and its mutation rules
//  2. [adapter] - Sequences model edits with diagram presentation
//  3. [document] - The JSON/YAML document format, import and export
//  4. [solver], [layout], [render] - Solve, lay out and draw a solution
//  5. [pipeline] - Orchestration shared by the CLI and the API server
//
// # Architecture
//
// The typical data flow:
//
//	JSON/YAML document
//	         ↓
//	    [document] package (validate, import into a model)
//	         ↓
//	    [solver] package (solver service returns a full_trace)
//	         ↓
//	    [layout] package (matrix geometry from document + trace)
//	         ↓
//	    [render/matrix] SVG, converted to PDF/PNG by [render]
//
// The problem diagram takes a shorter path: [render/diagram] collects the
// elements an import shows and lays them out with Graphviz.
//
// # Quick Start
//
//	d, _ := document.ReadFile("backpack.json")
//
//	m := model.New()
//	if err := document.Import(m, d); err != nil {
//	    return err
//	}
//
//	sol, _ := solver.New("http://localhost:5000").Solve(ctx, d, "KnapsackViz")
//	l, _ := layout.Compute(d, sol.FullTrace, layout.Options{WidthFunc: layout.WidthRatio})
//	svg := matrix.RenderSVG(l, matrix.WithTitle("Backpack"))
//
// # Supporting Packages
//
// [cache] - Content-addressed caching of solutions, layouts and drawings with
// file, Redis and no-op backends.
//
// [store] - Named document storage with memory, file, Redis, MongoDB and S3
// backends.
//
// [config] - dm3k.toml loading, validation and backend construction.
//
// [errors] - Error codes shared by the CLI and the HTTP API.
//
// [metrics], [observability] - Prometheus collectors behind pluggable hooks.
//
// [httputil] - JSON-over-HTTP helpers with retry for the solver client.
package pkg
