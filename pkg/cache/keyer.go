package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// SolutionKeyOpts holds the options that change a solver result.
type SolutionKeyOpts struct {
	Algorithm string `json:"algorithm"`
}

// LayoutKeyOpts holds the options that change a layout.
type LayoutKeyOpts struct {
	WidthFunc       string  `json:"width_func"`
	ContainerWidth  float64 `json:"container_width"`
	ContainerHeight float64 `json:"container_height"`
	FrameWidth      float64 `json:"frame_width"`
}

// DiagramKeyOpts holds the options that change a rendered diagram.
type DiagramKeyOpts struct {
	Format   string `json:"format"`
	Detailed bool   `json:"detailed"`
}

// ArtifactKeyOpts holds the options that change a rendered layout.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	Title    string `json:"title"`
	Color    string `json:"color"`
	NoLabels bool   `json:"no_labels"`
}

// Keyer derives cache keys.
type Keyer interface {
	// SolutionKey addresses the solver result for a document.
	SolutionKey(docHash string, opts SolutionKeyOpts) string

	// LayoutKey addresses a layout of a document and trace.
	LayoutKey(docHash, traceHash string, opts LayoutKeyOpts) string

	// DiagramKey addresses a rendered problem diagram.
	DiagramKey(docHash string, opts DiagramKeyOpts) string

	// ArtifactKey addresses a rendered layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes the key components under a per-type prefix.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

func (DefaultKeyer) SolutionKey(docHash string, opts SolutionKeyOpts) string {
	return hashKey(KeyTypeSolution, docHash, opts)
}

func (DefaultKeyer) LayoutKey(docHash, traceHash string, opts LayoutKeyOpts) string {
	return hashKey(KeyTypeLayout, docHash, traceHash, opts)
}

func (DefaultKeyer) DiagramKey(docHash string, opts DiagramKeyOpts) string {
	return hashKey(KeyTypeDiagram, docHash, opts)
}

func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey(KeyTypeArtifact, layoutHash, opts)
}

// Hash returns the hex SHA-256 digest of data. Layouts and traces are keyed
// by the hash of their JSON encoding.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey returns keyType + ":" + the digest of the JSON array of parts.
// Option structs carry json tags so field renames change their keys.
func hashKey(keyType string, parts ...any) string {
	h := sha256.New()
	_ = json.NewEncoder(h).Encode(parts)
	return keyType + ":" + hex.EncodeToString(h.Sum(nil))
}
