// Package buildinfo holds version information stamped in at build time:
//
//	go build -ldflags "-X github.com/dm3k/dm3k/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/dm3k/dm3k/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/dm3k/dm3k/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/dm3k
//
// The API reports the same values at GET /api/version.
package buildinfo

import "fmt"

// Overridden by -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Template returns the cobra version template.
func Template() string {
	return fmt.Sprintf("{{.Name}} %s (commit %s, built %s)\n", Version, Commit, Date)
}
