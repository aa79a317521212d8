package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tch-dev/sourcify/internal/ingest"
	"github.com/tch-dev/sourcify/internal/metadata"
)

// CheckedContract is the per-metadata-document result of matching declared
// sources against the available content. It is constructed once by the
// resolver and not mutated afterward; WithAllSources returns a new value.
type CheckedContract struct {
	// Metadata is the document the contract was resolved from.
	Metadata *metadata.Document `json:"-"`

	// Name and CompiledPath come from the document's sole compilation target.
	Name         string `json:"name"`
	CompiledPath string `json:"compiledPath"`

	// Sources holds content whose computed hash equals the declared hash.
	Sources map[string]string `json:"sources"`

	// Missing and Invalid hold the declared sources that did not resolve.
	Missing map[string]MissingSource `json:"missing,omitempty"`
	Invalid map[string]InvalidSource `json:"invalid,omitempty"`

	// PathMap records, for sources resolved through the hash index, the
	// submitted file each declared source path was matched to.
	PathMap map[string]string `json:"pathMap,omitempty"`
}

// IsValid reports whether every declared source resolved: no missing and no
// invalid entries.
func (c *CheckedContract) IsValid() bool {
	return len(c.Missing) == 0 && len(c.Invalid) == 0
}

// StatusMessage summarizes the unresolved sources for diagnostics.
func (c *CheckedContract) StatusMessage() string {
	if c.IsValid() {
		return fmt.Sprintf("%s: all %d sources verified", c.Name, len(c.Sources))
	}
	var parts []string
	if len(c.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing: %s", strings.Join(sortedPaths(c.Missing), ", ")))
	}
	if len(c.Invalid) > 0 {
		parts = append(parts, fmt.Sprintf("invalid: %s", strings.Join(sortedPaths(c.Invalid), ", ")))
	}
	return fmt.Sprintf("%s: %s", c.Name, strings.Join(parts, "; "))
}

// WithAllSources returns a new contract whose source set is widened with the
// full set of submitted files, each keyed by its own path, for consumers that
// want the complete uploaded tree rather than only the declared subset.
// Hash-verified entries always win on key collision, so applying the widening
// twice equals applying it once.
func (c *CheckedContract) WithAllSources(files []ingest.File) *CheckedContract {
	widened := *c
	widened.Sources = make(map[string]string, len(c.Sources)+len(files))
	for p, content := range c.Sources {
		widened.Sources[p] = content
	}
	for _, f := range files {
		if _, ok := widened.Sources[f.Path]; !ok {
			widened.Sources[f.Path] = string(f.Content)
		}
	}
	return &widened
}

func sortedPaths[V any](m map[string]V) []string {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
