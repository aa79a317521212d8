package metadata

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/tch-dev/sourcify/internal/ingest"
)

// buildInfoMarker identifies the Hardhat build-info container format, which
// bundles compiler input and per-contract outputs for many contracts at once.
const buildInfoMarker = `"hh-sol-build-info-1"`

// MalformedTargetError aborts a whole batch: one or more metadata documents
// declare a compilationTarget with a size other than one.
type MalformedTargetError struct {
	Paths []string
}

func (e *MalformedTargetError) Error() string {
	return fmt.Sprintf("malformed compilationTarget in metadata file(s): %s", strings.Join(e.Paths, ", "))
}

// Classification partitions expanded input files. Build-info containers are
// decomposed: their input sources merge into Sources and their per-contract
// metadata into Metadata.
type Classification struct {
	Metadata []*Document
	Sources  []ingest.File
}

// Classify assigns every file to exactly one category. A buffer that fails to
// parse as a structured document is a plain source file; a malformed
// compilationTarget fails the whole batch.
func Classify(files []ingest.File, logger *slog.Logger) (*Classification, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Classification{}
	var malformed []string

	for _, f := range files {
		if strings.Contains(string(f.Content), buildInfoMarker) {
			if c.addBuildInfo(f, &malformed, logger) {
				continue
			}
			logger.Debug("build-info marker present but file is not parsable, treating as source", "path", f.Path)
		}

		doc, err := Parse(f.Content)
		if err != nil {
			c.Sources = append(c.Sources, f)
			continue
		}
		doc.FilePath = f.Path
		if err := doc.ValidateTarget(); err != nil {
			logger.Warn("rejecting metadata document", "path", f.Path, "error", err)
			malformed = append(malformed, f.Path)
			continue
		}
		c.Metadata = append(c.Metadata, doc)
	}

	if len(malformed) > 0 {
		return nil, &MalformedTargetError{Paths: malformed}
	}
	return c, nil
}

// buildInfoFile is the subset of the Hardhat build-info format the classifier
// consumes: compiler input sources and per-contract output metadata.
type buildInfoFile struct {
	Format string `json:"_format"`
	Input  struct {
		Sources map[string]struct {
			Content string `json:"content"`
		} `json:"sources"`
	} `json:"input"`
	Output struct {
		Contracts map[string]map[string]struct {
			Metadata string `json:"metadata"`
		} `json:"contracts"`
	} `json:"output"`
}

// addBuildInfo decomposes a build-info container. It returns false when the
// file cannot be parsed as one, letting the caller fall back to the regular
// classification path. Map keys are visited in sorted order so repeated runs
// produce identical output.
func (c *Classification) addBuildInfo(f ingest.File, malformed *[]string, logger *slog.Logger) bool {
	var bi buildInfoFile
	if err := json.Unmarshal(f.Content, &bi); err != nil {
		return false
	}
	if bi.Input.Sources == nil && bi.Output.Contracts == nil {
		return false
	}

	for _, srcPath := range sortedKeys(bi.Input.Sources) {
		c.Sources = append(c.Sources, ingest.File{
			Path:    srcPath,
			Content: []byte(bi.Input.Sources[srcPath].Content),
		})
	}

	for _, srcPath := range sortedKeys(bi.Output.Contracts) {
		contracts := bi.Output.Contracts[srcPath]
		for _, name := range sortedKeys(contracts) {
			raw := contracts[name].Metadata
			if raw == "" {
				continue
			}
			doc, err := Parse([]byte(raw))
			if err != nil {
				logger.Debug("skipping contract with unparsable metadata", "path", f.Path, "contract", name)
				continue
			}
			doc.FilePath = f.Path
			if err := doc.ValidateTarget(); err != nil {
				logger.Warn("rejecting metadata document", "path", f.Path, "contract", name, "error", err)
				*malformed = append(*malformed, f.Path)
				continue
			}
			c.Metadata = append(c.Metadata, doc)
		}
	}
	return true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
