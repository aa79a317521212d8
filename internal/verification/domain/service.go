package domain

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tch-dev/sourcify/internal/hashindex"
	"github.com/tch-dev/sourcify/internal/ingest"
	"github.com/tch-dev/sourcify/internal/metadata"
	"github.com/tch-dev/sourcify/internal/observability/metrics"
	"github.com/tch-dev/sourcify/internal/validation"
)

// minSupportedSolc is the earliest compiler release whose metadata carries
// per-source keccak256 hashes. Older documents still resolve, but every
// hash-only source will come back missing.
const minSupportedSolc = "0.4.11"

// ErrNoMetadata is returned when a batch contains no parsable compiler
// metadata documents at all: without one the input cannot possibly produce a
// verifiable result.
var ErrNoMetadata = errors.New("no compiler metadata document found")

// Service is the source verification engine. It is stateless across
// invocations; each call builds its own hash index and discards it.
type Service struct {
	expander *ingest.Expander
	logger   *slog.Logger
}

// NewService creates a verification service logging diagnostics to logger.
func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		expander: ingest.NewExpander(logger),
		logger:   logger,
	}
}

// CheckPaths reads the given filesystem paths (directories recursively) and
// verifies their contents. When ignored is non-nil, unreadable paths are
// collected there instead of aborting the run.
func (s *Service) CheckPaths(paths []string, ignored *[]string) ([]*CheckedContract, error) {
	files, err := ingest.ReadPaths(paths, ignored)
	if err != nil {
		return nil, err
	}
	contracts, _, err := s.check(files)
	return contracts, err
}

// CheckFiles verifies a set of in-memory files.
func (s *Service) CheckFiles(files []ingest.File) ([]*CheckedContract, error) {
	contracts, _, err := s.check(files)
	return contracts, err
}

// CheckFilesWithUnused verifies a set of in-memory files and additionally
// returns the expanded input paths never referenced by any metadata document.
func (s *Service) CheckFilesWithUnused(files []ingest.File) ([]*CheckedContract, []string, error) {
	return s.check(files)
}

func (s *Service) check(files []ingest.File) ([]*CheckedContract, []string, error) {
	start := time.Now()

	expanded := s.expander.Expand(files)
	cls, err := metadata.Classify(expanded, s.logger)
	if err != nil {
		metrics.RecordRun("malformed", time.Since(start))
		return nil, nil, err
	}
	if len(cls.Metadata) == 0 {
		metrics.RecordRun("no_metadata", time.Since(start))
		return nil, nil, fmt.Errorf("%w among: %s", ErrNoMetadata, pathList(expanded))
	}

	// The index is fully built before resolution begins and read-only after.
	idx := hashindex.Build(cls.Sources)

	used := make(map[string]bool, len(expanded))
	contracts := make([]*CheckedContract, 0, len(cls.Metadata))
	for _, doc := range cls.Metadata {
		if err := validation.ValidateCompilerVersion(doc.Compiler.Version); err != nil {
			s.logger.Warn("metadata declares unusual compiler version",
				"path", doc.FilePath, "version", doc.Compiler.Version, "error", err)
		} else if validation.CompareCompilerVersions(doc.Compiler.Version, minSupportedSolc) < 0 {
			s.logger.Warn("compiler predates per-source metadata hashes",
				"path", doc.FilePath, "version", doc.Compiler.Version, "min", minSupportedSolc)
		}
		c := resolveSources(doc, idx)
		contracts = append(contracts, c)

		used[doc.FilePath] = true
		for _, p := range c.PathMap {
			used[p] = true
		}

		metrics.RecordContract(c.IsValid())
		metrics.RecordSources("found", len(c.Sources))
		metrics.RecordSources("missing", len(c.Missing))
		metrics.RecordSources("invalid", len(c.Invalid))
		s.logger.Debug("checked contract",
			"contract", c.Name,
			"target", c.CompiledPath,
			"found", len(c.Sources),
			"missing", len(c.Missing),
			"invalid", len(c.Invalid),
		)
	}

	var unused []string
	seen := make(map[string]bool, len(expanded))
	for _, f := range expanded {
		if !used[f.Path] && !seen[f.Path] {
			seen[f.Path] = true
			unused = append(unused, f.Path)
		}
	}

	metrics.RecordRun("ok", time.Since(start))
	return contracts, unused, nil
}

// resolveSources matches every source the document declares against inline
// content or the hash index. Every declared path ends up in exactly one of
// Sources, Missing, or Invalid.
func resolveSources(doc *metadata.Document, idx hashindex.Index) *CheckedContract {
	targetPath, targetName := doc.Target()
	c := &CheckedContract{
		Metadata:     doc,
		Name:         targetName,
		CompiledPath: targetPath,
		Sources:      make(map[string]string, len(doc.Sources)),
		Missing:      make(map[string]MissingSource),
		Invalid:      make(map[string]InvalidSource),
		PathMap:      make(map[string]string),
	}

	for srcPath, src := range doc.Sources {
		if src.Content != "" {
			if src.Keccak256 == "" {
				// Inline content with no declared hash has nothing to verify
				// against; it was trusted at parse time.
				c.Sources[srcPath] = src.Content
				continue
			}
			calculated := hashindex.Keccak256([]byte(src.Content))
			expected := hashindex.NormalizeHash(src.Keccak256)
			if calculated == expected {
				c.Sources[srcPath] = src.Content
				continue
			}
			// An explicit content claim that fails verification is never
			// silently replaced by an index guess.
			c.Invalid[srcPath] = InvalidSource{
				ExpectedHash:   expected,
				CalculatedHash: calculated,
			}
			continue
		}

		if src.Keccak256 != "" {
			if entry, ok := idx.Lookup(src.Keccak256); ok {
				c.Sources[srcPath] = string(entry.Content)
				c.PathMap[srcPath] = entry.Path
				continue
			}
		}

		missing := MissingSource{URLs: src.URLs}
		if src.Keccak256 != "" {
			missing.Keccak256 = hashindex.NormalizeHash(src.Keccak256)
		}
		c.Missing[srcPath] = missing
	}

	return c
}

func pathList(files []ingest.File) string {
	if len(files) == 0 {
		return "(no input files)"
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return strings.Join(paths, ", ")
}
