package ingest

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Expander flattens a set of input files by replacing every archive container
// with its extracted members. Archives are recognized by content, never by
// file extension, and nested archives are expanded transitively.
type Expander struct {
	logger *slog.Logger
}

// NewExpander creates an expander that logs non-fatal diagnostics to logger.
func NewExpander(logger *slog.Logger) *Expander {
	if logger == nil {
		logger = slog.Default()
	}
	return &Expander{logger: logger}
}

// Expand returns files with every archive replaced by its members. A buffer
// that claims to be an archive but cannot be listed is kept as a regular file.
func (e *Expander) Expand(files []File) []File {
	out := make([]File, 0, len(files))
	for _, f := range files {
		members, ok := e.explode(f)
		if !ok {
			out = append(out, f)
			continue
		}
		e.logger.Debug("expanded archive", "path", f.Path, "members", len(members))
		out = append(out, e.Expand(members)...)
	}
	return out
}

// explode attempts to open f as each supported container format in turn.
func (e *Expander) explode(f File) ([]File, bool) {
	if members, err := e.extractZip(f.Content); err == nil {
		return members, true
	}
	if inner, err := gunzip(f); err == nil {
		return []File{inner}, true
	}
	if members, err := extractTar(f.Content); err == nil {
		return members, true
	}
	return nil, false
}

// extractZip unpacks a zip buffer through a transient staging directory and
// reads the tree back with member paths relative to the staging root, so the
// staging directory name never leaks into exposed paths. The staging
// directory is removed on every exit path.
func (e *Expander) extractZip(data []byte) ([]File, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	staging := filepath.Join(os.TempDir(), "sourcify-staging-"+uuid.NewString())
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		rel := sanitizeMemberPath(zf.Name)
		if rel == "" {
			continue
		}
		if err := writeZipMember(zf, filepath.Join(staging, filepath.FromSlash(rel))); err != nil {
			return nil, err
		}
	}

	var out []File
	err = filepath.WalkDir(staging, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(staging, p)
		if err != nil {
			return err
		}
		out = append(out, File{Path: filepath.ToSlash(rel), Content: content})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func writeZipMember(zf *zip.File, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	rc, err := zf.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	w, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer w.Close()
	_, err = io.Copy(w, rc)
	return err
}

// gunzip decompresses a single gzip stream. The member keeps the container's
// path with a trailing .gz stripped; an inner tar is handled by the caller's
// recursive expansion.
func gunzip(f File) (File, error) {
	gr, err := gzip.NewReader(bytes.NewReader(f.Content))
	if err != nil {
		return File{}, err
	}
	defer gr.Close()
	content, err := io.ReadAll(gr)
	if err != nil {
		return File{}, err
	}
	name := strings.TrimSuffix(f.Path, ".gz")
	if name == "" {
		name = f.Path
	}
	return File{Path: name, Content: content}, nil
}

func extractTar(data []byte) ([]File, error) {
	tr := tar.NewReader(bytes.NewReader(data))
	var out []File
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		rel := sanitizeMemberPath(hdr.Name)
		if rel == "" {
			continue
		}
		content, err := io.ReadAll(tr)
		if err != nil {
			return nil, err
		}
		out = append(out, File{Path: rel, Content: content})
	}
	if len(out) == 0 {
		return nil, errors.New("no regular files in tar")
	}
	return out, nil
}

// sanitizeMemberPath normalizes an archive member name to a clean relative
// slash path. Absolute paths, parent-directory escapes, and macOS resource
// fork entries yield "" and are skipped.
func sanitizeMemberPath(name string) string {
	p := path.Clean(strings.ReplaceAll(name, `\`, "/"))
	if p == "." || p == ".." || path.IsAbs(p) || strings.HasPrefix(p, "../") {
		return ""
	}
	if p == "__MACOSX" || strings.HasPrefix(p, "__MACOSX/") || path.Base(p) == ".DS_Store" {
		return ""
	}
	return p
}
