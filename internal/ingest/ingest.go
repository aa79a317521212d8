// Package ingest collects candidate verification inputs from raw buffers and
// filesystem paths, transparently expanding archive containers into their
// member files.
package ingest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// File is a raw input file: a path label and its content bytes. Files are
// never mutated after creation; downstream components treat them as read-only.
type File struct {
	Path    string
	Content []byte
}

// ReadPaths reads the given filesystem paths into Files. Directories are
// traversed recursively; regular files are read whole. When ignored is
// non-nil, unreadable paths are appended to it and skipped; when it is nil,
// the first unreadable path aborts with an error naming it.
func ReadPaths(paths []string, ignored *[]string) ([]File, error) {
	var out []File
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			if ignored != nil {
				*ignored = append(*ignored, p)
				continue
			}
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		if !info.IsDir() {
			content, err := os.ReadFile(p)
			if err != nil {
				if ignored != nil {
					*ignored = append(*ignored, p)
					continue
				}
				return nil, fmt.Errorf("reading %s: %w", p, err)
			}
			out = append(out, File{Path: filepath.ToSlash(p), Content: content})
			continue
		}
		files, err := readDir(p, ignored)
		if err != nil {
			return nil, err
		}
		out = append(out, files...)
	}
	return out, nil
}

func readDir(root string, ignored *[]string) ([]File, error) {
	var out []File
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if ignored != nil {
				*ignored = append(*ignored, p)
				return nil
			}
			return fmt.Errorf("reading %s: %w", p, err)
		}
		if d.IsDir() {
			return nil
		}
		content, err := os.ReadFile(p)
		if err != nil {
			if ignored != nil {
				*ignored = append(*ignored, p)
				return nil
			}
			return fmt.Errorf("reading %s: %w", p, err)
		}
		out = append(out, File{Path: filepath.ToSlash(p), Content: content})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
