// Package validation provides input validation for sourcify.
package validation

import (
	"errors"
	"strings"

	"golang.org/x/mod/semver"
)

// ValidateCompilerVersion validates a solc version string as recorded in
// compiler metadata, e.g. "0.8.28" or "0.8.28+commit.7893614a".
func ValidateCompilerVersion(v string) error {
	if v == "" {
		return errors.New("compiler version cannot be empty")
	}

	// Strip the commit suffix solc appends; semver treats it as build metadata
	base, _, _ := strings.Cut(v, "+")
	base = strings.TrimPrefix(base, "v")
	if base == "" {
		return errors.New("compiler version cannot be empty")
	}

	// semver library expects version to start with 'v'
	if !semver.IsValid("v" + base) {
		return errors.New("invalid compiler version: must be in format X.Y.Z")
	}

	// Require all of major.minor.patch; solc always emits three parts
	mainPart, _, _ := strings.Cut(base, "-")
	if strings.Count(mainPart, ".") < 2 {
		return errors.New("invalid compiler version: must be in format X.Y.Z (major.minor.patch)")
	}

	return nil
}

// CompareCompilerVersions compares two solc versions.
// Returns -1 if v1 < v2, 0 if v1 == v2, 1 if v1 > v2.
func CompareCompilerVersions(v1, v2 string) int {
	return semver.Compare(canonical(v1), canonical(v2))
}

func canonical(v string) string {
	base, _, _ := strings.Cut(v, "+")
	return "v" + strings.TrimPrefix(base, "v")
}

// ValidateSourcePath validates a declared source path: relative, slash
// separated, no parent-directory escapes.
func ValidateSourcePath(p string) error {
	if p == "" {
		return errors.New("source path cannot be empty")
	}
	if strings.HasPrefix(p, "/") || strings.Contains(p, `\`) {
		return errors.New("source path must be a relative slash path")
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return errors.New("source path must not contain parent-directory segments")
		}
	}
	return nil
}
