// Package domain contains the business logic for source verification.
package domain

// MissingSource is a declared source that resolved neither inline nor through
// the hash index. The declared hash and alternate retrieval URLs are carried
// forward for downstream fetchers.
type MissingSource struct {
	Keccak256 string   `json:"keccak256"`
	URLs      []string `json:"urls,omitempty"`
}

// InvalidSource is a declared source whose inline metadata content failed its
// own hash check: the metadata document is self-inconsistent for that entry.
type InvalidSource struct {
	ExpectedHash   string `json:"expectedHash"`
	CalculatedHash string `json:"calculatedHash"`
}
