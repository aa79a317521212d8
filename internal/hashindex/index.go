// Package hashindex builds a content-addressed lookup from keccak256 hashes
// to source file content. Every plausible byte-level normalization of a file
// is hashed, so a source is recognized even when line endings or trailing
// whitespace changed between the original compilation and re-submission.
package hashindex

import (
	"bytes"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/tch-dev/sourcify/internal/ingest"
)

// Entry is the indexed content for one hash, carrying the provenance path of
// the originally submitted file the variant was derived from.
type Entry struct {
	Content []byte
	Path    string
}

// Index maps a 0x-prefixed lowercase hex keccak256 hash to the content that
// produces it. It is built once per verification run and read-only afterward.
type Index map[string]Entry

// Build indexes every variation of every file. Hash collisions across
// variants of different files keep the last write; cryptographic collision
// between distinct legitimate sources is not a concern at this layer.
func Build(files []ingest.File) Index {
	idx := make(Index, len(files)*numVariations)
	for _, f := range files {
		for _, v := range Variations(f.Content) {
			idx[Keccak256(v)] = Entry{Content: v, Path: f.Path}
		}
	}
	return idx
}

// Lookup resolves a declared hash, tolerating missing 0x prefixes and
// uppercase hex.
func (idx Index) Lookup(hash string) (Entry, bool) {
	e, ok := idx[NormalizeHash(hash)]
	return e, ok
}

// Keccak256 returns the 0x-prefixed lowercase hex keccak256 digest of data.
func Keccak256(data []byte) string {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

// NormalizeHash lowercases a hex hash and ensures the 0x prefix.
func NormalizeHash(hash string) string {
	hash = strings.ToLower(strings.TrimSpace(hash))
	if !strings.HasPrefix(hash, "0x") {
		hash = "0x" + hash
	}
	return hash
}

const numVariations = 18

// trailing whitespace as trimmed by the normalization variants
const trailingCutset = " \t\r\n\v\f"

// Variations generates the byte-level normalizations of content: three
// line-ending families crossed with six trailing-whitespace shapes.
func Variations(content []byte) [][]byte {
	out := make([][]byte, 0, numVariations)
	for _, eol := range lineEndingVariants(content) {
		trimmed := bytes.TrimRight(eol, trailingCutset)
		out = append(out,
			eol,
			trimmed,
			append(slice(trimmed), '\n'),
			append(slice(trimmed), '\r', '\n'),
			append(slice(eol), '\n'),
			append(slice(eol), '\r', '\n'),
		)
	}
	return out
}

func lineEndingVariants(content []byte) [][]byte {
	lf := bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	crlf := bytes.ReplaceAll(lf, []byte("\n"), []byte("\r\n"))
	return [][]byte{content, crlf, lf}
}

// slice copies b so the append-based variants never share backing arrays.
func slice(b []byte) []byte {
	out := make([]byte, len(b), len(b)+2)
	copy(out, b)
	return out
}
