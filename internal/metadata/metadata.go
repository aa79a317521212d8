// Package metadata parses Solidity compiler metadata documents and classifies
// uploaded files into metadata, build-info containers, and plain sources.
package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/xeipuuv/gojsonschema"
)

// ErrNotMetadata reports that a buffer does not qualify as a Solidity
// compiler metadata document in any of its recognized encodings.
var ErrNotMetadata = errors.New("not a compiler metadata document")

// Document is a parsed compiler metadata document: the manifest solc emits
// recording per-source hashes and compilation settings for one contract.
type Document struct {
	Language string            `json:"language"`
	Compiler Compiler          `json:"compiler"`
	Settings Settings          `json:"settings"`
	Sources  map[string]Source `json:"sources"`
	Output   json.RawMessage   `json:"output,omitempty"`
	Version  int               `json:"version,omitempty"`

	// FilePath names the submitted file this document was parsed from. For a
	// document embedded in a build-info container it names the container.
	FilePath string `json:"-"`
}

// Compiler identifies the compiler that produced the document.
type Compiler struct {
	Version   string `json:"version"`
	Keccak256 string `json:"keccak256,omitempty"`
}

// Settings holds the compiler settings recorded in the document.
type Settings struct {
	CompilationTarget map[string]string            `json:"compilationTarget"`
	EVMVersion        string                       `json:"evmVersion,omitempty"`
	Optimizer         *Optimizer                   `json:"optimizer,omitempty"`
	Remappings        []string                     `json:"remappings,omitempty"`
	Libraries         map[string]map[string]string `json:"libraries,omitempty"`
}

// Optimizer holds optimizer settings.
type Optimizer struct {
	Enabled bool `json:"enabled"`
	Runs    int  `json:"runs"`
}

// Source is one declared source entry: inline content, or a keccak256 hash
// with alternate retrieval locations.
type Source struct {
	Content   string   `json:"content,omitempty"`
	Keccak256 string   `json:"keccak256,omitempty"`
	URLs      []string `json:"urls,omitempty"`
	License   string   `json:"license,omitempty"`
}

// Target returns the sole compilation target as (source path, contract name).
// Call ValidateTarget first; on a malformed document the result is undefined.
func (d *Document) Target() (string, string) {
	for p, n := range d.Settings.CompilationTarget {
		return p, n
	}
	return "", ""
}

// ValidateTarget enforces that the document declares exactly one compilation
// target. The target path labels all downstream output, so a document
// violating this is malformed rather than silently usable.
func (d *Document) ValidateTarget() error {
	if n := len(d.Settings.CompilationTarget); n != 1 {
		return fmt.Errorf("metadata must declare exactly one compilationTarget, found %d", n)
	}
	return nil
}

// documentSchema is the structural shape a qualifying metadata document must
// have, checked after JSON decoding so malformed field types are rejected
// instead of silently zeroed.
const documentSchema = `{
	"type": "object",
	"required": ["language", "compiler", "settings", "sources"],
	"properties": {
		"language": {"type": "string"},
		"compiler": {
			"type": "object",
			"required": ["version"],
			"properties": {"version": {"type": "string"}}
		},
		"settings": {
			"type": "object",
			"properties": {
				"compilationTarget": {
					"type": "object",
					"additionalProperties": {"type": "string"}
				}
			}
		},
		"sources": {
			"type": "object",
			"additionalProperties": {"type": "object"}
		}
	}
}`

var documentSchemaLoader = gojsonschema.NewStringLoader(documentSchema)

// embeddedDocumentPattern recognizes a metadata document carried as an
// escaped JSON string inside another document, by its characteristic
// compiler/version framing.
var embeddedDocumentPattern = regexp.MustCompile(`"\{\\"compiler\\":\{\\"version\\".*?\},\\"version\\":1\}"`)

// Parse decodes a buffer as a compiler metadata document. Three encodings are
// recognized, in order: the document itself, a JSON-encoded JSON string
// containing the document (double encoding some toolchains produce), and a
// document embedded as an escaped string inside an unrelated document. A
// buffer qualifying under none of them returns ErrNotMetadata.
func Parse(content []byte) (*Document, error) {
	if doc, err := decode(content); err == nil {
		return doc, nil
	}

	var unwrapped string
	if err := json.Unmarshal(content, &unwrapped); err == nil {
		if doc, err := decode([]byte(unwrapped)); err == nil {
			return doc, nil
		}
	}

	if match := embeddedDocumentPattern.Find(content); match != nil {
		var embedded string
		if err := json.Unmarshal(match, &embedded); err == nil {
			if doc, err := decode([]byte(embedded)); err == nil {
				return doc, nil
			}
		}
	}

	return nil, ErrNotMetadata
}

func decode(content []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, ErrNotMetadata
	}
	if doc.Language != "Solidity" || doc.Compiler.Version == "" {
		return nil, ErrNotMetadata
	}
	res, err := gojsonschema.Validate(documentSchemaLoader, gojsonschema.NewBytesLoader(content))
	if err != nil || !res.Valid() {
		return nil, ErrNotMetadata
	}
	return &doc, nil
}
