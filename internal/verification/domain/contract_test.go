package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tch-dev/sourcify/internal/ingest"
)

func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		contract CheckedContract
		want     bool
	}{
		{
			name:     "all sources resolved",
			contract: CheckedContract{Sources: map[string]string{"a.sol": "contract A {}"}},
			want:     true,
		},
		{
			name:     "no sources declared at all",
			contract: CheckedContract{},
			want:     true,
		},
		{
			name: "missing source",
			contract: CheckedContract{
				Sources: map[string]string{"a.sol": "contract A {}"},
				Missing: map[string]MissingSource{"b.sol": {Keccak256: "0xabc"}},
			},
			want: false,
		},
		{
			name: "invalid source",
			contract: CheckedContract{
				Invalid: map[string]InvalidSource{"a.sol": {ExpectedHash: "0x01", CalculatedHash: "0x02"}},
			},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.contract.IsValid())
		})
	}
}

func TestStatusMessage(t *testing.T) {
	valid := CheckedContract{Name: "Token", Sources: map[string]string{"a.sol": "x"}}
	assert.Equal(t, "Token: all 1 sources verified", valid.StatusMessage())

	broken := CheckedContract{
		Name:    "Token",
		Missing: map[string]MissingSource{"b.sol": {}, "a.sol": {}},
		Invalid: map[string]InvalidSource{"c.sol": {}},
	}
	assert.Equal(t, "Token: missing: a.sol, b.sol; invalid: c.sol", broken.StatusMessage())
}

func TestWithAllSources(t *testing.T) {
	base := &CheckedContract{
		Name:    "Token",
		Sources: map[string]string{"contracts/Token.sol": "verified content"},
	}
	files := []ingest.File{
		{Path: "contracts/Token.sol", Content: []byte("submitted content")},
		{Path: "README.md", Content: []byte("docs")},
	}

	widened := base.WithAllSources(files)

	// verified content wins over the submitted file at the same path
	assert.Equal(t, "verified content", widened.Sources["contracts/Token.sol"])
	assert.Equal(t, "docs", widened.Sources["README.md"])

	// receiver is untouched
	assert.Len(t, base.Sources, 1)
}

func TestWithAllSourcesIdempotent(t *testing.T) {
	base := &CheckedContract{
		Name:    "Token",
		Sources: map[string]string{"contracts/Token.sol": "verified content"},
	}
	files := []ingest.File{
		{Path: "contracts/Token.sol", Content: []byte("submitted content")},
		{Path: "lib/Dep.sol", Content: []byte("library Dep {}")},
	}

	once := base.WithAllSources(files)
	twice := once.WithAllSources(files)
	assert.Equal(t, once.Sources, twice.Sources)
}
