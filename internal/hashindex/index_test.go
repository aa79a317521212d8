package hashindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tch-dev/sourcify/internal/ingest"
)

func TestKeccak256(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"},
		{"abc", "abc", "0x4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45"},
		{"hello", "hello", "0x1c8aff950685c2ed4bc3174f3472287b56d9517b9c948127319a09a7a36deac8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Keccak256([]byte(tt.input)))
		})
	}
}

func TestNormalizeHash(t *testing.T) {
	assert.Equal(t, "0xabcdef", NormalizeHash("0xABCDEF"))
	assert.Equal(t, "0xabcdef", NormalizeHash("abcdef"))
	assert.Equal(t, "0xabcdef", NormalizeHash("  0xabcdef "))
}

func TestVariationsCount(t *testing.T) {
	vs := Variations([]byte("a\r\nb"))
	assert.Len(t, vs, 18)
}

func TestVariationsCoverLineEndingFamilies(t *testing.T) {
	vs := Variations([]byte("a\r\nb\r\n"))

	hashes := make(map[string]bool, len(vs))
	for _, v := range vs {
		hashes[Keccak256(v)] = true
	}

	// the LF-normalized and original CRLF forms must both be covered
	assert.True(t, hashes["0x786e46ecdb68951e43c23ce89b6119772c13a2e9c1ab2d60590e000708fad80f"], "lf form")
	assert.True(t, hashes["0xce1488716ea0d34dbda72b328468eeb2c6c3b38115e3b8e621a99560bc87a55d"], "crlf form")
}

func TestVariationsDoNotMutateInput(t *testing.T) {
	content := []byte("a\nb")
	Variations(content)
	assert.Equal(t, []byte("a\nb"), content)
}

func TestBuildAndLookup(t *testing.T) {
	// file submitted with CRLF endings; declared hash computed over LF form
	idx := Build([]ingest.File{
		{Path: "contracts/AB.sol", Content: []byte("a\r\nb\r\n")},
	})

	entry, ok := idx.Lookup("0x786e46ecdb68951e43c23ce89b6119772c13a2e9c1ab2d60590e000708fad80f")
	require.True(t, ok)
	assert.Equal(t, "contracts/AB.sol", entry.Path)
	assert.Equal(t, []byte("a\nb\n"), entry.Content)

	// uppercase, unprefixed lookups resolve too
	_, ok = idx.Lookup("786E46ECDB68951E43C23CE89B6119772C13A2E9C1AB2D60590E000708FAD80F")
	assert.True(t, ok)

	_, ok = idx.Lookup("0x" + "00" + "786e46ecdb68951e43c23ce89b6119772c13a2e9c1ab2d60590e000708fad80f"[2:])
	assert.False(t, ok)
}

func TestBuildTrimmedVariant(t *testing.T) {
	idx := Build([]ingest.File{
		{Path: "Token.sol", Content: []byte("pragma solidity ^0.8.0;\ncontract Token {}\n")},
	})

	// trailing newline stripped
	entry, ok := idx.Lookup("0xf4e16b75630bd0bdfe93ed3b6ea5ebea4e3e878a88f21ff3288bfac4d0fecc59")
	require.True(t, ok)
	assert.Equal(t, "Token.sol", entry.Path)
}
