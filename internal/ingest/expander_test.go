package ingest

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zipBytes(t *testing.T, members map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range members {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func tarBytes(t *testing.T, members map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, content := range members {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0o644,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err := gw.Write(data)
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

func paths(files []File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

func TestExpandPlainFilesUnchanged(t *testing.T) {
	e := NewExpander(nil)
	in := []File{
		{Path: "a.sol", Content: []byte("contract A {}")},
		{Path: "b.sol", Content: []byte("contract B {}")},
	}
	out := e.Expand(in)
	assert.Equal(t, in, out)
}

func TestExpandZip(t *testing.T) {
	e := NewExpander(nil)
	archive := zipBytes(t, map[string]string{
		"contracts/Token.sol": "contract Token {}",
		"metadata.json":       "{}",
	})

	out := e.Expand([]File{{Path: "upload.zip", Content: archive}})

	require.Len(t, out, 2)
	assert.ElementsMatch(t, []string{"contracts/Token.sol", "metadata.json"}, paths(out))
	for _, f := range out {
		if f.Path == "contracts/Token.sol" {
			assert.Equal(t, "contract Token {}", string(f.Content))
		}
	}
}

func TestExpandNestedArchives(t *testing.T) {
	e := NewExpander(nil)
	inner := zipBytes(t, map[string]string{"Token.sol": "contract Token {}"})
	outer := zipBytes(t, map[string]string{
		"inner.zip":  string(inner),
		"README.txt": "hello",
	})

	out := e.Expand([]File{{Path: "outer.zip", Content: outer}})

	assert.ElementsMatch(t, []string{"Token.sol", "README.txt"}, paths(out))
}

func TestExpandTarGz(t *testing.T) {
	e := NewExpander(nil)
	archive := gzipBytes(t, tarBytes(t, map[string]string{
		"src/A.sol": "contract A {}",
	}))

	out := e.Expand([]File{{Path: "bundle.tar.gz", Content: archive}})

	require.Len(t, out, 1)
	assert.Equal(t, "src/A.sol", out[0].Path)
	assert.Equal(t, "contract A {}", string(out[0].Content))
}

func TestExpandCorruptArchiveFailsOpen(t *testing.T) {
	e := NewExpander(nil)
	// Looks like a zip but is truncated garbage: kept as a regular file.
	corrupt := []byte("PK\x03\x04 not actually a zip")

	out := e.Expand([]File{{Path: "broken.zip", Content: corrupt}})

	require.Len(t, out, 1)
	assert.Equal(t, "broken.zip", out[0].Path)
	assert.Equal(t, corrupt, out[0].Content)
}

func TestExpandSkipsHostileMemberPaths(t *testing.T) {
	e := NewExpander(nil)
	archive := zipBytes(t, map[string]string{
		"../escape.sol":        "bad",
		"ok.sol":               "contract OK {}",
		"__MACOSX/._junk":      "resource fork",
		"nested/.DS_Store":     "finder",
		"nested/contracts.sol": "contract Nested {}",
	})

	out := e.Expand([]File{{Path: "upload.zip", Content: archive}})

	assert.ElementsMatch(t, []string{"ok.sol", "nested/contracts.sol"}, paths(out))
}

func TestSanitizeMemberPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"contracts/Token.sol", "contracts/Token.sol"},
		{"./contracts/Token.sol", "contracts/Token.sol"},
		{"a//b.sol", "a/b.sol"},
		{`win\path\c.sol`, "win/path/c.sol"},
		{"../escape.sol", ""},
		{"/abs.sol", ""},
		{"..", ""},
		{"__MACOSX/._x", ""},
		{"a/.DS_Store", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeMemberPath(tt.in), tt.in)
	}
}
