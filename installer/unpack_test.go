package installer

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnpackArchiveTarGz(t *testing.T) {
	content := makeTarGz(t, map[string]string{
		"bin/tool":   "#!/bin/sh\n",
		"doc/README": "hello",
	})

	dest := t.TempDir()
	require.NoError(t, unpackArchive(content, "tool-1.0.tar.gz", dest))

	raw, err := os.ReadFile(filepath.Join(dest, "doc", "README"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(raw))

	info, err := os.Stat(filepath.Join(dest, "bin", "tool"))
	require.NoError(t, err)
	assert.EqualValues(t, 0755, info.Mode().Perm())
}

func TestUnpackArchivePlainFile(t *testing.T) {
	dest := t.TempDir()
	require.NoError(t, unpackArchive([]byte("just bytes"), "tool-1.0.bin", dest))

	raw, err := os.ReadFile(filepath.Join(dest, "tool-1.0.bin"))
	require.NoError(t, err)
	assert.Equal(t, "just bytes", string(raw))
}

func TestUnpackArchiveCorruptGzip(t *testing.T) {
	dest := t.TempDir()
	err := unpackArchive([]byte("definitely not gzip"), "tool-1.0.tar.gz", dest)
	require.Error(t, err)
}

func TestUntarGzRejectsPathTraversal(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	hdr := &tar.Header{
		Name: "../../escape",
		Mode: 0644,
		Size: 4,
	}
	require.NoError(t, tw.WriteHeader(hdr))
	_, err := tw.Write([]byte("evil"))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	dest := t.TempDir()
	err = untarGz(buf.Bytes(), dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes extraction root")

	if _, statErr := os.Stat(filepath.Join(dest, "..", "..", "escape")); !os.IsNotExist(statErr) {
		t.Errorf("Expected traversal target to not exist, stat err=%v", statErr)
	}
}
