package pipeline

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic_WritesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playlist.m3u")

	err := writeFileAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "#EXTM3U\n")

		return err
	})
	require.NoError(t, err)
	require.Equal(t, "#EXTM3U\n", string(mustRead(t, path)))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestWriteFileAtomic_FailureKeepsExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "playlist.m3u")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

	err := writeFileAtomic(path, func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")

		return errors.New("boom")
	})
	require.Error(t, err)
	require.Equal(t, "old", string(mustRead(t, path)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestWriteFileAtomic_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "playlist.m3u")

	err := writeFileAtomic(path, func(w io.Writer) error { return nil })
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to create temp file")
}
