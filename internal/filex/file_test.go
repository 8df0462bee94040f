package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadUpload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7"), 0o600))

	data, name, err := ReadUpload(path, 100)
	require.NoError(t, err)
	require.Equal(t, "report.pdf", name)
	require.Equal(t, []byte("%PDF-1.7"), data)

	_, _, err = ReadUpload(path, 3)
	require.Error(t, err)

	_, _, err = ReadUpload(dir, 100)
	require.Error(t, err)

	_, _, err = ReadUpload(filepath.Join(dir, "missing"), 100)
	require.Error(t, err)
}

func TestWriteDownload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads")

	got, err := WriteDownload(dir, "notes.txt", []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "notes.txt"), got)

	b, err := os.ReadFile(got)
	require.NoError(t, err)
	require.Equal(t, "hello", string(b))

	if runtime.GOOS != "windows" {
		fi, err := os.Stat(got)
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
	}

	_, err = WriteDownload(dir, "notes.txt", []byte("again"))
	require.Error(t, err, "existing file must not be overwritten")
}

func TestWriteDownload_StripsDirectories(t *testing.T) {
	dir := t.TempDir()

	got, err := WriteDownload(dir, "../../etc/passwd", []byte("x"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "passwd"), got)
}
