// Package filex moves file contents between the local disk and the drive.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// ReadUpload reads path for upload and returns its bytes and base name.
// Directories and files larger than maxBytes are rejected.
func ReadUpload(path string, maxBytes int64) ([]byte, string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, "", fmt.Errorf("stat %s: %w", path, err)
	}
	if fi.IsDir() {
		return nil, "", fmt.Errorf("%s is a directory", path)
	}
	if fi.Size() > maxBytes {
		return nil, "", fmt.Errorf("%s is %d bytes, limit is %d", path, fi.Size(), maxBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	return data, filepath.Base(path), nil
}

// WriteDownload writes data to dir/name, creating dir if needed, and
// returns the full path. Existing files are not overwritten.
func WriteDownload(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	path := filepath.Join(dir, filepath.Base(name))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, f.Close()
}
