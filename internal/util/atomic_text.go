package util

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrTooLarge is returned by CopyToFileAtomic when src holds more than limit bytes.
var ErrTooLarge = errors.New("content exceeds limit")

// CopyToFileAtomic streams at most limit bytes from src into a temp file under
// tmpDir and renames it to path. Nothing is left behind when the copy fails or
// the limit is exceeded.
func CopyToFileAtomic(path, tmpDir string, src io.Reader, limit int64) (int64, error) {
	if err := EnsureDir(tmpDir); err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(tmpDir, "upload-*"+filepath.Ext(path))
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}

	n, err := io.Copy(tmp, io.LimitReader(src, limit+1))
	if err != nil {
		cleanup()
		return n, fmt.Errorf("write temp file: %w", err)
	}
	if n > limit {
		cleanup()
		return n, ErrTooLarge
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return n, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return n, fmt.Errorf("atomic move: %w", err)
	}
	return n, nil
}
