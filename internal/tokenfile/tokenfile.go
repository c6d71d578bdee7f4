// Package tokenfile handles reading and writing the bearer token cache. The
// cache is a plain-text file holding a single token value, stored next to the
// key file it was minted from (same directory and stem, ".token" extension).
// This is a leaf package imported by the client to keep file handling in one
// place.
package tokenfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FilePerms restricts token files to owner-only read/write.
const FilePerms = 0o600

// Ext is the cache file extension, appended to the key file's stem.
const Ext = ".token"

// Path maps a key file path to its sibling token cache path:
// /etc/acme/prod.json -> /etc/acme/prod.token.
func Path(keyPath string) string {
	stem := strings.TrimSuffix(filepath.Base(keyPath), filepath.Ext(keyPath))

	return filepath.Join(filepath.Dir(keyPath), stem+Ext)
}

// Exists reports whether a token cache file is present at path. Stat
// failures other than not-exist surface, so an unreadable cache is not
// mistaken for a missing one.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("tokenfile: stat %s: %w", path, err)
	}

	return true, nil
}

// Read returns the cached token value, trimmed of surrounding whitespace.
// No trailing-newline guarantee is assumed for the file content.
// A missing file is an error; callers gate on Exists first.
func Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("tokenfile: reading %s: %w", path, err)
	}

	return strings.TrimSpace(string(data)), nil
}

// Age returns how long ago the token file was last written, using the file
// modification time as the issuance-time proxy.
func Age(path string) (time.Duration, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("tokenfile: stat %s: %w", path, err)
	}

	return time.Since(info.ModTime()), nil
}

// Save writes the token to disk atomically (write-to-temp + rename) with 0600
// permissions. A concurrent reader never observes a partially written token.
// Never logs token values.
func Save(path, token string) error {
	dir := filepath.Dir(path)

	// Atomic write: temp file in the same directory, then rename.
	// Same directory guarantees same filesystem for rename(2).
	tmp, err := os.CreateTemp(dir, ".token-*.tmp")
	if err != nil {
		return fmt.Errorf("tokenfile: creating temp file: %w", err)
	}

	tmpPath := tmp.Name()

	// Clean up temp file on any error path.
	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := os.Chmod(tmpPath, FilePerms); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenfile: setting permissions: %w", err)
	}

	if _, err := tmp.WriteString(token); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenfile: writing: %w", err)
	}

	// Flush to stable storage before rename so a power loss between close and
	// rename cannot leave an empty or partial token file at the final path.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenfile: syncing: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("tokenfile: closing: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("tokenfile: renaming: %w", err)
	}

	success = true

	return nil
}

// Delete removes the token cache file. Deleting a file that does not exist is
// a no-op, not an error — lifecycle paths call this defensively.
func Delete(path string) error {
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("tokenfile: removing %s: %w", path, err)
	}

	return nil
}
