package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrCorrupt indicates a manifest file exists but cannot be parsed.
var ErrCorrupt = errors.New("manifest file is corrupt")

// Path returns the manifest file path for a project folder.
func Path(projectPath string) string {
	return filepath.Join(projectPath, Filename)
}

// BackupPath returns the backup file path for a project folder.
func BackupPath(projectPath string) string {
	return Path(projectPath) + BackupSuffix
}

// Exists reports whether a manifest file is present in the project folder.
// Presence says nothing about validity; use Read for that.
func Exists(projectPath string) bool {
	info, err := os.Stat(Path(projectPath))
	return err == nil && info.Mode().IsRegular()
}

// Read loads and parses the manifest for a project folder.
// It returns (nil, nil) when no manifest file exists, and an error
// wrapping ErrCorrupt when the file exists but cannot be parsed.
func Read(projectPath string) (*Record, error) {
	data, err := os.ReadFile(Path(projectPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &rec, nil
}

// ReadRaw returns the manifest file contents without parsing, for
// operator inspection of corrupt files. Returns ("", nil) when absent.
func ReadRaw(projectPath string) (string, error) {
	data, err := os.ReadFile(Path(projectPath))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read manifest: %w", err)
	}
	return string(data), nil
}

// Write persists the manifest for a project folder.
// The write is atomic: content goes to a temp file which is then renamed
// over the manifest, so readers never observe a partial document.
func Write(projectPath string, rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	target := Path(projectPath)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp manifest: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename temp manifest: %w", err)
	}
	return nil
}

// Backup copies the current manifest file to its backup path.
// It is a no-op when no manifest exists.
func Backup(projectPath string) error {
	src, err := os.Open(Path(projectPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open manifest for backup: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(BackupPath(projectPath))
	if err != nil {
		return fmt.Errorf("create manifest backup: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copy manifest backup: %w", err)
	}
	return nil
}
