package files

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TranscriptFilename is the default name of a transcript created at now.
func TranscriptFilename(now time.Time) string {
	return fmt.Sprintf("transcript_%s.txt", now.Format("20060102_150405"))
}

// DefaultOutputPath returns outputDir/transcript_YYYYMMDD_HHMMSS.txt.
func DefaultOutputPath(outputDir string, now time.Time) string {
	return filepath.Join(outputDir, TranscriptFilename(now))
}

// EnsureDir creates dir and its parents when missing.
func EnsureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// EnsureParentDir creates the directory a file will be written into.
func EnsureParentDir(filePath string) error {
	return EnsureDir(filepath.Dir(filePath))
}

// GetAbsolutePath expands a leading ~ and makes path absolute.
func GetAbsolutePath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Abs(path)
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
