package storage

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ErrInvalidFileName is returned by ValidateFileName; wrapped with the
// specific violation in every non-nil return.
var ErrInvalidFileName = fmt.Errorf("storage: invalid file_name")

// ValidateFileName enforces the single-source-of-truth rule for video
// file names (spec §3, §8): non-empty, no NUL byte, and exactly one path
// component (no separators, no "." or ".." segments). Grounded on the
// original implementation's validate_file_name, which walks
// path::Component and rejects anything but Component::Normal.
func ValidateFileName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: must not be empty", ErrInvalidFileName)
	}
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: must not contain a NUL byte", ErrInvalidFileName)
	}
	clean := filepath.ToSlash(name)
	if strings.Contains(clean, "/") || strings.Contains(clean, `\`) {
		return fmt.Errorf("%w: must be a single path component", ErrInvalidFileName)
	}
	if clean == "." || clean == ".." {
		return fmt.Errorf("%w: must be a single path component", ErrInvalidFileName)
	}
	return nil
}
