package errors

import (
	"os"
	"strings"
	"unicode"
)

// ValidateInputPath validates the source image path.
//
// Validation rules:
//   - Path cannot be empty
//   - No null bytes or control characters
//   - The file must exist and must not be a directory
func ValidateInputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "input image is required")
	}
	if err := validatePathChars(path); err != nil {
		return err
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return New(ErrCodeFileNotFound, "input image not found: %s", path)
	}
	if err != nil {
		return Wrap(ErrCodeInvalidPath, err, "stat %s", path)
	}
	if info.IsDir() {
		return New(ErrCodeInvalidPath, "input image is a directory: %s", path)
	}
	return nil
}

// ValidateOutputDir validates the frame output directory, creating it when missing.
func ValidateOutputDir(dir string) error {
	if dir == "" {
		return New(ErrCodeInvalidPath, "output directory cannot be empty")
	}
	if err := validatePathChars(dir); err != nil {
		return err
	}

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return Wrap(ErrCodeInvalidPath, err, "create output directory %s", dir)
		}
		return nil
	}
	if err != nil {
		return Wrap(ErrCodeInvalidPath, err, "stat %s", dir)
	}
	if !info.IsDir() {
		return New(ErrCodeInvalidPath, "output path is not a directory: %s", dir)
	}
	return nil
}

// ValidateOptionalFile validates an optional file argument such as the audio track.
// An empty path is valid.
func ValidateOptionalFile(name, path string) error {
	if path == "" {
		return nil
	}
	if err := validatePathChars(path); err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return New(ErrCodeFileNotFound, "%s not found: %s", name, path)
	}
	if info.IsDir() {
		return New(ErrCodeInvalidPath, "%s is a directory: %s", name, path)
	}
	return nil
}

// ValidateRange checks that v lies in [lo, hi].
func ValidateRange(name string, v, lo, hi int) error {
	if v < lo || v > hi {
		return New(ErrCodeInvalidInput, "%s must be between %d and %d, got %d", name, lo, hi, v)
	}
	return nil
}

func validatePathChars(path string) error {
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	if strings.TrimSpace(path) == "" {
		return New(ErrCodeInvalidPath, "path cannot be blank")
	}
	return nil
}
