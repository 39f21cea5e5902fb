package errors

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateInputPath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "in.png")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		input    string
		wantCode Code
	}{
		{"valid file", file, ""},
		{"empty", "", ErrCodeInvalidInput},
		{"missing", filepath.Join(dir, "nope.png"), ErrCodeFileNotFound},
		{"directory", dir, ErrCodeInvalidPath},
		{"control char", "foo\x01bar", ErrCodeInvalidPath},
		{"null byte", "foo\x00bar", ErrCodeInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInputPath(tt.input)
			if got := GetCode(err); got != tt.wantCode {
				t.Errorf("ValidateInputPath(%q) code = %q, want %q (err=%v)", tt.input, got, tt.wantCode, err)
			}
		})
	}
}

func TestValidateOutputDirCreates(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if err := ValidateOutputDir(dir); err != nil {
		t.Fatalf("ValidateOutputDir: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("output dir not created: %v", err)
	}
}

func TestValidateOutputDirRejectsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if !Is(ValidateOutputDir(file), ErrCodeInvalidPath) {
		t.Error("file as output dir should be rejected")
	}
	if !Is(ValidateOutputDir(""), ErrCodeInvalidPath) {
		t.Error("empty output dir should be rejected")
	}
}

func TestValidateOptionalFile(t *testing.T) {
	if err := ValidateOptionalFile("music", ""); err != nil {
		t.Errorf("empty optional file should pass: %v", err)
	}
	if !Is(ValidateOptionalFile("music", "/does/not/exist.mp3"), ErrCodeFileNotFound) {
		t.Error("missing optional file should fail with FILE_NOT_FOUND")
	}
}

func TestValidateRange(t *testing.T) {
	tests := []struct {
		v       int
		wantErr bool
	}{
		{0, false},
		{99, false},
		{-1, true},
		{100, true},
	}
	for _, tt := range tests {
		err := ValidateRange("trim", tt.v, 0, 99)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateRange(%d) error = %v, wantErr %v", tt.v, err, tt.wantErr)
		}
	}
}
