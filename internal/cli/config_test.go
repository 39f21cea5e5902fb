package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/drawreel/pkg/errors"
	"github.com/matzehuels/drawreel/pkg/pipeline"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// drawCommand builds a command with the draw flags bound to opts and args parsed.
func drawCommand(t *testing.T, opts *pipeline.Options, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	bindAnalyzeFlags(cmd, opts)
	bindDrawFlags(cmd, opts, &drawFlags{})
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags(%v) error: %v", args, err)
	}
	return cmd
}

func TestApplyConfigFlagsWin(t *testing.T) {
	path := writeConfig(t, `
colors = 12
width = 320
speed = 500
background = "#202020"
tool_timeout = "30s"
seed = 7
`)

	var logs bytes.Buffer
	c := New(&logs, LogDebug)
	c.configPath = path

	opts := pipeline.DefaultOptions()
	cmd := drawCommand(t, &opts, "--colors", "4", "--seed", "9")
	if err := c.applyConfig(cmd, &opts); err != nil {
		t.Fatalf("applyConfig() error: %v", err)
	}

	if opts.Colors != 4 {
		t.Errorf("Colors = %d, want 4 (flag)", opts.Colors)
	}
	if opts.Seed != 9 {
		t.Errorf("Seed = %d, want 9 (flag)", opts.Seed)
	}
	if opts.Width != 320 {
		t.Errorf("Width = %d, want 320 (file)", opts.Width)
	}
	if opts.Speed != 500 {
		t.Errorf("Speed = %d, want 500 (file)", opts.Speed)
	}
	if opts.Background != "#202020" {
		t.Errorf("Background = %q, want %q (file)", opts.Background, "#202020")
	}
	if opts.ToolTimeout != 30*time.Second {
		t.Errorf("ToolTimeout = %v, want 30s (file)", opts.ToolTimeout)
	}
	if opts.Height != pipeline.DefaultHeight {
		t.Errorf("Height = %d, want default %d", opts.Height, pipeline.DefaultHeight)
	}
}

func TestApplyConfigUnknownKeys(t *testing.T) {
	path := writeConfig(t, "colors = 3\nstroke_color = \"red\"\n")

	var logs bytes.Buffer
	c := New(&logs, LogInfo)
	c.configPath = path

	opts := pipeline.DefaultOptions()
	if err := c.applyConfig(drawCommand(t, &opts), &opts); err != nil {
		t.Fatalf("applyConfig() error: %v", err)
	}
	if opts.Colors != 3 {
		t.Errorf("Colors = %d, want 3", opts.Colors)
	}
	if !strings.Contains(logs.String(), "stroke_color") {
		t.Errorf("expected a warning naming the unknown key, got %q", logs.String())
	}
}

func TestApplyConfigMissingDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	c := New(&bytes.Buffer{}, LogInfo)

	opts := pipeline.DefaultOptions()
	if err := c.applyConfig(drawCommand(t, &opts), &opts); err != nil {
		t.Fatalf("applyConfig() without a config file error: %v", err)
	}
	if opts.Colors != pipeline.DefaultColors {
		t.Errorf("Colors = %d, want default %d", opts.Colors, pipeline.DefaultColors)
	}
}

func TestApplyConfigDefaultLocation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	dir := filepath.Join(home, appName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, configFile), []byte("fps = 30\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(&bytes.Buffer{}, LogInfo)
	opts := pipeline.DefaultOptions()
	if err := c.applyConfig(drawCommand(t, &opts), &opts); err != nil {
		t.Fatalf("applyConfig() error: %v", err)
	}
	if opts.FPS != 30 {
		t.Errorf("FPS = %d, want 30", opts.FPS)
	}
}

func TestApplyConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
		want errors.Code
	}{
		{"missing explicit file", filepath.Join(t.TempDir(), "nope.toml"), errors.ErrCodeFileNotFound},
		{"malformed file", writeConfig(t, "colors = = 3\n"), errors.ErrCodeInvalidInput},
		{"wrong type", writeConfig(t, "colors = \"many\"\n"), errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(&bytes.Buffer{}, LogInfo)
			c.configPath = tt.path

			opts := pipeline.DefaultOptions()
			err := c.applyConfig(drawCommand(t, &opts), &opts)
			if !errors.Is(err, tt.want) {
				t.Errorf("applyConfig() error = %v, want code %s", err, tt.want)
			}
		})
	}
}
