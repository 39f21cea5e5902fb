package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/drawreel/pkg/errors"
	"github.com/matzehuels/drawreel/pkg/pipeline"
)

// applyConfig loads the config file into opts. Flags given on the command
// line keep their values; the file only replaces defaults.
//
// A missing default config file is not an error; a missing --config file is.
func (c *CLI) applyConfig(cmd *cobra.Command, opts *pipeline.Options) error {
	path, explicit := c.configPath, c.configPath != ""
	if !explicit {
		dir, err := configDir()
		if err != nil {
			return nil
		}
		path = filepath.Join(dir, configFile)
	}

	changed := map[string]string{}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		changed[f.Name] = f.Value.String()
	})

	undecoded, err := loadConfig(path, opts)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		if !explicit {
			return nil
		}
		return errors.New(errors.ErrCodeFileNotFound, "config file not found: %s", path)
	}
	for _, key := range undecoded {
		c.Logger.Warn("unknown config key", "key", key, "file", path)
	}

	for name, value := range changed {
		if err := cmd.Flags().Set(name, value); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "restore flag --%s", name)
		}
	}
	c.Logger.Debug("loaded config", "file", path)
	return nil
}

// loadConfig decodes the TOML file at path over opts and returns the keys it
// did not recognize. Errors opening the file are returned unwrapped so
// callers can test them with os.IsNotExist.
func loadConfig(path string, opts *pipeline.Options) ([]string, error) {
	md, err := toml.DecodeFile(path, opts)
	if err != nil {
		if _, statErr := os.Stat(path); statErr != nil {
			return nil, statErr
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}

	var undecoded []string
	for _, key := range md.Undecoded() {
		undecoded = append(undecoded, key.String())
	}
	return undecoded, nil
}
