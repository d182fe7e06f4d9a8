// SPDX-License-Identifier: MPL-2.0

// Package config is the key-based settings store shared by the launcher and
// its collaborators. Built-in defaults are overlaid by an optional CUE config
// file ("bpipe.config" in the working directory), which in turn is overlaid
// by CLI flags via Set. Keys are mutable for the process lifetime.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"bpipe-cli/internal/issue"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"
)

// FileName is the optional per-project config file.
const FileName = "bpipe.config"

// Well-known settings keys.
const (
	KeyDir        = "dir"
	KeyMaxThreads = "max_threads"
	KeyMaxMemory  = "max_memory"
	KeyReport     = "report"
	KeyMode       = "mode"
	KeyVerbose    = "verbose"
	KeyYes        = "yes"
)

//go:embed config_schema.cue
var configSchema string

// Settings wraps a viper instance so collaborators share one mutable view.
type Settings struct {
	v *viper.Viper
}

// Load builds the settings store: defaults, then the optional config file.
func Load() (*Settings, error) {
	return LoadFile(FileName)
}

// LoadFile is Load with an explicit config file path, for tests.
func LoadFile(path string) (*Settings, error) {
	v := viper.New()
	applyDefaults(v)

	if _, err := os.Stat(path); err == nil {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, issue.Wrap(err, "load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax")
		}
	}

	return &Settings{v: v}, nil
}

// Defaults returns a settings store carrying only the built-in defaults. The
// CLI falls back to it when the config file fails to load.
func Defaults() *Settings {
	v := viper.New()
	applyDefaults(v)
	return &Settings{v: v}
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault(KeyDir, ".")
	v.SetDefault(KeyMaxThreads, 0)
	v.SetDefault(KeyMaxMemory, 0)
	v.SetDefault(KeyReport, false)
	v.SetDefault(KeyMode, "run")
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyYes, false)
}

// Set overrides a key for the rest of the process lifetime.
func (s *Settings) Set(key string, value any) {
	s.v.Set(key, value)
}

// GetString returns the string value for key.
func (s *Settings) GetString(key string) string { return s.v.GetString(key) }

// GetInt returns the int value for key.
func (s *Settings) GetInt(key string) int { return s.v.GetInt(key) }

// GetBool returns the bool value for key.
func (s *Settings) GetBool(key string) bool { return s.v.GetBool(key) }

// loadCUEIntoViper parses a CUE config file, validates it against the
// embedded #Config schema, and merges the result into the viper store.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return userValue.Err()
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return err
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return err
	}
	return v.MergeConfigMap(configMap)
}
