// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

var (
	// The global config file
	configFile string
)

// SetGlobalConfig sets the global config filename
func SetGlobalConfig(filename string) {
	configFile = filename
}

// LoadGlobal loads the config file that has been set by SetGlobalConfig
func LoadGlobal() (*Config, error) {
	return Load(configFile)
}

// Config contains the options of the tools and the method files to process.
// To add elements to a config file, add fields to this struct.
// If some field is not defined in the config file, it will be empty/zero in the struct.
// private fields are not populated from a yaml file, but computed after initialization
type Config struct {
	Options `yaml:"options"`

	sourceFile string

	// Methods is a list of method description files, relative to the config file. They are processed when no file
	// is given on the command line.
	Methods []string `yaml:"methods"`
}

// Options are the settings of the analyses and of the code generator
type Options struct {
	// ReportsDir is the directory where the tools write their output files. If empty, output goes to stdout.
	ReportsDir string `yaml:"reports-dir"`

	// LogLevel controls the verbosity of the tool
	LogLevel int `yaml:"log-level"`

	// Suppress warnings
	SilenceWarn bool `yaml:"silence-warn"`

	// SkipExceptionEdges makes the dataflow analyses ignore TryCatch edges. The pipeline always runs liveness
	// without them: liveness does not define how facts flow along exceptional edges.
	SkipExceptionEdges bool `yaml:"skip-exception-edges"`

	// CommitFacts specifies whether the analyses write their final states on the blocks of the graph
	CommitFacts bool `yaml:"commit-facts"`

	// MaxIterations bounds the number of block visits of the dataflow solver. If MaxIterations <= 0, it is ignored.
	MaxIterations int `yaml:"max-iterations"`

	// OutputFormat is the format of the generated method bodies, one of OutputFormats
	OutputFormat string `yaml:"output-format"`
}

// NewDefault returns an empty default config.
func NewDefault() *Config {
	return &Config{
		sourceFile: "",
		Methods:    nil,
		Options: Options{
			ReportsDir:         "",
			LogLevel:           int(InfoLevel),
			SilenceWarn:        false,
			SkipExceptionEdges: false,
			CommitFacts:        false,
			MaxIterations:      DefaultMaxIterations,
			OutputFormat:       OutputText,
		},
	}
}

// Load reads a configuration from a file
func Load(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	return LoadFromBytes(filename, b)
}

// LoadFromBytes parses the configuration in b. filename is the location the configuration is read from, which is
// used to resolve the relative paths it contains. Unknown fields are errors.
func LoadFromBytes(filename string, b []byte) (*Config, error) {
	cfg := NewDefault()
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("could not unmarshal config file %s: %w", filename, err)
	}

	cfg.sourceFile = filename

	// If logLevel has not been specified (i.e. it is 0) set the default to Info
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}
	if cfg.LogLevel < int(ErrLevel) || cfg.LogLevel > int(TraceLevel) {
		return nil, fmt.Errorf("invalid log-level %d, should be between %d and %d", cfg.LogLevel, ErrLevel,
			TraceLevel)
	}

	if cfg.OutputFormat == "" {
		cfg.OutputFormat = OutputText
	}
	if !slices.Contains(OutputFormats, cfg.OutputFormat) {
		return nil, fmt.Errorf("invalid output-format %q, should be one of %v", cfg.OutputFormat, OutputFormats)
	}

	if cfg.MaxIterations < 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}

	if cfg.ReportsDir != "" {
		if err := setReportsDir(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func setReportsDir(c *Config) error {
	if !path.IsAbs(c.ReportsDir) && c.sourceFile != "" {
		c.ReportsDir = c.RelPath(c.ReportsDir)
	}
	err := os.Mkdir(c.ReportsDir, 0750)
	if err != nil && !os.IsExist(err) {
		return fmt.Errorf("could not create directory %s: %w", c.ReportsDir, err)
	}
	return nil
}

// RelPath returns filename path relative to the config source file
func (c Config) RelPath(filename string) string {
	return path.Join(path.Dir(c.sourceFile), filename)
}

// MethodFiles returns the paths of the method files listed in the config, relative to the working directory
func (c Config) MethodFiles() []string {
	files := make([]string, len(c.Methods))
	for i, m := range c.Methods {
		if path.IsAbs(m) {
			files[i] = m
		} else {
			files[i] = c.RelPath(m)
		}
	}
	return files
}

// Verbose returns true is the configuration verbosity setting is larger than Info (i.e. Debug or Trace)
func (c Config) Verbose() bool {
	return c.LogLevel >= int(DebugLevel)
}

// ExceedsMaxIterations returns true if n block visits exceed the maximum iterations parameter of the configuration.
// (if the configuration setting is <= 0, then this returns false)
func (c Config) ExceedsMaxIterations(n int) bool {
	if c.MaxIterations <= 0 {
		return false
	}
	return n > c.MaxIterations
}
