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

// Package tools contains utility types and functions for the cfgir tool frontends.
package tools

import (
	"flag"
	"fmt"
	"os"

	"github.com/awslabs/ar-bytecode-tools/analysis"
	"github.com/awslabs/ar-bytecode-tools/analysis/config"
)

// UnparsedCommonFlags represents an unparsed CLI sub-command flags.
type UnparsedCommonFlags struct {
	FlagSet    *flag.FlagSet
	ConfigPath *string
	Verbose    *bool
}

// NewUnparsedCommonFlags returns an unparsed flag set with a given name.
// This is useful for creating sub-commands that have the flags -config and -verbose but need other flags in addition.
func NewUnparsedCommonFlags(name string) UnparsedCommonFlags {
	cmd := flag.NewFlagSet(name, flag.ExitOnError)
	configPath := cmd.String("config", "", "config file path for analysis")
	verbose := cmd.Bool("verbose", false, "verbose printing on standard output")
	return UnparsedCommonFlags{
		FlagSet:    cmd,
		ConfigPath: configPath,
		Verbose:    verbose,
	}
}

// CommonFlags represents a parsed CLI sub-command flags.
// E.g., for the command `cfgir dump ...`, "dump" is the sub-command.
type CommonFlags struct {
	FlagSet    *flag.FlagSet
	ConfigPath string
	Verbose    bool
}

// NewCommonFlags returns a parsed flag set with a given name.
// Returns an error if args are invalid.
// Prints cmdUsage along with flag docs as the --help message.
func NewCommonFlags(name string, args []string, cmdUsage string) (CommonFlags, error) {
	flags := NewUnparsedCommonFlags(name)
	SetUsage(flags.FlagSet, cmdUsage)
	if err := flags.FlagSet.Parse(args); err != nil {
		return CommonFlags{}, fmt.Errorf("failed to parse command %s with args %v: %v", name, args, err)
	}
	return flags.Parsed(), nil
}

// Parsed returns the values of the common flags. The flag set must have been parsed.
func (u UnparsedCommonFlags) Parsed() CommonFlags {
	return CommonFlags{
		FlagSet:    u.FlagSet,
		ConfigPath: *u.ConfigPath,
		Verbose:    *u.Verbose,
	}
}

// SetUsage sets cmd's usage (for --help flag) to output the string cmdUsage
// followed by each flag's documentation.
func SetUsage(cmd *flag.FlagSet, cmdUsage string) {
	cmd.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s\n", cmdUsage)
		fmt.Fprintf(os.Stderr, "Options:\n")
		cmd.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(os.Stderr, "  %s: %s (default: %q)\n", f.Name, f.Usage, f.DefValue)
		})
	}
}

// LoadConfig loads the config file from configPath, or returns the default config if configPath is empty.
// If verbose is set, the log level is raised to debug.
func LoadConfig(configPath string, verbose bool) (*config.Config, error) {
	cfg := config.NewDefault()
	if configPath != "" {
		config.SetGlobalConfig(configPath)
		var err error
		cfg, err = config.LoadGlobal()
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %v", configPath, err)
		}
	}
	if verbose && cfg.LogLevel < int(config.DebugLevel) {
		cfg.LogLevel = int(config.DebugLevel)
	}
	return cfg, nil
}

// LoadMethods loads the method files given on the command line, or the ones listed in the config if there are none
func LoadMethods(cfg *config.Config, files []string) ([]*analysis.Method, error) {
	if len(files) == 0 {
		files = cfg.MethodFiles()
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no method file given")
	}
	methods := make([]*analysis.Method, 0, len(files))
	for _, f := range files {
		m, err := analysis.LoadMethod(f)
		if err != nil {
			return nil, fmt.Errorf("could not load method: %w", err)
		}
		methods = append(methods, m)
	}
	return methods, nil
}

// OpenOutput returns a writer for the file, or standard output if filename is empty. The returned function closes
// the file.
func OpenOutput(filename string) (*os.File, func() error, error) {
	if filename == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("could not create file: %w", err)
	}
	return f, f.Close, nil
}
