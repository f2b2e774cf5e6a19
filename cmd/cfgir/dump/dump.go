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

// Package dump implements the frontend to the code generator: it linearizes methods and writes their bodies.
package dump

import (
	"fmt"
	"os"

	"github.com/awslabs/ar-bytecode-tools/analysis"
	"github.com/awslabs/ar-bytecode-tools/analysis/codegen"
	"github.com/awslabs/ar-bytecode-tools/cmd/cfgir/tools"
	"github.com/awslabs/ar-bytecode-tools/internal/formatutil"
)

// Usage for CLI
const Usage = `Generate the method bodies of flow graphs.
Usage:
  cfgir dump [options] <method file(s)>
Examples:
  % cfgir dump -format yaml -o foo.yaml method.yaml
`

// Flags represents the parsed dump sub-command flags.
type Flags struct {
	tools.CommonFlags
	format string
	out    string
}

// NewFlags returns the parsed dump sub-command flags from args.
func NewFlags(args []string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags("dump")
	format := flags.FlagSet.String("format", "", "output format, one of text, yaml, msgpack (default: from config)")
	out := flags.FlagSet.String("o", "", "output file (standard output if not specified)")
	tools.SetUsage(flags.FlagSet, Usage)
	if err := flags.FlagSet.Parse(args); err != nil {
		return Flags{}, fmt.Errorf("failed to parse command dump with args %v: %v", args, err)
	}
	return Flags{CommonFlags: flags.Parsed(), format: *format, out: *out}, nil
}

// Run runs the pipeline on every method and writes the generated bodies
func Run(flags Flags) error {
	cfg, err := tools.LoadConfig(flags.ConfigPath, flags.Verbose)
	if err != nil {
		return err
	}
	if flags.format != "" {
		cfg.OutputFormat = flags.format
	}
	format, err := codegen.ParseFormat(cfg.OutputFormat)
	if err != nil {
		return err
	}
	methods, err := tools.LoadMethods(cfg, flags.FlagSet.Args())
	if err != nil {
		return err
	}

	w, closeOut, err := tools.OpenOutput(flags.out)
	if err != nil {
		return err
	}
	defer closeOut()

	p := analysis.NewPipeline(cfg)
	for _, m := range methods {
		res, err := p.Run(m)
		if err != nil {
			return err
		}
		if err := codegen.Encode(w, res.Body, format); err != nil {
			return fmt.Errorf("error while writing %s: %w", m.Name(), err)
		}
		if n := len(res.Violations); n > 0 {
			p.Logger.Warnf("%s: %s", m.Name(), formatutil.Yellow(fmt.Sprintf("%d possibly unassigned reads", n)))
		}
	}
	if flags.out != "" {
		fmt.Fprintf(os.Stderr, "%s %d method bodies to %s\n", formatutil.Green("Wrote"), len(methods), flags.out)
	}
	return nil
}
