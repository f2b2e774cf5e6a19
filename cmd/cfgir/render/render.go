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

// Package render implements a tool for rendering the flow graphs of methods in the GraphViz DOT format.
package render

import (
	"fmt"
	"os"

	"github.com/awslabs/ar-bytecode-tools/analysis/render"
	"github.com/awslabs/ar-bytecode-tools/cmd/cfgir/tools"
	"github.com/awslabs/ar-bytecode-tools/internal/formatutil"
)

// Usage for CLI
const Usage = `Render the flow graphs of methods.
Usage:
  cfgir render [options] <method file(s)>
Examples:
Render a flow graph and convert it to svg
  % cfgir render -o foo.dot method.yaml && dot -Tsvg foo.dot -o foo.svg
`

// Flags represents the parsed render sub-command flags.
type Flags struct {
	tools.CommonFlags
	out string
}

// NewFlags returns the parsed render sub-command flags from args.
func NewFlags(args []string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags("render")
	out := flags.FlagSet.String("o", "", "output file for the graph (standard output if not specified)")
	tools.SetUsage(flags.FlagSet, Usage)
	if err := flags.FlagSet.Parse(args); err != nil {
		return Flags{}, fmt.Errorf("failed to parse command render with args %v: %v", args, err)
	}
	return Flags{CommonFlags: flags.Parsed(), out: *out}, nil
}

// Run runs the render tool with flags.
func Run(flags Flags) error {
	cfg, err := tools.LoadConfig(flags.ConfigPath, flags.Verbose)
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
	for _, m := range methods {
		if err := render.WriteDot(m.Graph, w); err != nil {
			return err
		}
	}
	if flags.out != "" {
		fmt.Fprintf(os.Stderr, formatutil.Faint("Wrote %s")+"\n", flags.out)
	}
	return nil
}
