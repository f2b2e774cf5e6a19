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

package main

import (
	"fmt"
	"os"

	"github.com/awslabs/ar-bytecode-tools/analysis"
	"github.com/awslabs/ar-bytecode-tools/cmd/cfgir/dump"
	"github.com/awslabs/ar-bytecode-tools/cmd/cfgir/liveness"
	"github.com/awslabs/ar-bytecode-tools/cmd/cfgir/render"
	"github.com/awslabs/ar-bytecode-tools/cmd/cfgir/stats"
	"github.com/awslabs/ar-bytecode-tools/cmd/cfgir/tools"
	"github.com/awslabs/ar-bytecode-tools/internal/formatutil"
)

const usage = `cfgir: control flow graph tools for bytecode method bodies
Usage:
  cfgir [tool] [options] <method file(s)>
Tools:
  - liveness: prints the variables live at the boundaries of each block
  - dump: linearizes the flow graphs and writes the generated method bodies
  - render: renders the flow graphs in the GraphViz DOT format
  - stats: prints statistics about the flow graphs
Method files are read from the command line, or from the methods listed in the config file.
Examples:
  Generate a method body: cfgir dump -config config.yaml method.yaml
  Render a flow graph: cfgir render -o method.dot method.yaml`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "error: expected subcommand\n%s\n", usage)
		os.Exit(2)
	}

	// hardcode help flag
	if snd := os.Args[1]; snd == "-help" || snd == "--help" {
		fmt.Println(usage)
		return
	}

	// hardcode version flag
	if snd := os.Args[1]; snd == "-version" || snd == "--version" {
		fmt.Println(analysis.Version)
		return
	}

	args := os.Args[2:]
	switch cmd := os.Args[1]; cmd {
	case "liveness":
		flags, err := tools.NewCommonFlags("liveness", args, liveness.Usage)
		if err != nil {
			errExit(err)
		}
		if err := liveness.Run(flags); err != nil {
			errExit(err)
		}
	case "dump":
		flags, err := dump.NewFlags(args)
		if err != nil {
			errExit(err)
		}
		if err := dump.Run(flags); err != nil {
			errExit(err)
		}
	case "render":
		flags, err := render.NewFlags(args)
		if err != nil {
			errExit(err)
		}
		if err := render.Run(flags); err != nil {
			errExit(err)
		}
	case "stats":
		flags, err := tools.NewCommonFlags("stats", args, stats.Usage)
		if err != nil {
			errExit(err)
		}
		if err := stats.Run(flags); err != nil {
			errExit(err)
		}
	default:
		fmt.Fprintf(os.Stderr, "error: unexpected command: %v\n", cmd)
		fmt.Fprintf(os.Stderr, "usage:\n%s\n", usage)
		os.Exit(2)
	}
}

func errExit(err error) {
	fmt.Fprintf(os.Stderr, "%s %v\n", formatutil.Red("error:"), err)
	hint := tools.HintForErrorMessage(err.Error())
	if hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
	}
	os.Exit(2)
}
