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

// Package liveness implements the frontend to the liveness analysis.
package liveness

import (
	"fmt"
	"strings"

	"github.com/awslabs/ar-bytecode-tools/analysis/config"
	"github.com/awslabs/ar-bytecode-tools/analysis/dataflow"
	"github.com/awslabs/ar-bytecode-tools/analysis/ir"
	"github.com/awslabs/ar-bytecode-tools/analysis/liveness"
	"github.com/awslabs/ar-bytecode-tools/cmd/cfgir/tools"
	"github.com/awslabs/ar-bytecode-tools/internal/formatutil"
)

// Usage for CLI
const Usage = `Print the variables live at the boundaries of each block.
Usage:
  cfgir liveness [options] <method file(s)>
Examples:
  % cfgir liveness -config config.yaml method.yaml
`

// Run runs the liveness analysis on the methods and prints its results
func Run(flags tools.CommonFlags) error {
	cfg, err := tools.LoadConfig(flags.ConfigPath, flags.Verbose)
	if err != nil {
		return err
	}
	logger := config.NewLogGroup(cfg)
	methods, err := tools.LoadMethods(cfg, flags.FlagSet.Args())
	if err != nil {
		return err
	}
	for _, m := range methods {
		live, err := liveness.Analyse(m.Graph, dataflow.OptionsFromConfig(cfg, logger))
		if err != nil {
			return fmt.Errorf("liveness of %s: %w", m.Name(), err)
		}
		fmt.Println(formatutil.Bold(m.Name()) + m.Desc)
		for _, b := range m.Graph.Vertices() {
			fmt.Printf("  %s\n", formatutil.Cyan(formatutil.Sanitize(b.Name())))
			fmt.Printf("    in:  %s\n", locals(live.LiveIn(b.ID())))
			fmt.Printf("    out: %s\n", locals(live.LiveOut(b.ID())))
		}
		logger.Debugf("%s: fixed point after %d block visits", m.Name(), live.Result().Iterations)
	}
	return nil
}

func locals(ls []ir.Local) string {
	s := make([]string, len(ls))
	for i, l := range ls {
		s[i] = l.String()
	}
	return "{" + strings.Join(s, ", ") + "}"
}
