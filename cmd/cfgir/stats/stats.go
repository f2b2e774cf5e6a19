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

// Package stats implements the frontend printing statistics about flow graphs.
package stats

import (
	"fmt"
	"strings"

	"github.com/awslabs/ar-bytecode-tools/analysis"
	"github.com/awslabs/ar-bytecode-tools/cmd/cfgir/tools"
	"github.com/awslabs/ar-bytecode-tools/internal/formatutil"
)

// Usage for CLI
const Usage = `Print statistics about the flow graphs of methods.
Usage:
  cfgir stats [options] <method file(s)>
`

// Run prints the statistics of each method
func Run(flags tools.CommonFlags) error {
	cfg, err := tools.LoadConfig(flags.ConfigPath, flags.Verbose)
	if err != nil {
		return err
	}
	methods, err := tools.LoadMethods(cfg, flags.FlagSet.Args())
	if err != nil {
		return err
	}
	for _, m := range methods {
		s := analysis.GraphStatistics(m.Graph)
		fmt.Println(formatutil.Bold(m.Name()) + m.Desc)
		fmt.Print(s)
		if flags.Verbose {
			for _, c := range s.Cycles {
				ids := make([]string, len(c))
				for i, id := range c {
					ids[i] = id.String()
				}
				fmt.Printf("  cycle %s\n", formatutil.Faint(strings.Join(ids, " -> ")))
			}
		}
		if len(s.Unreachable) > 0 {
			fmt.Printf("  %s %v\n", formatutil.Yellow("unreachable:"), s.Unreachable)
		}
	}
	return nil
}
