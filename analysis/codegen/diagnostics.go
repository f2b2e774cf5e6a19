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

package codegen

import (
	"fmt"

	"github.com/awslabs/ar-bytecode-tools/analysis/config"
	"github.com/awslabs/ar-bytecode-tools/analysis/flowgraph"
)

// DiagnosticKind is the kind of condition reported during code generation
type DiagnosticKind int

const (
	// RangeSplit is reported when an exception range is emitted as several try-catch entries
	RangeSplit DiagnosticKind = iota
	// ImmediateFixup is reported when an Immediate edge is turned into a goto
	ImmediateFixup
	// JumpElided is reported when a goto to the next block is removed
	JumpElided
	// RangeDropped is reported when an exception range that protects no block is removed from the graph
	RangeDropped
)

func (k DiagnosticKind) String() string {
	switch k {
	case RangeSplit:
		return "range-split"
	case ImmediateFixup:
		return "immediate-fixup"
	case JumpElided:
		return "jump-elided"
	case RangeDropped:
		return "range-dropped"
	}
	return fmt.Sprintf("diagnostic(%d)", int(k))
}

// Diagnostic is a condition that code generation repaired
type Diagnostic struct {
	Kind DiagnosticKind
	// Method is the name of the graph
	Method string
	Block  flowgraph.BlockID
	// Message describes the condition
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s in %s at block %s: %s", d.Kind, d.Method, d.Block, d.Message)
}

// DiagnosticSink receives the diagnostics. A nil sink drops them.
type DiagnosticSink func(Diagnostic)

func (s DiagnosticSink) report(d Diagnostic) {
	if s != nil {
		s(d)
	}
}

// Collector accumulates diagnostics
type Collector struct {
	Diagnostics []Diagnostic
}

// Sink returns a sink that appends to the collector
func (c *Collector) Sink() DiagnosticSink {
	return func(d Diagnostic) { c.Diagnostics = append(c.Diagnostics, d) }
}

// Count returns the number of collected diagnostics of the given kind
func (c *Collector) Count(k DiagnosticKind) int {
	n := 0
	for _, d := range c.Diagnostics {
		if d.Kind == k {
			n++
		}
	}
	return n
}

// LogSink returns a sink that logs jump elisions at the debug level and every other diagnostic as a warning
func LogSink(log *config.LogGroup) DiagnosticSink {
	return func(d Diagnostic) {
		if d.Kind == JumpElided {
			log.Debugf("%s", d)
		} else {
			log.Warnf("%s", d)
		}
	}
}
