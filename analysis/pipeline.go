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

package analysis

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/awslabs/ar-bytecode-tools/analysis/assignment"
	"github.com/awslabs/ar-bytecode-tools/analysis/codegen"
	"github.com/awslabs/ar-bytecode-tools/analysis/config"
	"github.com/awslabs/ar-bytecode-tools/analysis/dataflow"
	"github.com/awslabs/ar-bytecode-tools/analysis/flowgraph"
	"github.com/awslabs/ar-bytecode-tools/analysis/liveness"
	"github.com/awslabs/ar-bytecode-tools/internal/funcutil"
)

// Pipeline runs the analyses and the code generation on methods, as set in the configuration
type Pipeline struct {
	Config *config.Config
	Logger *config.LogGroup
}

// NewPipeline returns a pipeline for the configuration, logging to a new log group
func NewPipeline(c *config.Config) *Pipeline {
	return &Pipeline{Config: c, Logger: config.NewLogGroup(c)}
}

// PipelineResult holds everything the pipeline computed for one method
type PipelineResult struct {
	Method     *Method
	Statistics Statistics
	Liveness   *liveness.Liveness
	Assignment *assignment.Assignment
	// Violations are the reads of locals that may be unassigned
	Violations []assignment.Violation
	Body       *codegen.MethodBody
	// Order is the block order of Body
	Order       []flowgraph.BlockID
	Diagnostics []codegen.Diagnostic
	// Report is the file the body was written to, if the configuration sets a reports directory
	Report string
}

// Run analyses the method and generates its body. The flow graph of the method is naturalized in place.
// Liveness is always computed without the exceptional edges. Definite assignment follows them unless the
// configuration skips them.
func (p *Pipeline) Run(m *Method) (*PipelineResult, error) {
	start := time.Now()
	res := &PipelineResult{Method: m, Statistics: GraphStatistics(m.Graph)}
	opts := dataflow.OptionsFromConfig(p.Config, p.Logger)

	liveOpts := opts
	liveOpts.SkipExceptionEdges = true
	live, err := liveness.Analyse(m.Graph, liveOpts)
	if err != nil {
		return nil, fmt.Errorf("liveness of %s: %w", m.Name(), err)
	}
	res.Liveness = live

	assigned, err := assignment.Analyse(m.Graph, opts, m.Params...)
	if err != nil {
		return nil, fmt.Errorf("definite assignment of %s: %w", m.Name(), err)
	}
	res.Assignment = assigned
	res.Violations = assigned.Violations()
	for _, v := range res.Violations {
		p.Logger.Warnf("%s: %s", m.Name(), v)
	}

	collector := &codegen.Collector{}
	logSink := codegen.LogSink(p.Logger)
	d := codegen.NewDumper(m.Graph, m.Desc, func(diag codegen.Diagnostic) {
		collector.Sink()(diag)
		logSink(diag)
	})
	if err := d.Dump(); err != nil {
		return nil, err
	}
	res.Body = d.Body()
	res.Order = d.Order()
	res.Diagnostics = collector.Diagnostics

	if p.Config.ReportsDir != "" {
		if res.Report, err = p.writeReport(res.Body); err != nil {
			return nil, err
		}
	}
	p.Logger.Debugf("%s done in %s: %d diagnostics, %d try-catch entries", m.Name(), time.Since(start),
		len(res.Diagnostics), len(res.Body.TryCatchBlocks))
	return res, nil
}

// RunAll loads the methods listed in the configuration and runs the pipeline on each of them, in parallel. Results
// are in the order of the configuration. The first error, in that order, is returned.
func (p *Pipeline) RunAll() ([]*PipelineResult, error) {
	type outcome struct {
		res *PipelineResult
		err error
	}
	outcomes := funcutil.MapParallel(p.Config.MethodFiles(), func(file string) outcome {
		m, err := LoadMethod(file)
		if err != nil {
			return outcome{err: err}
		}
		p.Logger.Infof("Processing %s from %s", m.Name(), file)
		r, err := p.Run(m)
		return outcome{res: r, err: err}
	}, runtime.NumCPU())

	results := make([]*PipelineResult, 0, len(outcomes))
	for _, o := range outcomes {
		if o.err != nil {
			return results, o.err
		}
		results = append(results, o.res)
	}
	return results, nil
}

func (p *Pipeline) writeReport(body *codegen.MethodBody) (string, error) {
	format, err := codegen.ParseFormat(p.Config.OutputFormat)
	if err != nil {
		return "", err
	}
	name := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == '<' || r == '>' {
			return '_'
		}
		return r
	}, body.Name)
	filename := filepath.Join(p.Config.ReportsDir, name+"."+string(format))
	f, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("could not create report file: %w", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if err := codegen.Encode(w, body, format); err != nil {
		return "", fmt.Errorf("error while writing report %s: %w", filename, err)
	}
	if err := w.Flush(); err != nil {
		return "", err
	}
	p.Logger.Infof("Wrote %s", filename)
	return filename, nil
}
