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

package dataflow

import (
	"fmt"

	"github.com/awslabs/ar-bytecode-tools/analysis/config"
	"github.com/awslabs/ar-bytecode-tools/analysis/flowgraph"
)

// Options controls a run of the solver
type Options struct {
	// Commit writes the final states on the blocks, as the facts "<name>.in" and "<name>.out"
	Commit bool

	// SkipExceptionEdges ignores TryCatch edges entirely
	SkipExceptionEdges bool

	// MaxIterations bounds the number of block visits. If MaxIterations <= 0, it is ignored.
	MaxIterations int

	// Log receives trace and debug output. Can be nil.
	Log *config.LogGroup
}

// OptionsFromConfig returns the solver options set in the configuration
func OptionsFromConfig(c *config.Config, log *config.LogGroup) Options {
	return Options{
		Commit:             c.CommitFacts,
		SkipExceptionEdges: c.SkipExceptionEdges,
		MaxIterations:      c.MaxIterations,
		Log:                log,
	}
}

// Result holds the states at the boundaries of each block after a run of the solver
type Result[S any] struct {
	in  map[flowgraph.BlockID]S
	out map[flowgraph.BlockID]S

	// Iterations is the number of block visits it took to reach the fixed point
	Iterations int
}

// In returns the state at the entry of the block. ok is false if the block was not in the graph.
func (r *Result[S]) In(id flowgraph.BlockID) (s S, ok bool) {
	s, ok = r.in[id]
	return s, ok
}

// Out returns the state at the exit of the block. ok is false if the block was not in the graph.
func (r *Result[S]) Out(id flowgraph.BlockID) (s S, ok bool) {
	s, ok = r.out[id]
	return s, ok
}

// InFactKey returns the key under which the in state of the analysis is committed on blocks
func InFactKey(name string) string { return name + ".in" }

// OutFactKey returns the key under which the out state of the analysis is committed on blocks
func OutFactKey(name string) string { return name + ".out" }

// solver holds the working state of one run
type solver[S any] struct {
	g    *flowgraph.Graph
	a    Analysis[S]
	opts Options

	// solved are the states computed from the neighbours (out for backward, in for forward), other are the states
	// computed by the transfer function
	solved map[flowgraph.BlockID]S
	other  map[flowgraph.BlockID]S

	entries map[flowgraph.BlockID]bool
	queue   worklist
}

// Run solves the analysis on g until a fixed point is reached.
// The work-list is a FIFO queue initially holding all blocks in id order (reversed for backward analyses), so the
// result and the number of iterations only depend on the graph.
func Run[S any](g *flowgraph.Graph, a Analysis[S], opts Options) (*Result[S], error) {
	if err := a.Init(g); err != nil {
		return nil, fmt.Errorf("%s: init failed: %w", a.Name(), err)
	}
	s := &solver[S]{
		g:       g,
		a:       a,
		opts:    opts,
		solved:  map[flowgraph.BlockID]S{},
		other:   map[flowgraph.BlockID]S{},
		entries: map[flowgraph.BlockID]bool{},
		queue:   newWorklist(),
	}
	for _, e := range g.Entries() {
		s.entries[e] = true
	}
	ids := g.IDs()
	for i := range ids {
		id := ids[i]
		if a.Direction() == Backward {
			id = ids[len(ids)-1-i]
		}
		s.solved[id] = a.NewState()
		s.other[id] = a.NewState()
		s.queue.push(id)
	}

	iterations := 0
	for !s.queue.empty() {
		id := s.queue.pop()
		iterations++
		if opts.MaxIterations > 0 && iterations > opts.MaxIterations {
			return nil, fmt.Errorf("%w: %s on %s after %d block visits", ErrNoFixedPoint, a.Name(), g.Name,
				opts.MaxIterations)
		}
		changed, err := s.visit(id)
		if err != nil {
			return nil, err
		}
		if changed {
			for _, dep := range s.dependents(id) {
				s.queue.push(dep)
			}
		}
	}
	opts.Log.Debugf("%s analysis of %s: fixed point after %d block visits", a.Name(), g.Name, iterations)

	res := &Result[S]{Iterations: iterations}
	if a.Direction() == Backward {
		res.in, res.out = s.other, s.solved
	} else {
		res.in, res.out = s.solved, s.other
	}
	if opts.Commit {
		for _, b := range g.Vertices() {
			b.SetFact(InFactKey(a.Name()), res.in[b.ID()])
			b.SetFact(OutFactKey(a.Name()), res.out[b.ID()])
		}
	}
	return res, nil
}

// visit recomputes both states of the block and returns true if either changed. Exceptional successors may depend
// on the solved state of the block, not only on the state the transfer function computes.
func (s *solver[S]) visit(id flowgraph.BlockID) (bool, error) {
	b, _ := s.g.Block(id)
	boundary := s.a.NewState()
	edges := s.flowEdges(id)
	if len(edges) == 0 || (s.a.Direction() == Forward && s.entries[id]) {
		s.a.Merge(boundary, s.a.NewEntryState())
	}
	for _, e := range edges {
		contribution := s.a.NewState()
		if err := s.flow(e, contribution); err != nil {
			return false, fmt.Errorf("%s: %w", s.a.Name(), err)
		}
		s.a.Merge(boundary, contribution)
	}
	solvedChanged := !s.a.Equals(boundary, s.solved[id])
	s.a.Copy(boundary, s.solved[id])

	next := s.a.NewState()
	s.a.Execute(b, boundary, next)
	changed := !s.a.Equals(next, s.other[id])
	if changed {
		s.a.Copy(next, s.other[id])
	}
	s.opts.Log.Tracef("%s: visited %s (changed: %t)", s.a.Name(), b.Name(), changed || solvedChanged)
	return changed || solvedChanged, nil
}

// flow computes the contribution of the edge into the state c
func (s *solver[S]) flow(e flowgraph.Edge, c S) error {
	dst, _ := s.g.Block(e.Dst)
	src, _ := s.g.Block(e.Src)
	dstIn, srcOut := c, s.other[e.Src]
	if s.a.Direction() == Backward {
		dstIn, srcOut = s.other[e.Dst], c
	}
	if e.Kind == flowgraph.TryCatch {
		return s.a.FlowException(dst, dstIn, src, srcOut)
	}
	s.a.FlowThrough(dst, dstIn, src, srcOut)
	return nil
}

// flowEdges returns the edges feeding the solved state of the block
func (s *solver[S]) flowEdges(id flowgraph.BlockID) []flowgraph.Edge {
	var edges []flowgraph.Edge
	if s.a.Direction() == Backward {
		edges, _ = s.g.Edges(id)
	} else {
		edges, _ = s.g.ReverseEdges(id)
	}
	if !s.opts.SkipExceptionEdges {
		return edges
	}
	kept := edges[:0]
	for _, e := range edges {
		if e.Kind != flowgraph.TryCatch {
			kept = append(kept, e)
		}
	}
	return kept
}

// dependents returns the blocks whose solved state depends on the block
func (s *solver[S]) dependents(id flowgraph.BlockID) []flowgraph.BlockID {
	var edges []flowgraph.Edge
	if s.a.Direction() == Backward {
		edges, _ = s.g.ReverseEdges(id)
	} else {
		edges, _ = s.g.Edges(id)
	}
	var deps []flowgraph.BlockID
	for _, e := range edges {
		if s.opts.SkipExceptionEdges && e.Kind == flowgraph.TryCatch {
			continue
		}
		if s.a.Direction() == Backward {
			deps = append(deps, e.Src)
		} else {
			deps = append(deps, e.Dst)
		}
	}
	return deps
}

// worklist is a FIFO queue of blocks in which a block appears at most once
type worklist struct {
	items   []flowgraph.BlockID
	members map[flowgraph.BlockID]bool
}

func newWorklist() worklist {
	return worklist{members: map[flowgraph.BlockID]bool{}}
}

func (w *worklist) push(id flowgraph.BlockID) {
	if !w.members[id] {
		w.members[id] = true
		w.items = append(w.items, id)
	}
}

func (w *worklist) pop() flowgraph.BlockID {
	id := w.items[0]
	w.items = w.items[1:]
	delete(w.members, id)
	return id
}

func (w *worklist) empty() bool { return len(w.items) == 0 }
