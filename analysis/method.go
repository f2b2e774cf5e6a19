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
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/awslabs/ar-bytecode-tools/analysis/flowgraph"
	"github.com/awslabs/ar-bytecode-tools/analysis/ir"
	"gopkg.in/yaml.v3"
)

// ErrInvalidMethod is returned when a method description cannot be turned into a flow graph
var ErrInvalidMethod = errors.New("invalid method")

// Method is a method body loaded from a description file
type Method struct {
	// Graph is the flow graph of the method. Its name is the name of the method.
	Graph *flowgraph.Graph
	Desc  string
	// Params are the locals assigned on entry
	Params []ir.Local
	// File is the file the method was loaded from, if any
	File string
}

// Name returns the name of the method
func (m *Method) Name() string { return m.Graph.Name }

// methodSpec is the yaml description of a method
type methodSpec struct {
	Name   string      `yaml:"name"`
	Desc   string      `yaml:"desc"`
	Params []string    `yaml:"params"`
	Entry  string      `yaml:"entry"`
	Blocks []blockSpec `yaml:"blocks"`
	Edges  []edgeSpec  `yaml:"edges"`
	Ranges []rangeSpec `yaml:"ranges"`
}

type blockSpec struct {
	Name string     `yaml:"name"`
	ID   *int       `yaml:"id"`
	Code []stmtSpec `yaml:"code"`
}

type stmtSpec struct {
	Op       string            `yaml:"op"`
	Def      string            `yaml:"def"`
	Uses     []string          `yaml:"uses"`
	Const    any               `yaml:"const"`
	Operator string            `yaml:"operator"`
	Invoke   string            `yaml:"invoke"`
	Args     map[string]string `yaml:"args"`
	Target   string            `yaml:"target"`
	Targets  []string          `yaml:"targets"`
	Keys     []int             `yaml:"keys"`
	Default  string            `yaml:"default"`
}

type edgeSpec struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
	Kind string `yaml:"kind"`
	// Key is the case value of a switch edge
	Key int `yaml:"key"`
}

type rangeSpec struct {
	Blocks  []string `yaml:"blocks"`
	Handler string   `yaml:"handler"`
	Types   []string `yaml:"types"`
}

// LoadMethod reads the method described in the yaml file
func LoadMethod(filename string) (*Method, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read method file: %w", err)
	}
	m, err := ParseMethod(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	m.File = filename
	return m, nil
}

// ParseMethod parses a yaml method description. Unknown fields, block names, statement operations and edge kinds are
// errors.
func ParseMethod(b []byte) (*Method, error) {
	var spec methodSpec
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty description", ErrInvalidMethod)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidMethod, err)
	}
	p := &methodParser{spec: spec, ids: map[string]flowgraph.BlockID{}}
	return p.build()
}

type methodParser struct {
	spec methodSpec
	ids  map[string]flowgraph.BlockID
}

func (p *methodParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidMethod, p.spec.Name, fmt.Sprintf(format, args...))
}

func (p *methodParser) build() (*Method, error) {
	if p.spec.Name == "" {
		return nil, fmt.Errorf("%w: missing name", ErrInvalidMethod)
	}
	if len(p.spec.Blocks) == 0 {
		return nil, p.errorf("no blocks")
	}
	g := flowgraph.New(p.spec.Name)
	m := &Method{Graph: g, Desc: p.spec.Desc}

	// ids are assigned first so that statements can refer to blocks declared later
	next := flowgraph.BlockID(0)
	for _, bs := range p.spec.Blocks {
		if bs.Name == "" {
			return nil, p.errorf("block without name")
		}
		if _, dup := p.ids[bs.Name]; dup {
			return nil, p.errorf("duplicate block %s", bs.Name)
		}
		id := next
		if bs.ID != nil {
			id = flowgraph.BlockID(*bs.ID)
		}
		p.ids[bs.Name] = id
		next = id + 1
	}
	for _, bs := range p.spec.Blocks {
		b := flowgraph.NewBlock(p.ids[bs.Name], bs.Name)
		for i, ss := range bs.Code {
			s, err := p.stmt(ss)
			if err != nil {
				return nil, p.errorf("block %s, statement %d: %v", bs.Name, i, err)
			}
			b.Append(s)
		}
		if err := g.AddVertex(b); err != nil {
			return nil, p.errorf("%v", err)
		}
	}

	entry := p.spec.Entry
	if entry == "" {
		entry = p.spec.Blocks[0].Name
	}
	id, err := p.block(entry)
	if err != nil {
		return nil, p.errorf("entry: %v", err)
	}
	if err := g.AddEntry(id); err != nil {
		return nil, p.errorf("%v", err)
	}

	for _, es := range p.spec.Edges {
		e, err := p.edge(es)
		if err != nil {
			return nil, p.errorf("edge %s -> %s: %v", es.From, es.To, err)
		}
		if err := g.AddEdge(e); err != nil {
			return nil, p.errorf("%v", err)
		}
	}

	for i, rs := range p.spec.Ranges {
		r, err := p.exceptionRange(rs)
		if err != nil {
			return nil, p.errorf("range %d: %v", i, err)
		}
		if err := g.AddRange(r); err != nil {
			return nil, p.errorf("range %d: %v", i, err)
		}
		// protected blocks flow into the handler
		for _, b := range r.Blocks() {
			if err := g.AddEdge(flowgraph.NewEdge(b, r.Handler(), flowgraph.TryCatch)); err != nil {
				return nil, p.errorf("range %d: %v", i, err)
			}
		}
	}

	for _, s := range p.spec.Params {
		l, err := ir.ParseLocal(s)
		if err != nil {
			return nil, p.errorf("params: %v", err)
		}
		m.Params = append(m.Params, l)
	}
	return m, nil
}

func (p *methodParser) block(name string) (flowgraph.BlockID, error) {
	id, ok := p.ids[name]
	if !ok {
		return 0, fmt.Errorf("unknown block %q", name)
	}
	return id, nil
}

func (p *methodParser) edge(es edgeSpec) (flowgraph.Edge, error) {
	src, err := p.block(es.From)
	if err != nil {
		return flowgraph.Edge{}, err
	}
	dst, err := p.block(es.To)
	if err != nil {
		return flowgraph.Edge{}, err
	}
	kind, err := flowgraph.ParseEdgeKind(es.Kind)
	if err != nil {
		return flowgraph.Edge{}, err
	}
	e := flowgraph.NewEdge(src, dst, kind)
	e.Key = es.Key
	return e, nil
}

func (p *methodParser) exceptionRange(rs rangeSpec) (*flowgraph.ExceptionRange, error) {
	handler, err := p.block(rs.Handler)
	if err != nil {
		return nil, err
	}
	r := flowgraph.NewExceptionRange(handler, rs.Types...)
	for _, name := range rs.Blocks {
		b, err := p.block(name)
		if err != nil {
			return nil, err
		}
		r.AddBlock(b)
	}
	return r, nil
}

func (p *methodParser) uses(ss stmtSpec) ([]ir.Expr, error) {
	exprs := make([]ir.Expr, len(ss.Uses))
	for i, u := range ss.Uses {
		l, err := ir.ParseLocal(u)
		if err != nil {
			return nil, err
		}
		exprs[i] = ir.NewVar(l)
	}
	return exprs, nil
}

// value returns the expression computed by a statement: an invocation, a binary operation on the two uses, the use
// itself or the constant
func (p *methodParser) value(ss stmtSpec) (ir.Expr, error) {
	uses, err := p.uses(ss)
	if err != nil {
		return nil, err
	}
	switch {
	case ss.Invoke != "":
		owner, name, desc, err := parseInvoke(ss.Invoke)
		if err != nil {
			return nil, err
		}
		return ir.NewInvoke(owner, name, desc, uses...), nil
	case ss.Operator != "":
		if len(uses) != 2 {
			return nil, fmt.Errorf("operator %s needs two uses, got %d", ss.Operator, len(uses))
		}
		return ir.NewArith(ss.Operator, uses[0], uses[1]), nil
	case len(uses) == 1:
		return uses[0], nil
	case len(uses) == 0 && ss.Const != nil:
		return ir.NewConst(ss.Const), nil
	}
	return nil, fmt.Errorf("cannot build a value from %d uses", len(uses))
}

func (p *methodParser) stmt(ss stmtSpec) (ir.Stmt, error) {
	switch ss.Op {
	case "copy":
		def, err := ir.ParseLocal(ss.Def)
		if err != nil {
			return nil, err
		}
		v, err := p.value(ss)
		if err != nil {
			return nil, err
		}
		return ir.NewCopy(def, v), nil
	case "phi":
		def, err := ir.ParseLocal(ss.Def)
		if err != nil {
			return nil, err
		}
		args := map[ir.BlockID]ir.Expr{}
		for pred, arg := range ss.Args {
			id, err := p.block(pred)
			if err != nil {
				return nil, err
			}
			l, err := ir.ParseLocal(arg)
			if err != nil {
				return nil, err
			}
			args[id] = ir.NewVar(l)
		}
		return ir.NewCopy(def, ir.NewPhi(args)), nil
	case "use":
		v, err := p.value(ss)
		if err != nil {
			return nil, err
		}
		return ir.NewPop(v), nil
	case "if":
		target, err := p.block(ss.Target)
		if err != nil {
			return nil, err
		}
		uses, err := p.uses(ss)
		if err != nil {
			return nil, err
		}
		cmp := ss.Operator
		if cmp == "" {
			cmp = "!="
		}
		switch len(uses) {
		case 1:
			c := ss.Const
			if c == nil {
				c = 0
			}
			return ir.NewConditionalJump(uses[0], cmp, ir.NewConst(c), target), nil
		case 2:
			return ir.NewConditionalJump(uses[0], cmp, uses[1], target), nil
		}
		return nil, fmt.Errorf("if needs one or two uses, got %d", len(uses))
	case "goto":
		target, err := p.block(ss.Target)
		if err != nil {
			return nil, err
		}
		return ir.NewJump(target), nil
	case "switch":
		v, err := p.value(ss)
		if err != nil {
			return nil, err
		}
		if len(ss.Keys) != len(ss.Targets) {
			return nil, fmt.Errorf("switch has %d keys and %d targets", len(ss.Keys), len(ss.Targets))
		}
		targets := make([]ir.BlockID, len(ss.Targets))
		for i, t := range ss.Targets {
			if targets[i], err = p.block(t); err != nil {
				return nil, err
			}
		}
		dflt, err := p.block(ss.Default)
		if err != nil {
			return nil, err
		}
		return ir.NewSwitch(v, ss.Keys, targets, dflt), nil
	case "return":
		if len(ss.Uses) == 0 && ss.Const == nil && ss.Invoke == "" {
			return ir.NewReturn(nil), nil
		}
		v, err := p.value(ss)
		if err != nil {
			return nil, err
		}
		return ir.NewReturn(v), nil
	case "throw":
		v, err := p.value(ss)
		if err != nil {
			return nil, err
		}
		return ir.NewThrow(v), nil
	}
	return nil, fmt.Errorf("unknown operation %q", ss.Op)
}

// parseInvoke splits a method reference of the form owner.name(desc)ret
func parseInvoke(s string) (owner string, name string, desc string, err error) {
	paren := strings.IndexByte(s, '(')
	if paren < 0 {
		return "", "", "", fmt.Errorf("invalid method reference %q", s)
	}
	dot := strings.LastIndexByte(s[:paren], '.')
	if dot <= 0 || dot == paren-1 {
		return "", "", "", fmt.Errorf("invalid method reference %q", s)
	}
	return s[:dot], s[dot+1 : paren], s[paren:], nil
}
