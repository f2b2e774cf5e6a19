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

package ir

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// Node is a node of a statement or expression tree. Children are owned by their parent and addressed by index;
// there are no back-pointers from a child to its parent.
type Node interface {
	// NumChildren returns the number of child slots of the node
	NumChildren() int

	// Child returns the expression in slot i
	Child(i int) Expr

	// ReplaceChild puts e in slot i and returns the expression that was detached from that slot.
	// It panics if i is not a valid slot.
	ReplaceChild(i int, e Expr) Expr

	String() string
}

// Expr is an expression node
type Expr interface {
	Node
	isExpr()
}

// children is the index-addressed child storage shared by the node types
type children []Expr

func (c children) NumChildren() int { return len(c) }

func (c children) Child(i int) Expr {
	if i < 0 || i >= len(c) {
		panic(fmt.Sprintf("child index %d out of range [0,%d)", i, len(c)))
	}
	return c[i]
}

func (c children) ReplaceChild(i int, e Expr) Expr {
	old := c.Child(i)
	c[i] = e
	return old
}

func joinExprs(exprs []Expr, sep string) string {
	s := make([]string, len(exprs))
	for i, e := range exprs {
		s[i] = e.String()
	}
	return strings.Join(s, sep)
}

// VarExpr reads a local
type VarExpr struct {
	children
	Local Local
}

// NewVar returns an expression reading l
func NewVar(l Local) *VarExpr { return &VarExpr{Local: l} }

func (*VarExpr) isExpr()          {}
func (v *VarExpr) String() string { return v.Local.String() }

// ConstExpr is a constant value
type ConstExpr struct {
	children
	Value any
}

// NewConst returns a constant expression
func NewConst(v any) *ConstExpr { return &ConstExpr{Value: v} }

func (*ConstExpr) isExpr() {}

func (c *ConstExpr) String() string {
	if s, ok := c.Value.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", c.Value)
}

// ArithExpr is a binary arithmetic expression. Slot 0 is the left operand, slot 1 the right operand.
type ArithExpr struct {
	children
	Operator string
}

// NewArith returns the expression left op right
func NewArith(op string, left, right Expr) *ArithExpr {
	return &ArithExpr{children: children{left, right}, Operator: op}
}

func (*ArithExpr) isExpr() {}

func (a *ArithExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", a.children[0], a.Operator, a.children[1])
}

// InvokeExpr is a method invocation. Every argument, including the receiver, is a child slot.
type InvokeExpr struct {
	children
	Owner string
	Name  string
	Desc  string
}

// NewInvoke returns an invocation of owner.name desc with args
func NewInvoke(owner, name, desc string, args ...Expr) *InvokeExpr {
	return &InvokeExpr{children: slices.Clone(children(args)), Owner: owner, Name: name, Desc: desc}
}

func (*InvokeExpr) isExpr() {}

func (c *InvokeExpr) String() string {
	return fmt.Sprintf("%s.%s%s(%s)", c.Owner, c.Name, c.Desc, joinExprs(c.children, ", "))
}

// PhiExpr selects one argument depending on the predecessor block control arrived from.
// Arguments are kept sorted by predecessor id; child slot i holds the argument for Preds()[i].
type PhiExpr struct {
	children
	preds []BlockID
}

// NewPhi returns a phi expression with the given arguments
func NewPhi(args map[BlockID]Expr) *PhiExpr {
	p := &PhiExpr{}
	for pred := range args {
		p.preds = append(p.preds, pred)
	}
	slices.Sort(p.preds)
	for _, pred := range p.preds {
		p.children = append(p.children, args[pred])
	}
	return p
}

func (*PhiExpr) isExpr() {}

// Preds returns the predecessor blocks the phi has arguments for, in increasing id order
func (p *PhiExpr) Preds() []BlockID {
	return slices.Clone(p.preds)
}

// Arg returns the argument flowing from pred
func (p *PhiExpr) Arg(pred BlockID) (Expr, bool) {
	i, ok := slices.BinarySearch(p.preds, pred)
	if !ok {
		return nil, false
	}
	return p.children[i], true
}

func (p *PhiExpr) String() string {
	s := make([]string, len(p.preds))
	for i, pred := range p.preds {
		s[i] = fmt.Sprintf("%s:%s", pred, p.children[i])
	}
	return "phi{" + strings.Join(s, ", ") + "}"
}
