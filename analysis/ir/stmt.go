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

// Stmt is a statement of a basic block
type Stmt interface {
	Node
	isStmt()
}

// CopyVarStmt assigns the value in slot 0 to Var. The target is not a child: it is written, not read.
type CopyVarStmt struct {
	children
	Var Local
}

// NewCopy returns the statement v = e
func NewCopy(v Local, e Expr) *CopyVarStmt {
	return &CopyVarStmt{children: children{e}, Var: v}
}

func (*CopyVarStmt) isStmt() {}

// Value returns the assigned expression
func (c *CopyVarStmt) Value() Expr { return c.children[0] }

func (c *CopyVarStmt) String() string {
	return fmt.Sprintf("%s = %s;", c.Var, c.children[0])
}

// PopStmt evaluates an expression for its side effects and discards the result
type PopStmt struct {
	children
}

// NewPop returns a statement evaluating e
func NewPop(e Expr) *PopStmt { return &PopStmt{children: children{e}} }

func (*PopStmt) isStmt()          {}
func (p *PopStmt) String() string { return p.children[0].String() + ";" }

// ReturnStmt returns from the method, with a value in slot 0 if it has one child
type ReturnStmt struct {
	children
}

// NewReturn returns a return statement; e may be nil for a void return
func NewReturn(e Expr) *ReturnStmt {
	if e == nil {
		return &ReturnStmt{}
	}
	return &ReturnStmt{children: children{e}}
}

func (*ReturnStmt) isStmt() {}

func (r *ReturnStmt) String() string {
	if len(r.children) == 0 {
		return "return;"
	}
	return "return " + r.children[0].String() + ";"
}

// ThrowStmt throws the exception in slot 0
type ThrowStmt struct {
	children
}

// NewThrow returns a statement throwing e
func NewThrow(e Expr) *ThrowStmt { return &ThrowStmt{children: children{e}} }

func (*ThrowStmt) isStmt()          {}
func (t *ThrowStmt) String() string { return "throw " + t.children[0].String() + ";" }

// UnconditionalJumpStmt transfers control to Target
type UnconditionalJumpStmt struct {
	children
	Target BlockID
}

// NewJump returns a goto to target
func NewJump(target BlockID) *UnconditionalJumpStmt {
	return &UnconditionalJumpStmt{Target: target}
}

func (*UnconditionalJumpStmt) isStmt() {}

func (j *UnconditionalJumpStmt) String() string {
	return fmt.Sprintf("goto %s;", j.Target)
}

// ConditionalJumpStmt transfers control to Target when the comparison of slot 0 and slot 1 holds
type ConditionalJumpStmt struct {
	children
	Comparison string
	Target     BlockID
}

// NewConditionalJump returns the statement if (left cmp right) goto target
func NewConditionalJump(left Expr, cmp string, right Expr, target BlockID) *ConditionalJumpStmt {
	return &ConditionalJumpStmt{children: children{left, right}, Comparison: cmp, Target: target}
}

func (*ConditionalJumpStmt) isStmt() {}

func (c *ConditionalJumpStmt) String() string {
	return fmt.Sprintf("if (%s %s %s) goto %s;", c.children[0], c.Comparison, c.children[1], c.Target)
}

// SwitchStmt transfers control to Targets[k] when slot 0 evaluates to Keys[k], and to Default otherwise
type SwitchStmt struct {
	children
	Keys    []int
	Targets []BlockID
	Default BlockID
}

// NewSwitch returns a switch statement. keys and targets must have the same length.
func NewSwitch(e Expr, keys []int, targets []BlockID, dflt BlockID) *SwitchStmt {
	return &SwitchStmt{
		children: children{e},
		Keys:     slices.Clone(keys),
		Targets:  slices.Clone(targets),
		Default:  dflt,
	}
}

func (*SwitchStmt) isStmt() {}

func (s *SwitchStmt) String() string {
	cases := make([]string, len(s.Keys))
	for i, k := range s.Keys {
		cases[i] = fmt.Sprintf("%d: goto %s", k, s.Targets[i])
	}
	cases = append(cases, fmt.Sprintf("default: goto %s", s.Default))
	return fmt.Sprintf("switch (%s) { %s }", s.children[0], strings.Join(cases, "; "))
}
