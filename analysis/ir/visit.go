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

// Enumerate returns n followed by all its sub-expressions, in pre-order
func Enumerate(n Node) []Node {
	var nodes []Node
	var visit func(Node)
	visit = func(x Node) {
		if x == nil {
			return
		}
		nodes = append(nodes, x)
		for i := 0; i < x.NumChildren(); i++ {
			if c := x.Child(i); c != nil {
				visit(c)
			}
		}
	}
	visit(n)
	return nodes
}

// Reads returns the locals read by n or any of its sub-expressions, in pre-order and with repetitions.
func Reads(n Node) []Local {
	var locals []Local
	for _, x := range Enumerate(n) {
		if v, ok := x.(*VarExpr); ok {
			locals = append(locals, v.Local)
		}
	}
	return locals
}

// IsCopy returns the statement as a copy assignment if it is one
func IsCopy(s Stmt) (*CopyVarStmt, bool) {
	c, ok := s.(*CopyVarStmt)
	return c, ok
}

// IsPhi returns true if s is a copy assignment of a phi expression
func IsPhi(s Stmt) bool {
	c, ok := s.(*CopyVarStmt)
	if !ok {
		return false
	}
	_, ok = c.Value().(*PhiExpr)
	return ok
}

// IsUnconditionalJump returns true if s is a goto
func IsUnconditionalJump(s Stmt) bool {
	_, ok := s.(*UnconditionalJumpStmt)
	return ok
}
