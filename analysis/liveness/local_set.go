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

package liveness

import (
	"strings"

	"github.com/awslabs/ar-bytecode-tools/analysis/ir"
	"golang.org/x/exp/slices"
	"golang.org/x/tools/container/intsets"
)

// LocalIndex assigns dense integers to locals, so that sets of locals can be represented as bit sets.
// All the sets of one analysis share the same index.
type LocalIndex struct {
	ids    map[ir.Local]int
	locals []ir.Local
}

// NewLocalIndex returns an empty index
func NewLocalIndex() *LocalIndex {
	return &LocalIndex{ids: map[ir.Local]int{}}
}

// ID returns the integer of the local, adding the local to the index if needed
func (x *LocalIndex) ID(l ir.Local) int {
	if id, ok := x.ids[l]; ok {
		return id
	}
	id := len(x.locals)
	x.ids[l] = id
	x.locals = append(x.locals, l)
	return id
}

// Local returns the local with the given integer
func (x *LocalIndex) Local(id int) ir.Local { return x.locals[id] }

// Len returns the number of locals in the index
func (x *LocalIndex) Len() int { return len(x.locals) }

// NewSet returns a set containing the locals
func (x *LocalIndex) NewSet(locals ...ir.Local) *LocalSet {
	s := &LocalSet{index: x}
	for _, l := range locals {
		s.Add(l)
	}
	return s
}

// LocalSet is a mutable set of locals
type LocalSet struct {
	index *LocalIndex
	bits  intsets.Sparse
}

// Add adds l to the set and returns true if it was not already in it
func (s *LocalSet) Add(l ir.Local) bool { return s.bits.Insert(s.index.ID(l)) }

// Remove removes l from the set and returns true if it was in it
func (s *LocalSet) Remove(l ir.Local) bool {
	id, ok := s.index.ids[l]
	return ok && s.bits.Remove(id)
}

// Has returns true if l is in the set
func (s *LocalSet) Has(l ir.Local) bool {
	id, ok := s.index.ids[l]
	return ok && s.bits.Has(id)
}

// Len returns the number of locals in the set
func (s *LocalSet) Len() int { return s.bits.Len() }

// IsEmpty returns true if the set has no element
func (s *LocalSet) IsEmpty() bool { return s.bits.IsEmpty() }

// UnionWith adds all the locals of o to s
func (s *LocalSet) UnionWith(o *LocalSet) { s.bits.UnionWith(&o.bits) }

// IntersectionWith removes from s the locals that are not in o
func (s *LocalSet) IntersectionWith(o *LocalSet) { s.bits.IntersectionWith(&o.bits) }

// DifferenceWith removes all the locals of o from s
func (s *LocalSet) DifferenceWith(o *LocalSet) { s.bits.DifferenceWith(&o.bits) }

// Equals returns true if both sets contain the same locals
func (s *LocalSet) Equals(o *LocalSet) bool { return s.bits.Equals(&o.bits) }

// Copy overwrites s with the content of o
func (s *LocalSet) Copy(o *LocalSet) { s.bits.Copy(&o.bits) }

// Clear removes all the locals
func (s *LocalSet) Clear() { s.bits.Clear() }

// Locals returns the locals of the set, sorted
func (s *LocalSet) Locals() []ir.Local {
	ids := s.bits.AppendTo(nil)
	locals := make([]ir.Local, len(ids))
	for i, id := range ids {
		locals[i] = s.index.Local(id)
	}
	slices.SortFunc(locals, func(a, b ir.Local) bool { return a.Less(b) })
	return locals
}

func (s *LocalSet) String() string {
	var b strings.Builder
	b.WriteString("{")
	for i, l := range s.Locals() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(l.String())
	}
	b.WriteString("}")
	return b.String()
}
