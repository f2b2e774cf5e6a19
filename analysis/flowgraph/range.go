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

package flowgraph

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// ExceptionRange is a protected region: a set of blocks whose exceptions of the guarded types are handled by the
// handler block. The protected blocks are kept in the order they were added. A range without guarded types
// catches everything.
type ExceptionRange struct {
	blocks  []BlockID
	handler BlockID
	types   []string
}

// NewExceptionRange returns a range handled by handler, guarding the given exception types
func NewExceptionRange(handler BlockID, types ...string) *ExceptionRange {
	r := &ExceptionRange{handler: handler}
	for _, t := range types {
		r.AddType(t)
	}
	return r
}

// Handler returns the handler block
func (r *ExceptionRange) Handler() BlockID { return r.handler }

// Blocks returns the protected blocks, in insertion order
func (r *ExceptionRange) Blocks() []BlockID { return slices.Clone(r.blocks) }

// Len returns the number of protected blocks
func (r *ExceptionRange) Len() int { return len(r.blocks) }

// IsEmpty returns true if the range protects no block
func (r *ExceptionRange) IsEmpty() bool { return len(r.blocks) == 0 }

// Contains returns true if b is protected by the range
func (r *ExceptionRange) Contains(b BlockID) bool { return slices.Contains(r.blocks, b) }

// AddBlock adds b to the protected blocks; it is a no-op if b is already protected
func (r *ExceptionRange) AddBlock(b BlockID) {
	if !r.Contains(b) {
		r.blocks = append(r.blocks, b)
	}
}

// RemoveBlock removes b from the protected blocks and returns true if it was protected
func (r *ExceptionRange) RemoveBlock(b BlockID) bool {
	i := slices.Index(r.blocks, b)
	if i < 0 {
		return false
	}
	r.blocks = slices.Delete(r.blocks, i, i+1)
	return true
}

// Types returns the sorted guarded exception type names
func (r *ExceptionRange) Types() []string { return slices.Clone(r.types) }

// AddType adds an exception type name to the guarded types
func (r *ExceptionRange) AddType(t string) {
	i, found := slices.BinarySearch(r.types, t)
	if !found {
		r.types = slices.Insert(r.types, i, t)
	}
}

// IsCatchAll returns true if the range guards every exception type
func (r *ExceptionRange) IsCatchAll() bool { return len(r.types) == 0 }

func (r *ExceptionRange) String() string {
	ids := make([]string, len(r.blocks))
	for i, b := range r.blocks {
		ids[i] = b.String()
	}
	types := "*"
	if !r.IsCatchAll() {
		types = strings.Join(r.types, "|")
	}
	return fmt.Sprintf("[%s] -> %s (%s)", strings.Join(ids, ","), r.handler, types)
}
