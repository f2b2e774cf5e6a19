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

	"github.com/awslabs/ar-bytecode-tools/analysis/ir"
)

// BlockID is the stable identity of a block
type BlockID = ir.BlockID

// Block is a basic block: an ordered list of statements. A block does not store its edges; those are owned by the
// graph it belongs to.
type Block struct {
	id    BlockID
	name  string
	stmts []ir.Stmt

	// facts holds per-block results committed by analyses
	facts map[string]any
}

// NewBlock returns an empty block. If name is empty, the block is named after its id.
func NewBlock(id BlockID, name string, stmts ...ir.Stmt) *Block {
	if name == "" {
		name = fmt.Sprintf("B%d", id)
	}
	return &Block{id: id, name: name, stmts: stmts}
}

// ID returns the identity of the block
func (b *Block) ID() BlockID { return b.id }

// Name returns the name of the block, unique within a graph
func (b *Block) Name() string { return b.name }

// Stmts returns the statements of the block. The slice is owned by the block.
func (b *Block) Stmts() []ir.Stmt { return b.stmts }

// Len returns the number of statements in the block
func (b *Block) Len() int { return len(b.stmts) }

// Append adds statements at the end of the block
func (b *Block) Append(stmts ...ir.Stmt) {
	b.stmts = append(b.stmts, stmts...)
}

// Insert inserts s at position i
func (b *Block) Insert(i int, s ir.Stmt) {
	b.stmts = append(b.stmts, nil)
	copy(b.stmts[i+1:], b.stmts[i:])
	b.stmts[i] = s
}

// Remove removes and returns the statement at position i
func (b *Block) Remove(i int) ir.Stmt {
	s := b.stmts[i]
	b.stmts = append(b.stmts[:i], b.stmts[i+1:]...)
	return s
}

// RemoveLastJump removes the last unconditional jump of the block. It returns false if the block has none.
func (b *Block) RemoveLastJump() bool {
	for i := len(b.stmts) - 1; i >= 0; i-- {
		if ir.IsUnconditionalJump(b.stmts[i]) {
			b.Remove(i)
			return true
		}
	}
	return false
}

// SetFact stores an analysis result on the block under key
func (b *Block) SetFact(key string, value any) {
	if b.facts == nil {
		b.facts = map[string]any{}
	}
	b.facts[key] = value
}

// Fact returns the analysis result stored under key
func (b *Block) Fact(key string) (any, bool) {
	v, ok := b.facts[key]
	return v, ok
}

func (b *Block) String() string {
	return b.name
}
