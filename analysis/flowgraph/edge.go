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
)

// EdgeKind is the kind of control transfer an edge represents
type EdgeKind int

const (
	// Immediate is a fallthrough: the destination must directly follow the source in the final order.
	// It is the smallest kind so that immediate edges sort first in a block's edge list.
	Immediate EdgeKind = iota
	// Conditional is the taken branch of a conditional jump
	Conditional
	// UnconditionalJump is a goto
	UnconditionalJump
	// Switch is one case (or the default) of a switch
	Switch
	// TryCatch is an exceptional edge from a protected block into its handler
	TryCatch
)

var edgeKindNames = [...]string{"immediate", "conditional", "jump", "switch", "trycatch"}

func (k EdgeKind) String() string {
	if k < 0 || int(k) >= len(edgeKindNames) {
		return fmt.Sprintf("EdgeKind(%d)", int(k))
	}
	return edgeKindNames[k]
}

// ParseEdgeKind returns the kind named s (as returned by EdgeKind.String)
func ParseEdgeKind(s string) (EdgeKind, error) {
	for i, name := range edgeKindNames {
		if strings.EqualFold(s, name) {
			return EdgeKind(i), nil
		}
	}
	if strings.EqualFold(s, "goto") || strings.EqualFold(s, "unconditional") {
		return UnconditionalJump, nil
	}
	return 0, fmt.Errorf("unknown edge kind %q", s)
}

// Edge is a directed edge between two blocks. Edges are values: two edges are the same edge when all their
// fields are equal. Key distinguishes parallel switch edges (the case value); it is zero for other kinds.
type Edge struct {
	Src  BlockID
	Dst  BlockID
	Kind EdgeKind
	Key  int
}

// NewEdge returns an edge of kind k from src to dst
func NewEdge(src, dst BlockID, k EdgeKind) Edge {
	return Edge{Src: src, Dst: dst, Kind: k}
}

func (e Edge) String() string {
	return fmt.Sprintf("%s %s -> %s", e.Kind, e.Src, e.Dst)
}

// lessOut orders the outgoing edges of a block: by kind, then destination, then key
func lessOut(a, b Edge) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	if a.Dst != b.Dst {
		return a.Dst < b.Dst
	}
	return a.Key < b.Key
}

// lessIn orders the incoming edges of a block: by kind, then source, then key
func lessIn(a, b Edge) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	if a.Src != b.Src {
		return a.Src < b.Src
	}
	return a.Key < b.Key
}
