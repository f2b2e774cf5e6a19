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

package codegen

import (
	"strings"

	"github.com/awslabs/ar-bytecode-tools/analysis/flowgraph"
	"golang.org/x/exp/slices"
)

// bundle is a chain of blocks connected by Immediate edges. Its blocks are emitted contiguously, in order.
type bundle struct {
	blocks []flowgraph.BlockID
}

func (b *bundle) String() string {
	s := make([]string, len(b.blocks))
	for i, id := range b.blocks {
		s[i] = id.String()
	}
	return strings.Join(s, "->")
}

// unit is a bunch of bundles that are ordered as a single vertex: bundles are bunched together when they hold
// consecutive blocks of an exception range.
type unit struct {
	index   int
	bundles []*bundle
	blocks  []flowgraph.BlockID
	// head is the smallest block id of the unit, used to break ties
	head flowgraph.BlockID
}

// formBundles chains the blocks of g into bundles. Heads are the blocks without incoming Immediate edge, taken in
// reverse post-order from the entry, then in id order for blocks not reachable from it. Blocks left over are on
// cycles of Immediate edges (or have several incoming Immediate edges): each cycle is opened at its smallest block,
// and the Immediate edge that closes it is left to naturalization.
func formBundles(g *flowgraph.Graph, entry flowgraph.BlockID) ([]*bundle, map[flowgraph.BlockID]*bundle, error) {
	postOrder, err := g.PostOrder(entry)
	if err != nil {
		return nil, nil, err
	}
	candidates := make([]flowgraph.BlockID, 0, g.Size())
	reached := map[flowgraph.BlockID]bool{}
	for i := len(postOrder) - 1; i >= 0; i-- {
		candidates = append(candidates, postOrder[i])
		reached[postOrder[i]] = true
	}
	for _, id := range g.IDs() {
		if !reached[id] {
			candidates = append(candidates, id)
		}
	}

	var bundles []*bundle
	owner := map[flowgraph.BlockID]*bundle{}
	chain := func(head flowgraph.BlockID) {
		b := &bundle{}
		for cur := head; ; {
			b.blocks = append(b.blocks, cur)
			owner[cur] = b
			next, ok := g.Immediate(cur)
			if !ok || owner[next] != nil {
				break
			}
			cur = next
		}
		bundles = append(bundles, b)
	}
	for _, id := range candidates {
		if owner[id] != nil {
			continue
		}
		if _, ok := g.IncomingImmediate(id); ok {
			continue
		}
		chain(id)
	}
	for _, id := range g.IDs() {
		if owner[id] == nil {
			chain(id)
		}
	}
	return bundles, owner, nil
}

// formUnits groups the bundles by exception ranges: two bundles holding consecutive blocks of a range end up in the
// same unit. Units are returned in the order of their first bundle.
func formUnits(g *flowgraph.Graph, bundles []*bundle, owner map[flowgraph.BlockID]*bundle) ([]*unit,
	map[flowgraph.BlockID]*unit) {
	type bunch struct{ bundles []*bundle }
	bunchOf := map[*bundle]*bunch{}
	for _, b := range bundles {
		bunchOf[b] = &bunch{bundles: []*bundle{b}}
	}
	for _, r := range g.Ranges() {
		var prev *bundle
		for _, id := range r.Blocks() {
			cur := owner[id]
			if prev != nil && cur != prev {
				a, b := bunchOf[prev], bunchOf[cur]
				if a != b {
					a.bundles = append(a.bundles, b.bundles...)
					for _, x := range b.bundles {
						bunchOf[x] = a
					}
				}
			}
			prev = cur
		}
	}

	var units []*unit
	seen := map[*bunch]bool{}
	unitOf := map[flowgraph.BlockID]*unit{}
	for _, b := range bundles {
		bu := bunchOf[b]
		if seen[bu] {
			continue
		}
		seen[bu] = true
		u := &unit{index: len(units), bundles: bu.bundles, head: b.blocks[0]}
		for _, x := range bu.bundles {
			for _, id := range x.blocks {
				u.blocks = append(u.blocks, id)
				unitOf[id] = u
				if id < u.head {
					u.head = id
				}
			}
		}
		units = append(units, u)
	}
	return units, unitOf
}

// moveFirst moves the bundle b to the front of the unit
func (u *unit) moveFirst(b *bundle) {
	i := slices.Index(u.bundles, b)
	if i <= 0 {
		return
	}
	u.bundles = append([]*bundle{b}, slices.Delete(u.bundles, i, i+1)...)
	u.blocks = u.blocks[:0]
	for _, x := range u.bundles {
		u.blocks = append(u.blocks, x.blocks...)
	}
}
