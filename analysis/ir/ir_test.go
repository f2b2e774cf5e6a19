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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocal(t *testing.T) {
	for _, s := range []string{"lvar0", "lvar2_3", "svar1_1", "svar12"} {
		l, err := ParseLocal(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, l.String())
	}
	for _, s := range []string{"", "x1", "lvar", "lvar_1", "svar1_x", "lvar-1"} {
		_, err := ParseLocal(s)
		assert.Error(t, err, s)
	}
}

func TestLocalLess(t *testing.T) {
	assert.True(t, NewLocal(0, 5).Less(NewLocal(1, 0)))
	assert.True(t, NewLocal(3, 1).Less(NewLocal(3, 2)))
	assert.True(t, NewLocal(9, 9).Less(NewStackLocal(0, 0)))
	assert.False(t, NewLocal(1, 1).Less(NewLocal(1, 1)))
}

func TestReplaceChildReturnsDetached(t *testing.T) {
	x := NewVar(NewLocal(0, 1))
	y := NewVar(NewLocal(1, 1))
	add := NewArith("+", x, NewConst(1))
	cp := NewCopy(NewLocal(2, 1), add)

	old := add.ReplaceChild(0, y)
	assert.Same(t, x, old)
	assert.Equal(t, "lvar2_1 = (lvar1_1 + 1);", cp.String())
	assert.Equal(t, []Local{NewLocal(1, 1)}, Reads(cp))

	assert.Panics(t, func() { add.ReplaceChild(2, x) })
	assert.Panics(t, func() { x.Child(0) })
}

func TestEnumeratePreOrder(t *testing.T) {
	a := NewVar(NewLocal(0, 1))
	b := NewVar(NewLocal(1, 1))
	call := NewInvoke("java/io/PrintStream", "println", "(I)V", a, NewArith("*", b, a))
	stmt := NewPop(call)

	nodes := Enumerate(stmt)
	require.Len(t, nodes, 6)
	assert.Same(t, Node(stmt), nodes[0])
	assert.Same(t, Node(call), nodes[1])
	assert.Equal(t, []Local{NewLocal(0, 1), NewLocal(1, 1), NewLocal(0, 1)}, Reads(stmt))
}

func TestPhi(t *testing.T) {
	p := NewPhi(map[BlockID]Expr{
		3: NewVar(NewLocal(0, 2)),
		1: NewVar(NewLocal(0, 1)),
	})
	assert.Equal(t, []BlockID{1, 3}, p.Preds())
	arg, ok := p.Arg(3)
	require.True(t, ok)
	assert.Equal(t, "lvar0_2", arg.String())
	_, ok = p.Arg(2)
	assert.False(t, ok)

	s := NewCopy(NewLocal(0, 3), p)
	assert.True(t, IsPhi(s))
	assert.False(t, IsPhi(NewCopy(NewLocal(0, 3), NewConst(0))))
	assert.False(t, IsPhi(NewJump(1)))
	assert.Equal(t, "lvar0_3 = phi{1:lvar0_1, 3:lvar0_2};", s.String())
}

func TestJumpPredicates(t *testing.T) {
	assert.True(t, IsUnconditionalJump(NewJump(4)))
	assert.False(t, IsUnconditionalJump(NewConditionalJump(NewConst(0), "==", NewConst(1), 4)))
	assert.False(t, IsUnconditionalJump(NewReturn(nil)))
	_, ok := IsCopy(NewReturn(nil))
	assert.False(t, ok)
	assert.Equal(t, "return;", NewReturn(nil).String())
	assert.Equal(t, "switch (lvar0) { 1: goto 2; 5: goto 3; default: goto 4 }",
		NewSwitch(NewVar(NewLocal(0, 0)), []int{1, 5}, []BlockID{2, 3}, 4).String())
}
