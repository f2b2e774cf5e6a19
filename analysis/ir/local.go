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
	"strconv"
	"strings"
)

// BlockID is the stable identity of a basic block. Ids are assigned by whoever builds the graph and never change
// when the graph is mutated.
type BlockID int

func (id BlockID) String() string {
	return strconv.Itoa(int(id))
}

// Local is a variable of a method body: a local variable slot (lvar) or an operand stack slot (svar), with an SSA
// version. Locals are compared by value.
type Local struct {
	Index   int
	Stack   bool
	Version int
}

// NewLocal returns the local variable slot index at the given SSA version
func NewLocal(index int, version int) Local {
	return Local{Index: index, Version: version}
}

// NewStackLocal returns the operand stack slot index at the given SSA version
func NewStackLocal(index int, version int) Local {
	return Local{Index: index, Stack: true, Version: version}
}

func (l Local) String() string {
	prefix := "lvar"
	if l.Stack {
		prefix = "svar"
	}
	if l.Version == 0 {
		return prefix + strconv.Itoa(l.Index)
	}
	return fmt.Sprintf("%s%d_%d", prefix, l.Index, l.Version)
}

// Less orders locals by kind, then index, then version.
func (l Local) Less(o Local) bool {
	if l.Stack != o.Stack {
		return !l.Stack
	}
	if l.Index != o.Index {
		return l.Index < o.Index
	}
	return l.Version < o.Version
}

// ParseLocal parses the representation returned by Local.String, e.g. "lvar0", "lvar2_3" or "svar1_1"
func ParseLocal(s string) (Local, error) {
	var l Local
	switch {
	case strings.HasPrefix(s, "lvar"):
		s = s[len("lvar"):]
	case strings.HasPrefix(s, "svar"):
		l.Stack = true
		s = s[len("svar"):]
	default:
		return Local{}, fmt.Errorf("invalid local %q: expected lvar or svar prefix", s)
	}
	idx, ver, versioned := strings.Cut(s, "_")
	i, err := strconv.Atoi(idx)
	if err != nil || i < 0 {
		return Local{}, fmt.Errorf("invalid local index in %q", s)
	}
	l.Index = i
	if versioned {
		v, err := strconv.Atoi(ver)
		if err != nil || v < 0 {
			return Local{}, fmt.Errorf("invalid local version in %q", s)
		}
		l.Version = v
	}
	return l, nil
}
