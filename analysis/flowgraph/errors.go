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

import "errors"

// Structural errors. They signal a broken invariant in the graph, usually caused by a bug in the pass that built
// or rewrote it, and are never recoverable.
var (
	// ErrUnknownVertex is returned when an operation refers to a block that is not a vertex of the graph
	ErrUnknownVertex = errors.New("unknown vertex")

	// ErrMultipleEntries is returned when an operation needs a single entry block and the graph has zero or more
	// than one
	ErrMultipleEntries = errors.New("graph does not have exactly one entry")

	// ErrDuplicateVertex is returned when a different block with the same id or name is already in the graph
	ErrDuplicateVertex = errors.New("duplicate vertex")

	// ErrInvalidRange is returned when adding an exception range that protects no block
	ErrInvalidRange = errors.New("invalid exception range")
)
