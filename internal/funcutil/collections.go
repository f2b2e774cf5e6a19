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

// Package funcutil holds the few generic helpers shared by the analyses and the command line: ordered views of
// block sets and a bounded parallel map used to process several methods at once.
package funcutil

import (
	"sync"
	"sync/atomic"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

// Map returns f applied to each element of a
func Map[T any, S any](a []T, f func(T) S) []S {
	b := make([]S, len(a))
	for i, x := range a {
		b[i] = f(x)
	}
	return b
}

// MapParallel is Map with at most workers goroutines running f. Workers claim the next unprocessed index, so the
// result has the order of a whatever the scheduling.
func MapParallel[T any, S any](a []T, f func(T) S, workers int) []S {
	res := make([]S, len(a))
	if workers < 1 {
		workers = 1
	}
	if workers > len(a) {
		workers = len(a)
	}
	next := int64(-1)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := atomic.AddInt64(&next, 1); i < int64(len(a)); i = atomic.AddInt64(&next, 1) {
				res[i] = f(a[i])
			}
		}()
	}
	wg.Wait()
	return res
}

// SetToOrderedSlice returns the members of set, a map whose false entries are absent members, in increasing order
func SetToOrderedSlice[T constraints.Ordered](set map[T]bool) []T {
	var members []T
	for x, in := range set {
		if in {
			members = append(members, x)
		}
	}
	slices.Sort(members)
	return members
}

// Reverse reverses a in place
func Reverse[T any](a []T) {
	for i := len(a)/2 - 1; i >= 0; i-- {
		j := len(a) - 1 - i
		a[i], a[j] = a[j], a[i]
	}
}
