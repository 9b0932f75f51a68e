// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package testutil

// GenAdjacencyLists deterministically generates n adjacency lists (each a
// sorted slice of distinct vertex indices in [0, n)) for use as test fixtures.
// density is the expected fraction of the n*n possible arcs that are present.
func GenAdjacencyLists(seed, n int, density float64) [][]int {
	rng := NewRand(seed)
	lists := make([][]int, n)
	for v := 0; v < n; v++ {
		var succ []int
		for u := 0; u < n; u++ {
			if rng.Intn(1<<20) < int(density*(1<<20)) {
				succ = append(succ, u)
			}
		}
		lists[v] = succ
	}
	return lists
}
