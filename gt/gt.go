// decovar: a streaming rewriter for multi-allelic VCF/BCF records.
// Copyright (c) 2026 decovar contributors.
//
// Licensed under the GNU Affero General Public License v3; see LICENSE.

// Package gt implements the triangular index arithmetic that maps unordered
// diploid allele pairs to and from positions in a genotype-likelihood
// vector. It is the one piece of allele-multiplicity math shared by the
// mask builder, the field updater's GT resynthesis, and the localiser's
// LPL projection, so it lives in its own dependency-free package.
package gt

// Pair is an unordered pair of allele indices, a <= b.
type Pair struct {
	A, B int
}

// Index returns the position of the unordered genotype (a, b), a <= b, in a
// G-multiplicity vector. Callers must not call this with a > b.
func Index(a, b int) int {
	if a > b {
		panic("gt.Index: a > b")
	}
	return b*(b+1)/2 + a
}

// Size returns the number of diploid genotype positions for nAl alleles
// (including the reference). Size(1) == 1: only 0/0 exists for a
// single-allele site.
func Size(nAl int) int {
	if nAl <= 0 {
		return 0
	}
	return Index(nAl-1, nAl-1) + 1
}

// BuildReverse returns a table rev such that rev[Index(a,b)] == Pair{a,b}
// for every 0 <= a <= b < nAl. It is the inverse of Index, used to recover
// the allele pair that minimizes a PL vector.
func BuildReverse(nAl int) []Pair {
	rev := make([]Pair, Size(nAl))
	for b := 0; b < nAl; b++ {
		for a := 0; a <= b; a++ {
			rev[Index(a, b)] = Pair{A: a, B: b}
		}
	}
	return rev
}

// ReverseCache memoizes BuildReverse, rebuilding only when a larger nAl is
// requested than was previously cached — the amortization strategy
// prescribed in the design notes ("the reverse table is rebuilt, not
// recomputed, only when n_al exceeds the cached size").
type ReverseCache struct {
	nAl   int
	table []Pair
}

// Get returns the reverse table for nAl, growing and rebuilding the cache
// if necessary. The returned slice must be treated as read-only and is
// only valid until the next call to Get with a larger nAl.
func (c *ReverseCache) Get(nAl int) []Pair {
	if nAl > c.nAl {
		c.table = BuildReverse(nAl)
		c.nAl = nAl
	}
	return c.table[:Size(nAl)]
}
