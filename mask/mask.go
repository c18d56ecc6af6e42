// decovar: a streaming rewriter for multi-allelic VCF/BCF records.
// Copyright (c) 2026 decovar contributors.
//
// Licensed under the GNU Affero General Public License v3; see LICENSE.

// Package mask builds the three aligned drop-masks (mA, mR, mG) that the
// container rewriter and field updater consume. A set bit marks a position
// to drop, following the convention of §4.2 of the design.
package mask

import (
	"github.com/willf/bitset"

	"github.com/h-2/decovar/gt"
)

// Triple holds the three masks derived from a single alternative-allele
// drop decision, plus the reverse pair table needed to resynthesize GT
// afterwards.
type Triple struct {
	A, R, G *bitset.BitSet
	Rev     []gt.Pair
	NAlt    int // length of A
	NAl     int // length of R
}

// Build constructs mA, mR, mG from dropAlt (length nAlt, bit i set means
// alternative i is dropped). The reference allele (index 0 of R) is never
// marked.
//
//   mA[i]   = dropAlt[i]
//   mR[0]   = 0, mR[i+1] = mA[i]
//   mG[Index(a,b)] = mR[a] || mR[b]
func Build(nAlt int, dropAlt *bitset.BitSet, rev *gt.ReverseCache) Triple {
	nAl := nAlt + 1
	mA := dropAlt.Clone()

	mR := bitset.New(uint(nAl))
	for i := 0; i < nAlt; i++ {
		if mA.Test(uint(i)) {
			mR.Set(uint(i + 1))
		}
	}

	gSize := gt.Size(nAl)
	mG := bitset.New(uint(gSize))
	table := rev.Get(nAl)
	for pos, pair := range table {
		if mR.Test(uint(pair.A)) || mR.Test(uint(pair.B)) {
			mG.Set(uint(pos))
		}
	}

	return Triple{A: mA, R: mR, G: mG, Rev: table, NAlt: nAlt, NAl: nAl}
}

// PopCount returns the number of set ("drop") bits in b, or 0 for a nil mask.
func PopCount(b *bitset.BitSet) int {
	if b == nil {
		return 0
	}
	return int(b.Count())
}

// AllAltsDropped reports whether every alternative allele is marked for
// removal, the condition under which §4.4 requires the whole record to be
// skipped.
func (t Triple) AllAltsDropped() bool {
	return PopCount(t.A) == t.NAlt
}
