// decovar: a streaming rewriter for multi-allelic VCF/BCF records.
// Copyright (c) 2026 decovar contributors.
//
// Licensed under the GNU Affero General Public License v3; see LICENSE.

package mask

import (
	"testing"

	"github.com/willf/bitset"

	"github.com/h-2/decovar/gt"
)

func TestBuildNoneDropped(t *testing.T) {
	var rev gt.ReverseCache
	drop := bitset.New(3) // 3 alts, none dropped
	tr := Build(3, drop, &rev)

	if tr.NAlt != 3 || tr.NAl != 4 {
		t.Fatalf("NAlt=%d NAl=%d, want 3,4", tr.NAlt, tr.NAl)
	}
	if PopCount(tr.A) != 0 {
		t.Errorf("mA popcount = %d, want 0", PopCount(tr.A))
	}
	if PopCount(tr.R) != 0 {
		t.Errorf("mR popcount = %d, want 0", PopCount(tr.R))
	}
	if PopCount(tr.G) != 0 {
		t.Errorf("mG popcount = %d, want 0", PopCount(tr.G))
	}
	if tr.AllAltsDropped() {
		t.Error("AllAltsDropped() = true, want false")
	}
}

func TestBuildRefNeverDropped(t *testing.T) {
	var rev gt.ReverseCache
	drop := bitset.New(3)
	drop.Set(0)
	drop.Set(2)
	tr := Build(3, drop, &rev)

	if tr.R.Test(0) {
		t.Error("mR[0] (reference) set, must never be dropped")
	}
	if !tr.R.Test(1) || tr.R.Test(2) || !tr.R.Test(3) {
		t.Errorf("mR = %v, want bits 1 and 3 set only", tr.R)
	}
}

func TestBuildGenotypeMaskFollowsAlleleMask(t *testing.T) {
	// nAlt=2 -> nAl=3, alleles {0,1,2}, drop alt index 1 (allele index 2).
	var rev gt.ReverseCache
	drop := bitset.New(2)
	drop.Set(1)
	tr := Build(2, drop, &rev)

	for pos, pair := range tr.Rev {
		want := pair.A == 2 || pair.B == 2
		got := tr.G.Test(uint(pos))
		if got != want {
			t.Errorf("mG[%d] (pair %+v) = %v, want %v", pos, pair, got, want)
		}
	}
}

func TestAllAltsDropped(t *testing.T) {
	var rev gt.ReverseCache
	drop := bitset.New(2)
	drop.Set(0)
	drop.Set(1)
	tr := Build(2, drop, &rev)
	if !tr.AllAltsDropped() {
		t.Error("AllAltsDropped() = false, want true")
	}
}

func TestPopCountNil(t *testing.T) {
	if PopCount(nil) != 0 {
		t.Error("PopCount(nil) != 0")
	}
}
