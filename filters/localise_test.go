// decovar: a streaming rewriter for multi-allelic VCF/BCF records.
// Copyright (c) 2026 decovar contributors.
//
// Licensed under the GNU Affero General Public License v3; see LICENSE.

package filters

import (
	"testing"

	"github.com/h-2/decovar/gt"
	"github.com/h-2/decovar/vcf"
)

// newLocaliseRecord builds a 3-alt, 1-sample record with the PL row used
// throughout: ref + 3 alternatives, PL in gt.Size(4) = 10 triangular order.
func newLocaliseRecord() *vcf.Record {
	rec := &vcf.Record{Chrom: "chr1", Pos: 1, Ref: "A", Alt: []string{"C", "G", "T"}}
	pl := vcf.NewUniformJagged(vcf.KindInt32, 1, gt.Size(4))
	copy(pl.Int32, []int32{10, 0, 5, 20, 15, 30, 50, 40, 60, 55})
	ad := vcf.NewUniformJagged(vcf.KindInt32, 1, 4)
	copy(ad.Int32, []int32{5, 1, 10, 2})
	rec.Genotypes = []vcf.GenotypeField{
		{ID: vcf.IDAD, Value: *ad},
		{ID: vcf.IDPL, Value: *pl},
	}
	return rec
}

func TestRankAlternativesPicksTopTwo(t *testing.T) {
	rec := newLocaliseRecord()
	pl := rec.GenotypeField(vcf.IDPL)
	var rev gt.ReverseCache
	origRev := rev.Get(rec.NAl())

	chosen := rankAlternatives(pl.Value, 0, origRev, rec.NAlt(), 2)
	if len(chosen) != 2 || chosen[0] != 1 || chosen[1] != 2 {
		t.Fatalf("chosen = %v, want [1 2]", chosen)
	}
}

func TestLocaliserApplyProjectsLAALADLPL(t *testing.T) {
	rec := newLocaliseRecord()
	f := Localiser{L: 2}
	var rev gt.ReverseCache

	if err := f.Apply(rec, &rev); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	laa := rec.GenotypeField(vcf.IDLAA)
	if laa == nil {
		t.Fatal("LAA missing")
	}
	start, _ := laa.Value.Row(0)
	if laa.Value.Int32[start] != 1 || laa.Value.Int32[start+1] != 2 {
		t.Fatalf("LAA = %v, want [1 2]", laa.Value.Int32[start:start+2])
	}

	lad := rec.GenotypeField(vcf.IDLAD)
	if lad == nil {
		t.Fatal("LAD missing")
	}
	lStart, _ := lad.Value.Row(0)
	want := []int32{5, 1, 10}
	for i, w := range want {
		if lad.Value.Int32[lStart+i] != w {
			t.Errorf("LAD[%d] = %d, want %d", i, lad.Value.Int32[lStart+i], w)
		}
	}

	lpl := rec.GenotypeField(vcf.IDLPL)
	if lpl == nil {
		t.Fatal("LPL missing")
	}
	wantPL := []int32{10, 0, 5, 20, 15, 30}
	if lpl.Value.RowLen(0) != len(wantPL) {
		t.Fatalf("LPL row len = %d, want %d", lpl.Value.RowLen(0), len(wantPL))
	}
	pStart, _ := lpl.Value.Row(0)
	for i, w := range wantPL {
		if lpl.Value.Int32[pStart+i] != w {
			t.Errorf("LPL[%d] = %d, want %d", i, lpl.Value.Int32[pStart+i], w)
		}
	}

	// Global AD/PL are dropped by default (KeepGlobalFields is false).
	if rec.GenotypeField(vcf.IDAD) != nil {
		t.Error("global AD not dropped")
	}
	if rec.GenotypeField(vcf.IDPL) != nil {
		t.Error("global PL not dropped")
	}
}

func TestLocaliserKeepGlobalFields(t *testing.T) {
	rec := newLocaliseRecord()
	f := Localiser{L: 2, KeepGlobalFields: true}
	var rev gt.ReverseCache
	if err := f.Apply(rec, &rev); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if rec.GenotypeField(vcf.IDAD) == nil {
		t.Error("global AD dropped despite KeepGlobalFields")
	}
	if rec.GenotypeField(vcf.IDPL) == nil {
		t.Error("global PL dropped despite KeepGlobalFields")
	}
}

func TestLocaliserNoOpBelowBudget(t *testing.T) {
	rec := newLocaliseRecord()
	rec.Alt = rec.Alt[:1] // n_alt = 1, well under L=2
	pl := vcf.NewUniformJagged(vcf.KindInt32, 1, gt.Size(2))
	rec.Genotypes = []vcf.GenotypeField{{ID: vcf.IDPL, Value: *pl}}

	f := Localiser{L: 2}
	var rev gt.ReverseCache
	if err := f.Apply(rec, &rev); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if rec.GenotypeField(vcf.IDLAA) != nil {
		t.Error("LAA added despite n_alt <= L and TransformAll=false")
	}
}

func TestLocaliserTransformAllBelowBudget(t *testing.T) {
	rec := newLocaliseRecord()
	rec.Alt = rec.Alt[:1]
	pl := vcf.NewUniformJagged(vcf.KindInt32, 1, gt.Size(2))
	copy(pl.Int32, []int32{10, 0, 5})
	rec.Genotypes = []vcf.GenotypeField{{ID: vcf.IDPL, Value: *pl}}

	f := Localiser{L: 2, TransformAll: true}
	var rev gt.ReverseCache
	if err := f.Apply(rec, &rev); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if rec.GenotypeField(vcf.IDLAA) == nil {
		t.Error("LAA not added despite TransformAll=true")
	}
}

func TestLocaliserMissingPLIsUnsupported(t *testing.T) {
	rec := newLocaliseRecord()
	rec.Genotypes = nil
	f := Localiser{L: 2}
	var rev gt.ReverseCache
	if err := f.Apply(rec, &rev); err == nil {
		t.Fatal("Apply succeeded without a PL field")
	}
}

func TestLocaliserRegisterHeaderIdempotent(t *testing.T) {
	hdr := vcf.NewHeader()
	f := Localiser{L: 2}
	f.RegisterHeader(hdr)
	f.RegisterHeader(hdr)
	if len(hdr.Formats) != 3 {
		t.Fatalf("Formats = %d entries, want 3 (LAA,LAD,LPL), registered once each", len(hdr.Formats))
	}
}

func TestLocaliserRegisterHeaderDisabled(t *testing.T) {
	hdr := vcf.NewHeader()
	f := Localiser{L: 0}
	f.RegisterHeader(hdr)
	if len(hdr.Formats) != 0 {
		t.Fatalf("Formats = %d entries, want 0 when L<=0", len(hdr.Formats))
	}
}
