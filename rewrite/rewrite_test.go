// decovar: a streaming rewriter for multi-allelic VCF/BCF records.
// Copyright (c) 2026 decovar contributors.
//
// Licensed under the GNU Affero General Public License v3; see LICENSE.

package rewrite

import (
	"testing"

	"github.com/willf/bitset"

	"github.com/h-2/decovar/gt"
	"github.com/h-2/decovar/mask"
	"github.com/h-2/decovar/vcf"
)

func newTestHeader() *vcf.Header {
	hdr := vcf.NewHeader()
	hdr.AddInfo(&vcf.FieldInfo{ID: vcf.IDAF, Number: vcf.NumberA, Type: vcf.Float})
	hdr.AddFormat(&vcf.FieldInfo{ID: vcf.IDAD, Number: vcf.NumberR, Type: vcf.Integer})
	hdr.AddFormat(&vcf.FieldInfo{ID: vcf.IDPL, Number: vcf.NumberG, Type: vcf.Integer})
	return hdr
}

// A biallelic-plus-one-dropped-alt record: REF + 2 ALTs, dropping ALT index
// 1 (the second alternative, 0-based), one sample.
func newTestRecord() *vcf.Record {
	rec := &vcf.Record{
		Chrom: "chr1",
		Pos:   100,
		Ref:   "A",
		Alt:   []string{"C", "G"},
		Info: []vcf.InfoField{
			{ID: vcf.IDAF, Value: vcf.Value{Kind: vcf.KindFloat, Float: []float64{0.3, 0.01}}},
		},
	}
	ad := vcf.NewUniformJagged(vcf.KindInt32, 1, 3) // R: ref,alt1,alt2
	copy(ad.Int32, []int32{5, 10, 1})
	pl := vcf.NewUniformJagged(vcf.KindInt32, 1, gt.Size(3)) // G: 0/0,0/1,1/1,0/2,1/2,2/2
	copy(pl.Int32, []int32{30, 0, 40, 60, 70, 80})
	gtField := vcf.NewUniformJagged(vcf.KindInt32, 1, 2)
	copy(gtField.Int32, []int32{0, 1}) // 0/1, consistent with the PL minimum above
	rec.Genotypes = []vcf.GenotypeField{
		{ID: vcf.IDGT, Value: *gtField},
		{ID: vcf.IDAD, Value: *ad},
		{ID: vcf.IDPL, Value: *pl},
	}
	return rec
}

func TestUpdateRecordDropsSecondAlt(t *testing.T) {
	hdr := newTestHeader()
	rec := newTestRecord()

	var rev gt.ReverseCache
	drop := bitset.New(2)
	drop.Set(1) // drop ALT index 1 ("G")
	masks := mask.Build(rec.NAlt(), drop, &rev)
	if masks.AllAltsDropped() {
		t.Fatal("AllAltsDropped = true, not expected")
	}
	rec.Alt = CompactAlt(rec.Alt, masks.A)

	if err := UpdateRecord(rec, hdr, masks, &rev); err != nil {
		t.Fatalf("UpdateRecord: %v", err)
	}

	if len(rec.Alt) != 1 || rec.Alt[0] != "C" {
		t.Fatalf("Alt = %v, want [C]", rec.Alt)
	}

	af := rec.InfoField(vcf.IDAF)
	if af.Value.Len() != 1 || af.Value.Float[0] != 0.3 {
		t.Fatalf("AF = %v, want [0.3]", af.Value.Float)
	}

	ad := rec.GenotypeField(vcf.IDAD)
	if ad.Value.RowLen(0) != 2 {
		t.Fatalf("AD row len = %d, want 2", ad.Value.RowLen(0))
	}
	start, _ := ad.Value.Row(0)
	if ad.Value.Int32[start] != 5 || ad.Value.Int32[start+1] != 10 {
		t.Fatalf("AD row = %v, want [5 10]", ad.Value.Int32[start:start+2])
	}

	pl := rec.GenotypeField(vcf.IDPL)
	wantLen := gt.Size(2) // nAl now 2 (ref + 1 alt)
	if pl.Value.RowLen(0) != wantLen {
		t.Fatalf("PL row len = %d, want %d", pl.Value.RowLen(0), wantLen)
	}
	pStart, pEnd := pl.Value.Row(0)
	plRow := pl.Value.Int32[pStart:pEnd]
	// Original G-positions surviving the drop (0/0, 0/1, 1/1) were [30,0,40];
	// minimum is already 0, so renormalization is a no-op.
	if plRow[0] != 30 || plRow[1] != 0 || plRow[2] != 40 {
		t.Fatalf("PL row = %v, want [30 0 40]", plRow)
	}

	// GT resynthesis: argmin of the rewritten PL row is position 1 -> (0,1).
	gtF := rec.GenotypeField(vcf.IDGT)
	gStart, _ := gtF.Value.Row(0)
	if gtF.Value.Int32[gStart] != 0 || gtF.Value.Int32[gStart+1] != 1 {
		t.Fatalf("GT = %v, want [0 1]", gtF.Value.Int32[gStart:gStart+2])
	}
}

func TestRenormalizePLSubtractsMinimum(t *testing.T) {
	j := vcf.NewUniformJagged(vcf.KindInt32, 1, 3)
	copy(j.Int32, []int32{50, 20, 70})
	renormalizePL(j)
	if j.Int32[0] != 30 || j.Int32[1] != 0 || j.Int32[2] != 50 {
		t.Fatalf("renormalized row = %v, want [30 0 50]", j.Int32)
	}
}

func TestRenormalizePLSkipsMissing(t *testing.T) {
	j := vcf.NewUniformJagged(vcf.KindInt32, 1, 3)
	copy(j.Int32, []int32{int32(missingInt), 20, 70})
	renormalizePL(j)
	if j.Int32[0] != int32(missingInt) {
		t.Fatalf("missing value mutated: %v", j.Int32[0])
	}
	if j.Int32[1] != 0 || j.Int32[2] != 50 {
		t.Fatalf("renormalized row = %v, want [. 0 50]", j.Int32)
	}
}

func TestCompactValuePreservesWidth(t *testing.T) {
	m := bitset.New(3)
	m.Set(1)
	v := vcf.Value{Kind: vcf.KindInt8, Int8: []int8{1, 2, 3}}
	out := CompactValue(v, m)
	if out.Kind != vcf.KindInt8 {
		t.Fatalf("Kind = %v, want KindInt8", out.Kind)
	}
	if len(out.Int8) != 2 || out.Int8[0] != 1 || out.Int8[1] != 3 {
		t.Fatalf("Int8 = %v, want [1 3]", out.Int8)
	}
}

func TestCompactJaggedSizeLaw(t *testing.T) {
	j := vcf.NewUniformJagged(vcf.KindInt32, 2, 3)
	copy(j.Int32, []int32{1, 2, 3, 4, 5, 6})
	m := bitset.New(3)
	m.Set(0)
	out := CompactJagged(*j, m)
	if out.NSamples() != 2 {
		t.Fatalf("NSamples = %d, want 2", out.NSamples())
	}
	rowLen := 3 - mask.PopCount(m)
	for i := 0; i < out.NSamples(); i++ {
		if out.Delim[i] != i*rowLen {
			t.Errorf("Delim[%d] = %d, want %d", i, out.Delim[i], i*rowLen)
		}
	}
	if out.Int32[0] != 2 || out.Int32[1] != 3 {
		t.Fatalf("row 0 = %v, want [2 3]", out.Int32[0:2])
	}
}
