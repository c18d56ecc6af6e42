// decovar: a streaming rewriter for multi-allelic VCF/BCF records.
// Copyright (c) 2026 decovar contributors.
//
// Licensed under the GNU Affero General Public License v3; see LICENSE.

package rewrite

import (
	"github.com/h-2/decovar/gt"
	"github.com/h-2/decovar/mask"
	"github.com/h-2/decovar/vcf"
)

// UpdateRecord rewrites every INFO and FORMAT field of rec in place against
// masks, then re-normalizes PL and resynthesizes GT if a PL field is
// present. rev is the caller-owned reverse-pair cache (one per pipeline,
// shared across records, §4.8) used to recover the allele pair that
// minimizes the rewritten PL vector.
//
// Fields absent from hdr, or whose Number isn't A/R/G, pass through
// untouched: a Number=1 field like a per-record read depth doesn't depend
// on allele count, and a Number=. field's multiplicity is by definition not
// known well enough to rewrite safely.
func UpdateRecord(rec *vcf.Record, hdr *vcf.Header, masks mask.Triple, rev *gt.ReverseCache) error {
	if err := updateInfoFields(rec, hdr, masks); err != nil {
		return err
	}
	return updateGenotypeFields(rec, hdr, masks, rev)
}

func updateInfoFields(rec *vcf.Record, hdr *vcf.Header, masks mask.Triple) error {
	for i := range rec.Info {
		f := &rec.Info[i]
		fi := hdr.InfoByID(f.ID)
		if fi == nil {
			continue
		}
		switch vcf.CategoryOf(fi.Number) {
		case vcf.CategoryA:
			if f.Value.Len() != masks.NAlt {
				return InputShapeErrorf(rec.Index, string(*f.ID), "Number=A field has %d values, expected %d", f.Value.Len(), masks.NAlt)
			}
			f.Value = CompactValue(f.Value, masks.A)
		case vcf.CategoryR:
			if f.Value.Len() != masks.NAl {
				return InputShapeErrorf(rec.Index, string(*f.ID), "Number=R field has %d values, expected %d", f.Value.Len(), masks.NAl)
			}
			f.Value = CompactValue(f.Value, masks.R)
		case vcf.CategoryG:
			want := gt.Size(masks.NAl)
			if f.Value.Len() != want {
				return InputShapeErrorf(rec.Index, string(*f.ID), "Number=G field has %d values, expected %d", f.Value.Len(), want)
			}
			f.Value = CompactValue(f.Value, masks.G)
		}
	}
	return nil
}

func updateGenotypeFields(rec *vcf.Record, hdr *vcf.Header, masks mask.Triple, rev *gt.ReverseCache) error {
	newNAl := masks.NAl - mask.PopCount(masks.R)

	var plField *vcf.GenotypeField
	for i := range rec.Genotypes {
		f := &rec.Genotypes[i]
		if f.ID == vcf.IDGT {
			continue
		}
		fi := hdr.FormatByID(f.ID)
		if fi == nil {
			continue
		}
		switch vcf.CategoryOf(fi.Number) {
		case vcf.CategoryA:
			if err := checkUniformRowLen(rec, f, masks.NAlt); err != nil {
				return err
			}
			f.Value = CompactJagged(f.Value, masks.A)
		case vcf.CategoryR:
			if err := checkUniformRowLen(rec, f, masks.NAl); err != nil {
				return err
			}
			f.Value = CompactJagged(f.Value, masks.R)
		case vcf.CategoryG:
			want := gt.Size(masks.NAl)
			if err := checkUniformRowLen(rec, f, want); err != nil {
				return err
			}
			f.Value = CompactJagged(f.Value, masks.G)
			if f.ID == vcf.IDPL {
				renormalizePL(&f.Value)
				plField = f
			}
		}
	}

	if plField != nil && rec.GenotypeField(vcf.IDGT) != nil {
		resynthesizeGT(rec, plField, rev.Get(newNAl))
	}
	return nil
}

func checkUniformRowLen(rec *vcf.Record, f *vcf.GenotypeField, want int) error {
	for i := 0; i < f.Value.NSamples(); i++ {
		if f.Value.RowLen(i) != want {
			return InputShapeErrorf(rec.Index, string(*f.ID), "sample %d row has %d values, expected %d", i, f.Value.RowLen(i), want)
		}
	}
	return nil
}

// renormalizePL subtracts each sample's minimum phred-scaled likelihood
// from every value in that sample's row, so the most likely genotype is
// always reported at PL=0 after alleles have been dropped out from under
// it. Missing values (missingInt) are excluded from the minimum and left
// untouched.
func renormalizePL(j *vcf.Jagged) {
	nSamples := j.NSamples()
	for i := 0; i < nSamples; i++ {
		start, end := j.Row(i)
		switch j.Kind {
		case vcf.KindInt8:
			renormalizeRow(j.Int8[start:end])
		case vcf.KindInt16:
			renormalizeRow(j.Int16[start:end])
		case vcf.KindInt32:
			renormalizeRow(j.Int32[start:end])
		}
	}
}

// integral is the set of scalar kinds PL is ever stored at.
type integral interface{ ~int8 | ~int16 | ~int32 }

func renormalizeRow[T integral](row []T) {
	min := T(0)
	found := false
	for _, v := range row {
		if int64(v) == missingInt {
			continue
		}
		if !found || v < min {
			min = v
			found = true
		}
	}
	if !found || min == 0 {
		return
	}
	for i, v := range row {
		if int64(v) == missingInt {
			continue
		}
		row[i] = v - min
	}
}

const missingInt = -2147483648

// resynthesizeGT recomputes each sample's GT call from the position of the
// minimum value in its (already re-normalized) PL row, breaking ties by
// preferring the smallest position in rev, i.e. the pair that comes first
// when ordered by b, then a. rev is the reverse-pair table for the record's new
// (post-drop) allele count.
func resynthesizeGT(rec *vcf.Record, plField *vcf.GenotypeField, rev []gt.Pair) {
	nSamples := plField.Value.NSamples()
	newGT := vcf.NewUniformJagged(vcf.KindInt32, nSamples, 2)
	for i := 0; i < nSamples; i++ {
		pos := argminRow(plField.Value, i)
		if pos < 0 || pos >= len(rev) {
			newGT.Int32[2*i] = -1
			newGT.Int32[2*i+1] = -1
			continue
		}
		pair := rev[pos]
		newGT.Int32[2*i] = int32(pair.A)
		newGT.Int32[2*i+1] = int32(pair.B)
	}

	rec.GenotypeField(vcf.IDGT).Value = *newGT
}

func argminRow(j vcf.Jagged, sample int) int {
	start, end := j.Row(sample)
	best, bestPos := int64(0), -1
	for k := start; k < end; k++ {
		var v int64
		switch j.Kind {
		case vcf.KindInt8:
			v = int64(j.Int8[k])
		case vcf.KindInt16:
			v = int64(j.Int16[k])
		case vcf.KindInt32:
			v = int64(j.Int32[k])
		default:
			return -1
		}
		if v == missingInt {
			continue
		}
		if bestPos == -1 || v < best {
			best = v
			bestPos = k - start
		}
	}
	return bestPos
}
