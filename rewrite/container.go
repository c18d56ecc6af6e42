// decovar: a streaming rewriter for multi-allelic VCF/BCF records.
// Copyright (c) 2026 decovar contributors.
//
// Licensed under the GNU Affero General Public License v3; see LICENSE.

package rewrite

import (
	"github.com/willf/bitset"

	"github.com/h-2/decovar/vcf"
)

// compactSlice returns the elements of s whose index is NOT set in mask,
// in order. It is the one generic primitive the container rewriter builds
// every Kind-specific compaction on top of.
func compactSlice[T any](s []T, mask *bitset.BitSet) []T {
	out := make([]T, 0, len(s))
	for i, v := range s {
		if !mask.Test(uint(i)) {
			out = append(out, v)
		}
	}
	return out
}

// CompactAlt drops the ALT alleles marked in mA, the one per-record field
// that lives outside the Info/Genotypes containers.
func CompactAlt(alt []string, mA *bitset.BitSet) []string {
	return compactSlice(alt, mA)
}

// CompactValue returns a copy of v with every scalar at a position set in
// mask removed, preserving Kind (and therefore integer width). Flag values
// and the zero Value pass through unchanged since Number=0 fields never
// participate in A/R/G rewriting.
func CompactValue(v vcf.Value, mask *bitset.BitSet) vcf.Value {
	switch v.Kind {
	case vcf.KindInt8:
		return vcf.Value{Kind: vcf.KindInt8, Int8: compactSlice(v.Int8, mask)}
	case vcf.KindInt16:
		return vcf.Value{Kind: vcf.KindInt16, Int16: compactSlice(v.Int16, mask)}
	case vcf.KindInt32:
		return vcf.Value{Kind: vcf.KindInt32, Int32: compactSlice(v.Int32, mask)}
	case vcf.KindFloat:
		return vcf.Value{Kind: vcf.KindFloat, Float: compactSlice(v.Float, mask)}
	case vcf.KindString:
		return vcf.Value{Kind: vcf.KindString, String: compactSlice(v.String, mask)}
	default:
		return v
	}
}

// CompactJagged returns a copy of j in which every row has had the
// positions set in mask removed, recomputing Delim so the jagged-container
// size law (delim[i] == i*(rowLen-popcount(mask))) continues to hold. Every
// row of j must have the same length as mask's bit length; callers check
// this via the field updater's shape validation before calling in.
func CompactJagged(j vcf.Jagged, mask *bitset.BitSet) vcf.Jagged {
	nSamples := j.NSamples()
	newDelim := make([]int, nSamples+1)

	switch j.Kind {
	case vcf.KindInt8:
		flat := make([]int8, 0, len(j.Int8))
		for i := 0; i < nSamples; i++ {
			newDelim[i] = len(flat)
			start, end := j.Row(i)
			flat = append(flat, compactSlice(j.Int8[start:end], mask)...)
		}
		newDelim[nSamples] = len(flat)
		return vcf.Jagged{Kind: vcf.KindInt8, Int8: flat, Delim: newDelim}
	case vcf.KindInt16:
		flat := make([]int16, 0, len(j.Int16))
		for i := 0; i < nSamples; i++ {
			newDelim[i] = len(flat)
			start, end := j.Row(i)
			flat = append(flat, compactSlice(j.Int16[start:end], mask)...)
		}
		newDelim[nSamples] = len(flat)
		return vcf.Jagged{Kind: vcf.KindInt16, Int16: flat, Delim: newDelim}
	case vcf.KindInt32:
		flat := make([]int32, 0, len(j.Int32))
		for i := 0; i < nSamples; i++ {
			newDelim[i] = len(flat)
			start, end := j.Row(i)
			flat = append(flat, compactSlice(j.Int32[start:end], mask)...)
		}
		newDelim[nSamples] = len(flat)
		return vcf.Jagged{Kind: vcf.KindInt32, Int32: flat, Delim: newDelim}
	case vcf.KindFloat:
		flat := make([]float64, 0, len(j.Float))
		for i := 0; i < nSamples; i++ {
			newDelim[i] = len(flat)
			start, end := j.Row(i)
			flat = append(flat, compactSlice(j.Float[start:end], mask)...)
		}
		newDelim[nSamples] = len(flat)
		return vcf.Jagged{Kind: vcf.KindFloat, Float: flat, Delim: newDelim}
	case vcf.KindString:
		flat := make([]string, 0, len(j.String))
		for i := 0; i < nSamples; i++ {
			newDelim[i] = len(flat)
			start, end := j.Row(i)
			flat = append(flat, compactSlice(j.String[start:end], mask)...)
		}
		newDelim[nSamples] = len(flat)
		return vcf.Jagged{Kind: vcf.KindString, String: flat, Delim: newDelim}
	default:
		return j
	}
}
