// decovar: a streaming rewriter for multi-allelic VCF/BCF records.
// Copyright (c) 2026 decovar contributors.
//
// Licensed under the GNU Affero General Public License v3; see LICENSE.

package vcf

// Kind tags which scalar family a Value or Jagged container holds. Modeled
// as a closed tagged sum (design notes, "Value variants"): the rewriter
// dispatches over Kind rather than attempting a generic container type.
type Kind uint8

// The scalar families a field value can hold.
const (
	KindInvalid Kind = iota
	KindInt8
	KindInt16
	KindInt32
	KindFloat
	KindString
	KindFlag
)

// Value is a flat, per-record container: either a Number=Fixed(0) flag, or
// a sequence of scalars of one Kind. INFO fields and the REF-anchored
// per-record parts of a record use Value; per-sample FORMAT data uses
// Jagged instead.
type Value struct {
	Kind   Kind
	Int8   []int8
	Int16  []int16
	Int32  []int32
	Float  []float64
	String []string
	Flag   bool
}

// Len returns the number of scalars held, or 0 for a Flag value (Flags are
// Number=0 and never participate in A/R/G rewriting).
func (v *Value) Len() int {
	switch v.Kind {
	case KindInt8:
		return len(v.Int8)
	case KindInt16:
		return len(v.Int16)
	case KindInt32:
		return len(v.Int32)
	case KindFloat:
		return len(v.Float)
	case KindString:
		return len(v.String)
	default:
		return 0
	}
}

// Jagged is a per-sample FORMAT container: a flat data buffer holding
// n_samples consecutive fixed-length rows, plus a delimiter array mapping
// sample index to the row's start offset. Delim always has length
// NSamples()+1, Delim[0] == 0, and Delim[last] == the buffer length — the
// "jagged-container size law" invariant.
type Jagged struct {
	Kind  Kind
	Int8  []int8
	Int16 []int16
	Int32 []int32
	Float []float64
	String []string
	Delim []int
}

// NSamples returns the number of per-sample rows.
func (j *Jagged) NSamples() int {
	if len(j.Delim) == 0 {
		return 0
	}
	return len(j.Delim) - 1
}

// RowLen returns the length of sample i's row.
func (j *Jagged) RowLen(i int) int {
	return j.Delim[i+1] - j.Delim[i]
}

// Row bounds for sample i as [start, end) offsets into the flat buffer.
func (j *Jagged) Row(i int) (start, end int) {
	return j.Delim[i], j.Delim[i+1]
}

// BufLen returns the total length of the flat data buffer, whichever Kind
// slice backs it.
func (j *Jagged) BufLen() int {
	switch j.Kind {
	case KindInt8:
		return len(j.Int8)
	case KindInt16:
		return len(j.Int16)
	case KindInt32:
		return len(j.Int32)
	case KindFloat:
		return len(j.Float)
	case KindString:
		return len(j.String)
	default:
		return 0
	}
}

// NewUniformJagged builds a Jagged container with nSamples rows of equal
// length perSample, ready to be filled in (used by the localiser when it
// materializes LAA/LAD/LPL from scratch rather than rewriting an existing
// field in place).
func NewUniformJagged(kind Kind, nSamples, perSample int) *Jagged {
	j := &Jagged{Kind: kind}
	total := nSamples * perSample
	switch kind {
	case KindInt8:
		j.Int8 = make([]int8, total)
	case KindInt16:
		j.Int16 = make([]int16, total)
	case KindInt32:
		j.Int32 = make([]int32, total)
	case KindFloat:
		j.Float = make([]float64, total)
	case KindString:
		j.String = make([]string, total)
	}
	j.Delim = make([]int, nSamples+1)
	for i := 0; i <= nSamples; i++ {
		j.Delim[i] = i * perSample
	}
	return j
}
