// decovar: a streaming rewriter for multi-allelic VCF/BCF records.
// Copyright (c) 2026 decovar contributors.
//
// Licensed under the GNU Affero General Public License v3; see LICENSE.

package vcf

import "github.com/h-2/decovar/utils"

// InfoField is one (id, value) entry of a record's INFO column.
type InfoField struct {
	ID    utils.Symbol
	Value Value
}

// GenotypeField is one (id, value) entry of a record's FORMAT columns,
// carrying one jagged per-sample container.
type GenotypeField struct {
	ID    utils.Symbol
	Value Jagged
}

// Record is a single variant-call row. Index is assigned by the reader
// (0-based) and threaded through every error message as a 1-based,
// user-facing record number (see DESIGN.md).
type Record struct {
	Index int

	Chrom string
	Pos   int
	ID    string // "." if missing
	Ref   string
	Alt   []string // n_alt = len(Alt)

	Qual   string   // raw pass-through, "." if missing
	Filter []string // raw pass-through, nil/["."] if missing

	Info      []InfoField
	Genotypes []GenotypeField
}

// NAlt returns the number of alternative alleles.
func (r *Record) NAlt() int { return len(r.Alt) }

// NAl returns the number of alleles including the reference.
func (r *Record) NAl() int { return len(r.Alt) + 1 }

// InfoField returns a pointer to the INFO entry for id, or nil.
func (r *Record) InfoField(id utils.Symbol) *InfoField {
	for i := range r.Info {
		if r.Info[i].ID == id {
			return &r.Info[i]
		}
	}
	return nil
}

// GenotypeField returns a pointer to the FORMAT entry for id, or nil.
func (r *Record) GenotypeField(id utils.Symbol) *GenotypeField {
	for i := range r.Genotypes {
		if r.Genotypes[i].ID == id {
			return &r.Genotypes[i]
		}
	}
	return nil
}

// DeleteGenotypeField removes the FORMAT entry for id, if present.
func (r *Record) DeleteGenotypeField(id utils.Symbol) {
	for i := range r.Genotypes {
		if r.Genotypes[i].ID == id {
			r.Genotypes = append(r.Genotypes[:i], r.Genotypes[i+1:]...)
			return
		}
	}
}

// NSamples returns the sample count, taken from the first FORMAT field
// present (all FORMAT fields on a well-formed record share the same sample
// count).
func (r *Record) NSamples() int {
	if len(r.Genotypes) == 0 {
		return 0
	}
	return r.Genotypes[0].Value.NSamples()
}

// Clone returns a deep-enough copy of r suitable for becoming an
// independent output record (used by the length-splitter, which produces
// two sibling records from one input). Info/Genotypes slices and their
// backing Value/Jagged arrays are all copied since each sibling's
// rewrite mutates them independently.
func (r *Record) Clone() *Record {
	out := &Record{
		Index: r.Index,
		Chrom: r.Chrom,
		Pos:   r.Pos,
		ID:    r.ID,
		Ref:   r.Ref,
		Qual:  r.Qual,
	}
	out.Alt = append([]string(nil), r.Alt...)
	out.Filter = append([]string(nil), r.Filter...)
	out.Info = make([]InfoField, len(r.Info))
	for i, f := range r.Info {
		out.Info[i] = InfoField{ID: f.ID, Value: cloneValue(f.Value)}
	}
	out.Genotypes = make([]GenotypeField, len(r.Genotypes))
	for i, f := range r.Genotypes {
		out.Genotypes[i] = GenotypeField{ID: f.ID, Value: cloneJagged(f.Value)}
	}
	return out
}

func cloneValue(v Value) Value {
	return Value{
		Kind:   v.Kind,
		Int8:   append([]int8(nil), v.Int8...),
		Int16:  append([]int16(nil), v.Int16...),
		Int32:  append([]int32(nil), v.Int32...),
		Float:  append([]float64(nil), v.Float...),
		String: append([]string(nil), v.String...),
		Flag:   v.Flag,
	}
}

func cloneJagged(j Jagged) Jagged {
	return Jagged{
		Kind:   j.Kind,
		Int8:   append([]int8(nil), j.Int8...),
		Int16:  append([]int16(nil), j.Int16...),
		Int32:  append([]int32(nil), j.Int32...),
		Float:  append([]float64(nil), j.Float...),
		String: append([]string(nil), j.String...),
		Delim:  append([]int(nil), j.Delim...),
	}
}
