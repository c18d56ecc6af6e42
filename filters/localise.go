// decovar: a streaming rewriter for multi-allelic VCF/BCF records.
// Copyright (c) 2026 decovar contributors.
//
// Licensed under the GNU Affero General Public License v3; see LICENSE.

package filters

import (
	"math"
	"sort"

	"github.com/h-2/decovar/gt"
	"github.com/h-2/decovar/rewrite"
	"github.com/h-2/decovar/vcf"
)

// Localiser projects per-sample likelihoods onto a budget of L locally most
// relevant alternatives, emitting compact LAA/LAD/LPL fields (§4.7). L <= 0
// disables the stage.
type Localiser struct {
	L                int
	KeepGlobalFields bool
	TransformAll     bool
}

// Header descriptors for the fields this stage adds. Per-sample length
// varies with the record's effective local-allele count, so Number is left
// as "." (CategoryOther) — the rewrite engine never touches these fields,
// so an imprecise Number is safe.
var (
	fieldInfoLAA = &vcf.FieldInfo{ID: vcf.IDLAA, Number: vcf.NumberDot, Type: vcf.Integer,
		Description: "Local alternate allele indices, relative to the original ALT list"}
	fieldInfoLAD = &vcf.FieldInfo{ID: vcf.IDLAD, Number: vcf.NumberDot, Type: vcf.Integer,
		Description: "Local allelic depths, reference followed by LAA-indexed alternatives"}
	fieldInfoLPL = &vcf.FieldInfo{ID: vcf.IDLPL, Number: vcf.NumberDot, Type: vcf.Integer,
		Description: "Local phred-scaled genotype likelihoods over reference plus LAA alternatives"}
)

// RegisterHeader adds the LAA, LAD and LPL FORMAT declarations to hdr
// (LAD is declared even if no record carries AD). Called once before any
// record is written, per §4.7.
func (f Localiser) RegisterHeader(hdr *vcf.Header) {
	if f.L <= 0 {
		return
	}
	hdr.AddFormat(fieldInfoLAA)
	hdr.AddFormat(fieldInfoLAD)
	hdr.AddFormat(fieldInfoLPL)
}

// Apply rewrites rec in place, or is a no-op if the stage isn't triggered
// for this record (n_alt <= L and TransformAll is false).
func (f Localiser) Apply(rec *vcf.Record, rev *gt.ReverseCache) error {
	if f.L <= 0 {
		return nil
	}
	nAlt := rec.NAlt()
	if !(nAlt > f.L || (f.TransformAll && nAlt <= f.L)) {
		return nil
	}

	plField := rec.GenotypeField(vcf.IDPL)
	if plField == nil {
		return rewrite.UnsupportedErrorf(rec.Index, "PL", "local-allele projection requires a PL FORMAT field")
	}
	adField := rec.GenotypeField(vcf.IDAD)

	nAl := rec.NAl()
	nSamples := rec.NSamples()
	wantG := gt.Size(nAl)
	for i := 0; i < nSamples; i++ {
		if plField.Value.RowLen(i) != wantG {
			return rewrite.InputShapeErrorf(rec.Index, "PL", "sample %d PL row has %d values, expected %d", i, plField.Value.RowLen(i), wantG)
		}
	}

	effectiveL := f.L
	if effectiveL > nAlt {
		effectiveL = nAlt
	}

	origRev := rev.Get(nAl)
	localRev := gt.BuildReverse(effectiveL + 1)

	laa := vcf.NewUniformJagged(vcf.KindInt32, nSamples, effectiveL)
	var lad *vcf.Jagged
	if adField != nil {
		lad = vcf.NewUniformJagged(adField.Value.Kind, nSamples, effectiveL+1)
	}
	lpl := vcf.NewUniformJagged(plField.Value.Kind, nSamples, gt.Size(effectiveL+1))

	for s := 0; s < nSamples; s++ {
		chosen := rankAlternatives(plField.Value, s, origRev, nAlt, effectiveL)

		laaStart, _ := laa.Row(s)
		for k, idx := range chosen {
			laa.Int32[laaStart+k] = int32(idx)
		}

		if lad != nil {
			ladStart, _ := lad.Row(s)
			adStart, _ := adField.Value.Row(s)
			setJaggedInt(lad, ladStart, getJaggedInt(&adField.Value, adStart))
			for k, idx := range chosen {
				setJaggedInt(lad, ladStart+1+k, getJaggedInt(&adField.Value, adStart+idx))
			}
		}

		plStart, _ := plField.Value.Row(s)
		lplStart, _ := lpl.Row(s)
		for pos, pair := range localRev {
			origA, origB := 0, 0
			if pair.A > 0 {
				origA = chosen[pair.A-1]
			}
			if pair.B > 0 {
				origB = chosen[pair.B-1]
			}
			origPos := gt.Index(origA, origB)
			setJaggedInt(lpl, lplStart+pos, getJaggedInt(&plField.Value, plStart+origPos))
		}
	}

	rec.DeleteGenotypeField(vcf.IDLAA)
	rec.DeleteGenotypeField(vcf.IDLAD)
	rec.DeleteGenotypeField(vcf.IDLPL)
	rec.Genotypes = append(rec.Genotypes, vcf.GenotypeField{ID: vcf.IDLAA, Value: *laa})
	if lad != nil {
		rec.Genotypes = append(rec.Genotypes, vcf.GenotypeField{ID: vcf.IDLAD, Value: *lad})
	}
	rec.Genotypes = append(rec.Genotypes, vcf.GenotypeField{ID: vcf.IDLPL, Value: *lpl})

	if !f.KeepGlobalFields {
		rec.DeleteGenotypeField(vcf.IDAD)
		rec.DeleteGenotypeField(vcf.IDPL)
	}
	return nil
}

// rankAlternatives implements §4.7 step 2-3: score every alternative by
// the sum of 10^(-PL/10) over every genotype containing it (the homozygous
// term is counted twice, reproduced as-is per the open question in §9),
// take the top L by score (ties broken toward the smaller original index),
// and restore ascending order.
func rankAlternatives(pl vcf.Jagged, sample int, origRev []gt.Pair, nAlt, l int) []int {
	scores := make([]float64, nAlt+1)
	start, _ := pl.Row(sample)
	for pos, pair := range origRev {
		v := getJaggedInt(&pl, start+pos)
		if v == missingIntSentinel {
			continue
		}
		p := math.Pow(10, -float64(v)/10)
		scores[pair.A] += p
		scores[pair.B] += p
	}

	type candidate struct {
		idx   int
		score float64
	}
	cands := make([]candidate, nAlt)
	for i := 1; i <= nAlt; i++ {
		cands[i-1] = candidate{idx: i, score: scores[i]}
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		return cands[i].idx < cands[j].idx
	})

	chosen := make([]int, l)
	for i := 0; i < l; i++ {
		chosen[i] = cands[i].idx
	}
	sort.Ints(chosen)
	return chosen
}

const missingIntSentinel = -2147483648

func getJaggedInt(j *vcf.Jagged, flatIndex int) int64 {
	switch j.Kind {
	case vcf.KindInt8:
		return int64(j.Int8[flatIndex])
	case vcf.KindInt16:
		return int64(j.Int16[flatIndex])
	case vcf.KindInt32:
		return int64(j.Int32[flatIndex])
	default:
		return 0
	}
}

func setJaggedInt(j *vcf.Jagged, flatIndex int, v int64) {
	switch j.Kind {
	case vcf.KindInt8:
		j.Int8[flatIndex] = int8(v)
	case vcf.KindInt16:
		j.Int16[flatIndex] = int16(v)
	case vcf.KindInt32:
		j.Int32[flatIndex] = int32(v)
	}
}
