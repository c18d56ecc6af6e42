// decovar: a streaming rewriter for multi-allelic VCF/BCF records.
// Copyright (c) 2026 decovar contributors.
//
// Licensed under the GNU Affero General Public License v3; see LICENSE.

// Package filters implements the three record transformers driven by the
// rewrite engine: rare-allele removal, length-based splitting, and
// local-allele projection, plus the pipeline that composes them.
package filters

import (
	"github.com/willf/bitset"

	"github.com/h-2/decovar/gt"
	"github.com/h-2/decovar/mask"
	"github.com/h-2/decovar/rewrite"
	"github.com/h-2/decovar/vcf"
)

// RareAllele drops alternative alleles whose AF falls below Threshold and
// rewrites the record accordingly (§4.5). A zero Threshold is a
// pass-through.
type RareAllele struct {
	Threshold float64
}

// Apply returns the rewritten record, or (nil, nil) if every alternative
// was dropped and the record should be skipped entirely.
func (f RareAllele) Apply(rec *vcf.Record, hdr *vcf.Header, rev *gt.ReverseCache) (*vcf.Record, error) {
	if rec.NAlt() <= 1 {
		// P9: single-alt records never consult AF.
		return rec, nil
	}
	if f.Threshold <= 0 {
		return rec, nil
	}

	afField := rec.InfoField(vcf.IDAF)
	if afField == nil {
		return nil, rewrite.UnsupportedErrorf(rec.Index, "AF", "rare-allele removal requires an AF info field; AC/AN fallback is not supported")
	}
	if afField.Value.Kind != vcf.KindFloat {
		return nil, rewrite.InputShapeErrorf(rec.Index, "AF", "AF must be a float vector")
	}
	if afField.Value.Len() != rec.NAlt() {
		return nil, rewrite.InputShapeErrorf(rec.Index, "AF", "AF has %d values, expected %d (n_alt)", afField.Value.Len(), rec.NAlt())
	}

	drop := bitset.New(uint(rec.NAlt()))
	for i, af := range afField.Value.Float {
		if af < f.Threshold {
			drop.Set(uint(i))
		}
	}

	masks := mask.Build(rec.NAlt(), drop, rev)
	if masks.AllAltsDropped() {
		return nil, nil
	}
	rec.Alt = rewrite.CompactAlt(rec.Alt, masks.A)
	if err := rewrite.UpdateRecord(rec, hdr, masks, rev); err != nil {
		return nil, err
	}
	return rec, nil
}
