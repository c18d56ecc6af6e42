// decovar: a streaming rewriter for multi-allelic VCF/BCF records.
// Copyright (c) 2026 decovar contributors.
//
// Licensed under the GNU Affero General Public License v3; see LICENSE.

package filters

import (
	"github.com/willf/bitset"

	"github.com/h-2/decovar/gt"
	"github.com/h-2/decovar/mask"
	"github.com/h-2/decovar/rewrite"
	"github.com/h-2/decovar/vcf"
)

// Split partitions a multi-allelic record into a "short" and a "long" half
// by alternative-allele length (§4.6). A zero Cutoff is a pass-through.
type Split struct {
	Cutoff int // L_split
}

// Apply returns one record (pass-through, including single-alt and
// all-short/all-long records) or two records — short half first, long half
// second, per the stable-ordering requirement.
func (f Split) Apply(rec *vcf.Record, hdr *vcf.Header, rev *gt.ReverseCache) ([]*vcf.Record, error) {
	if f.Cutoff <= 0 || rec.NAlt() <= 1 {
		return []*vcf.Record{rec}, nil
	}

	short := make([]int, 0, rec.NAlt())
	long := make([]int, 0, rec.NAlt())
	for i, alt := range rec.Alt {
		if len(alt) <= f.Cutoff {
			short = append(short, i)
		} else {
			long = append(long, i)
		}
	}
	if len(short) == 0 || len(long) == 0 {
		return []*vcf.Record{rec}, nil
	}

	shortRec, err := splitHalf(rec, hdr, rev, short, "_split1")
	if err != nil {
		return nil, err
	}
	longRec, err := splitHalf(rec, hdr, rev, long, "_split2")
	if err != nil {
		return nil, err
	}
	return []*vcf.Record{shortRec, longRec}, nil
}

// splitHalf builds one sibling record keeping only the alternatives at
// keepIdx (original 0-based ALT indices), with its own independently
// computed mask and §4.4 rewrite.
func splitHalf(rec *vcf.Record, hdr *vcf.Header, rev *gt.ReverseCache, keepIdx []int, idSuffix string) (*vcf.Record, error) {
	clone := rec.Clone()
	if clone.ID != "" && clone.ID != "." {
		clone.ID += idSuffix
	}

	keep := bitset.New(uint(rec.NAlt()))
	for _, i := range keepIdx {
		keep.Set(uint(i))
	}
	drop := bitset.New(uint(rec.NAlt()))
	for i := 0; i < rec.NAlt(); i++ {
		if !keep.Test(uint(i)) {
			drop.Set(uint(i))
		}
	}

	masks := mask.Build(rec.NAlt(), drop, rev)
	clone.Alt = rewrite.CompactAlt(clone.Alt, masks.A)
	if err := rewrite.UpdateRecord(clone, hdr, masks, rev); err != nil {
		return nil, err
	}
	return clone, nil
}
