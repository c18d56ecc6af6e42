// decovar: a streaming rewriter for multi-allelic VCF/BCF records.
// Copyright (c) 2026 decovar contributors.
//
// Licensed under the GNU Affero General Public License v3; see LICENSE.

package filters

import (
	"github.com/sirupsen/logrus"

	"github.com/h-2/decovar/gt"
	"github.com/h-2/decovar/vcf"
)

// Config collects the core's user-facing knobs (§6), threaded through as a
// plain record rather than any global or singleton (§9, "global
// singletons: none").
type Config struct {
	RareAFThresh     float64
	SplitByLength    int
	LocalAlleles     int
	KeepGlobalFields bool
	TransformAll     bool
}

// Pipeline is the driver of §4.8: it composes RareAllele, Split and
// Localiser as a lazy fan-out over the record stream and owns the one
// scratch structure shared across stages, the reverse-pair cache.
type Pipeline struct {
	rare      RareAllele
	split     Split
	localiser Localiser
	rev       gt.ReverseCache
	log       logrus.FieldLogger

	dropped int
	emitted int
}

// NewPipeline builds a Pipeline from cfg. log receives one entry per
// dropped record (rare-allele short-circuit); callers wanting those
// visible should raise the underlying *logrus.Logger's level to Info
// before constructing the Pipeline (§7: a normal outcome, not a warning).
func NewPipeline(cfg Config, log logrus.FieldLogger) *Pipeline {
	return &Pipeline{
		rare:      RareAllele{Threshold: cfg.RareAFThresh},
		split:     Split{Cutoff: cfg.SplitByLength},
		localiser: Localiser{L: cfg.LocalAlleles, KeepGlobalFields: cfg.KeepGlobalFields, TransformAll: cfg.TransformAll},
		log:       log,
	}
}

// RegisterHeader must be called once, before the first WriteHeader, so
// LAA/LAD/LPL are declared in the output header regardless of which record
// first triggers localisation.
func (p *Pipeline) RegisterHeader(hdr *vcf.Header) {
	p.localiser.RegisterHeader(hdr)
}

// Process runs one input record through S0 (rare-allele) -> S1 (split) ->
// S2 (localise), appending 0, 1, or 2 output records to out (reusing its
// backing array across calls, per the scratch-ownership design). It
// returns the (possibly grown) out slice.
func (p *Pipeline) Process(rec *vcf.Record, hdr *vcf.Header, out []*vcf.Record) ([]*vcf.Record, error) {
	out = out[:0]

	rewritten, err := p.rare.Apply(rec, hdr, &p.rev)
	if err != nil {
		return out, err
	}
	if rewritten == nil {
		p.dropped++
		p.log.WithField("record", rec.Index+1).Info("record dropped: all alternatives below rare-allele threshold")
		return out, nil
	}

	siblings, err := p.split.Apply(rewritten, hdr, &p.rev)
	if err != nil {
		return out, err
	}

	for _, sib := range siblings {
		if err := p.localiser.Apply(sib, &p.rev); err != nil {
			return out, err
		}
		out = append(out, sib)
		p.emitted++
	}
	return out, nil
}

// Stats reports how many input records were dropped (rare-allele
// short-circuit) and how many output records were emitted so far, for the
// --dry-run report.
func (p *Pipeline) Stats() (dropped, emitted int) {
	return p.dropped, p.emitted
}
