// decovar: a streaming rewriter for multi-allelic VCF/BCF records.
// Copyright (c) 2026 decovar contributors.
//
// Licensed under the GNU Affero General Public License v3; see LICENSE.

// Package rewrite implements the index-rewriting engine shared by the
// three transformers: the container rewriter (§4.3) and the field updater
// (§4.4), including PL re-normalization and GT resynthesis.
package rewrite

import (
	"fmt"

	"github.com/pkg/errors"
)

// Subsystem tags the part of the engine that raised an error, reported in
// every user-visible message alongside the record index (§7).
type Subsystem string

// The error taxonomy of §7.
const (
	SubsystemInputShape     Subsystem = "input-shape"
	SubsystemHeaderMismatch Subsystem = "header-mismatch"
	SubsystemInvariant      Subsystem = "invariant"
	SubsystemUnsupported    Subsystem = "unsupported"
)

// RecordError is a fatal, record-scoped error. RecordIndex is 0-based
// internally; Error() renders it 1-based for the user, per DESIGN.md's
// indexing decision.
type RecordError struct {
	RecordIndex int
	Field       string
	Subsystem   Subsystem
	Cause       error
}

func (e *RecordError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("[%s] record %d: %v", e.Subsystem, e.RecordIndex+1, e.Cause)
	}
	return fmt.Sprintf("[%s] record %d, field %s: %v", e.Subsystem, e.RecordIndex+1, e.Field, e.Cause)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *RecordError) Unwrap() error { return e.Cause }

func newRecordError(subsystem Subsystem, recordIndex int, field string, cause error) *RecordError {
	return &RecordError{RecordIndex: recordIndex, Field: field, Subsystem: subsystem, Cause: cause}
}

// InputShapeErrorf reports a record whose field has the wrong length or
// variant type, or a per-sample field that isn't fully materialized.
func InputShapeErrorf(recordIndex int, field, format string, args ...interface{}) error {
	return newRecordError(SubsystemInputShape, recordIndex, field, errors.Errorf(format, args...))
}

// HeaderMismatchErrorf reports a field id absent from the header.
func HeaderMismatchErrorf(recordIndex int, field, format string, args ...interface{}) error {
	return newRecordError(SubsystemHeaderMismatch, recordIndex, field, errors.Errorf(format, args...))
}

// UnsupportedErrorf reports an input shape this engine deliberately never
// handles (non-diploid likelihoods, single-dot R/A/G placeholders).
func UnsupportedErrorf(recordIndex int, field, format string, args ...interface{}) error {
	return newRecordError(SubsystemUnsupported, recordIndex, field, errors.Errorf(format, args...))
}

// Wrap attaches record/field/subsystem context to an arbitrary cause
// (typically bubbled up from vcf I/O) without re-stating it as one of the
// typed constructors above.
func Wrap(subsystem Subsystem, recordIndex int, field string, cause error) error {
	if cause == nil {
		return nil
	}
	return newRecordError(subsystem, recordIndex, field, errors.WithStack(cause))
}
