// decovar: a streaming rewriter for multi-allelic VCF/BCF records.
// Copyright (c) 2026 decovar contributors.
//
// Licensed under the GNU Affero General Public License v3; see LICENSE.

package rewrite

import (
	"errors"
	"strings"
	"testing"
)

func TestRecordErrorRendersOneBased(t *testing.T) {
	err := InputShapeErrorf(0, "AF", "wrong length %d", 3)
	msg := err.Error()
	if !strings.Contains(msg, "record 1") {
		t.Errorf("message = %q, want it to render 0-based index as record 1", msg)
	}
	if !strings.Contains(msg, "field AF") {
		t.Errorf("message = %q, missing field name", msg)
	}
	if !strings.Contains(msg, "input-shape") {
		t.Errorf("message = %q, missing subsystem tag", msg)
	}
}

func TestRecordErrorWithoutFieldOmitsFieldClause(t *testing.T) {
	err := HeaderMismatchErrorf(4, "", "field %s absent", "XYZ")
	msg := err.Error()
	if strings.Contains(msg, "field ,") || strings.Contains(msg, "field :") {
		t.Errorf("message = %q, should not render an empty field clause", msg)
	}
	if !strings.Contains(msg, "record 5") {
		t.Errorf("message = %q, want 1-based record 5", msg)
	}
}

func TestWrapNilIsNil(t *testing.T) {
	if Wrap(SubsystemInvariant, 0, "X", nil) != nil {
		t.Error("Wrap(..., nil) != nil")
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(SubsystemInvariant, 1, "Y", cause)
	var re *RecordError
	if !errors.As(err, &re) {
		t.Fatal("errors.As failed to find *RecordError")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false")
	}
}
