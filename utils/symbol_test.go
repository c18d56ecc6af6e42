// decovar: a streaming rewriter for multi-allelic VCF/BCF records.
// Copyright (c) 2026 decovar contributors.
//
// Licensed under the GNU Affero General Public License v3; see LICENSE.

package utils

import "testing"

func TestInternReturnsSamePointerForEqualStrings(t *testing.T) {
	a := Intern("AF")
	b := Intern("AF")
	if a != b {
		t.Errorf("Intern(\"AF\") returned distinct pointers: %p != %p", a, b)
	}
	if *a != "AF" {
		t.Errorf("*Intern(\"AF\") = %q, want \"AF\"", *a)
	}
}

func TestInternDistinctStringsGetDistinctPointers(t *testing.T) {
	a := Intern("AC")
	b := Intern("AN")
	if a == b {
		t.Error("Intern(\"AC\") == Intern(\"AN\"), want distinct pointers")
	}
}

func TestSmallMapGetSetIndex(t *testing.T) {
	var m SmallMap
	k1, k2 := Intern("k1"), Intern("k2")
	m.Set(k1, 1)
	m.Set(k2, 2)

	v, ok := m.Get(k1)
	if !ok || v != 1 {
		t.Fatalf("Get(k1) = (%v, %v), want (1, true)", v, ok)
	}
	if m.Index(k2) != 1 {
		t.Fatalf("Index(k2) = %d, want 1", m.Index(k2))
	}

	m.Set(k1, 10)
	v, _ = m.Get(k1)
	if v != 10 || len(m) != 2 {
		t.Fatalf("Set on existing key should replace in place: v=%v len=%d", v, len(m))
	}

	if m.Index(Intern("missing")) != -1 {
		t.Fatal("Index for an absent key must return -1")
	}
}
