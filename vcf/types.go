// decovar: a streaming rewriter for multi-allelic VCF/BCF records.
// Copyright (c) 2026 decovar contributors.
//
// Licensed under the GNU Affero General Public License v3; see LICENSE.

package vcf

import (
	"github.com/h-2/decovar/utils"
)

// The supported VCF file format version.
const (
	FileFormatVersion     = "VCFv4.3"
	FileFormatVersionLine = "##fileformat=VCFv4.3"
)

// Type is an enumeration of the scalar VCF field types.
type Type uint

// The scalar VCF field types.
const (
	InvalidType Type = iota
	Integer
	Float
	Flag
	String
)

// Width8, Width16 and Width32 name the integer widths in bits an
// Integer-typed field can be stored at. VCF itself doesn't
// distinguish integer widths in the header (everything is "Integer"), but
// the in-memory container picks the narrowest width that holds the parsed
// values so that mixed-width records (INFO AC as int8, FORMAT AD as int32)
// don't all pay for int32 storage; rewriting must preserve whichever width
// a field happens to be stored at (§ container rewriter, "width
// preservation").
const (
	Width8  = 8
	Width16 = 16
	Width32 = 32
)

// Constants for FORMAT/INFO Number entries, following the VCF header
// convention of encoding the A/R/G/"." multiplicity categories as negative
// sentinels below any valid fixed count.
const (
	NumberA int32 = -1 - iota
	NumberR
	NumberG
	NumberDot
	invalidNumber
)

// Category classifies a Number value into the five multiplicity classes
// the rewriter dispatches on.
type Category uint8

// The five Number categories.
const (
	CategoryFixed Category = iota
	CategoryA
	CategoryR
	CategoryG
	CategoryOther
)

// CategoryOf classifies a raw header Number value.
func CategoryOf(number int32) Category {
	switch number {
	case NumberA:
		return CategoryA
	case NumberR:
		return CategoryR
	case NumberG:
		return CategoryG
	case NumberDot:
		return CategoryOther
	default:
		if number >= 0 {
			return CategoryFixed
		}
		return CategoryOther
	}
}

type (
	// FieldInfo is the header declaration of one INFO or FORMAT field.
	FieldInfo struct {
		ID          utils.Symbol
		Description string
		Number      int32 // NumberA/R/G/Dot, or >= 0 for a fixed count
		Type        Type
		Fields      utils.StringMap
	}

	// Header is the parsed meta-information and column section of a VCF
	// file.
	Header struct {
		FileFormat string
		Infos      []*FieldInfo
		Formats    []*FieldInfo
		Meta       map[string][]string // raw ##key=value / ##key=<...> lines, keyed by key
		MetaOrder  []string            // order keys were first seen in, for stable re-emission
		Samples    []string
	}
)

// NewHeader returns an empty Header for the current file format version.
func NewHeader() *Header {
	return &Header{
		FileFormat: FileFormatVersionLine,
		Meta:       make(map[string][]string),
	}
}

// InfoByID returns the INFO field declaration for id, or nil if absent.
func (h *Header) InfoByID(id utils.Symbol) *FieldInfo {
	for _, f := range h.Infos {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// FormatByID returns the FORMAT field declaration for id, or nil if absent.
func (h *Header) FormatByID(id utils.Symbol) *FieldInfo {
	for _, f := range h.Formats {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// AddFormat appends a new FORMAT declaration to the header unless one with
// the same ID is already present (used when the localiser adds LAA/LAD/LPL
// to the output header).
func (h *Header) AddFormat(f *FieldInfo) {
	if h.FormatByID(f.ID) != nil {
		return
	}
	h.Formats = append(h.Formats, f)
}

// AddInfo appends a new INFO declaration to the header unless one with the
// same ID is already present.
func (h *Header) AddInfo(f *FieldInfo) {
	if h.InfoByID(f.ID) != nil {
		return
	}
	h.Infos = append(h.Infos, f)
}

// Commonly interned field ids used throughout the engine.
var (
	IDAF  = utils.Intern("AF")
	IDAC  = utils.Intern("AC")
	IDAN  = utils.Intern("AN")
	IDGT  = utils.Intern("GT")
	IDPL  = utils.Intern("PL")
	IDAD  = utils.Intern("AD")
	IDLAA = utils.Intern("LAA")
	IDLAD = utils.Intern("LAD")
	IDLPL = utils.Intern("LPL")
)
