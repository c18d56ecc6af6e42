// decovar: a streaming rewriter for multi-allelic VCF/BCF records.
// Copyright (c) 2026 decovar contributors.
//
// Licensed under the GNU Affero General Public License v3; see LICENSE.

package vcf

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/h-2/decovar/utils"
)

// Reader is the external collaborator named in §6: it yields a parsed
// Header once and then a Record at a time, signalling end of stream with
// io.EOF from Next. Parse errors abort the stream, exactly as the core
// requires ("record iteration is otherwise infallible from the core's
// view").
//
// This is a plain-text VCFv4.3 reader. BCF's binary container format is
// out of scope (see SPEC_FULL.md §4); a BGZF-compressed text stream is
// supported transparently by wrapping r with bgzfio.NewReader before
// constructing a Reader.
type Reader struct {
	br     *bufio.Reader
	header *Header
	index  int
}

// NewReader parses the VCF header from r and returns a Reader positioned
// at the first record.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	hdr, err := ReadHeader(br)
	if err != nil {
		return nil, errors.Wrap(err, "reading VCF header")
	}
	return &Reader{br: br, header: hdr}, nil
}

// Header returns the parsed header.
func (rd *Reader) Header() *Header { return rd.header }

// Next parses and returns the next record, or (nil, io.EOF) once the
// stream is exhausted.
func (rd *Reader) Next() (*Record, error) {
	line, err := rd.br.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		if err == io.EOF {
			return nil, io.EOF
		}
		return rd.Next()
	}
	rec, perr := rd.parseRecord(line)
	if perr != nil {
		return nil, errors.Wrapf(perr, "parsing VCF record %d", rd.index+1)
	}
	rec.Index = rd.index
	rd.index++
	return rec, nil
}

func (rd *Reader) parseRecord(line string) (*Record, error) {
	cols := strings.Split(line, "\t")
	if len(cols) < 8 {
		return nil, fmt.Errorf("expected at least 8 columns, got %d", len(cols))
	}
	rec := &Record{Chrom: cols[0], ID: cols[2], Ref: cols[3], Qual: cols[5]}
	pos, err := strconv.Atoi(cols[1])
	if err != nil {
		return nil, fmt.Errorf("invalid POS %q: %w", cols[1], err)
	}
	rec.Pos = pos
	if cols[4] != "." {
		rec.Alt = strings.Split(cols[4], ",")
	}
	if cols[6] != "." {
		rec.Filter = strings.Split(cols[6], ";")
	}
	info, err := rd.parseInfo(cols[7], rec.NAlt())
	if err != nil {
		return nil, errors.Wrap(err, "parsing INFO")
	}
	rec.Info = info
	if len(cols) > 8 {
		genotypes, err := rd.parseGenotypes(cols[8], cols[9:])
		if err != nil {
			return nil, errors.Wrap(err, "parsing FORMAT/sample columns")
		}
		rec.Genotypes = genotypes
	}
	return rec, nil
}

func (rd *Reader) parseInfo(field string, nAlt int) ([]InfoField, error) {
	if field == "." || field == "" {
		return nil, nil
	}
	entries := strings.Split(field, ";")
	out := make([]InfoField, 0, len(entries))
	for _, e := range entries {
		key, raw, hasValue := strings.Cut(e, "=")
		id := utils.Intern(key)
		fi := rd.header.InfoByID(id)
		if fi == nil {
			// Unknown to the header: keep as an untouched string value so
			// round-tripping doesn't silently drop data.
			out = append(out, InfoField{ID: id, Value: Value{Kind: KindString, String: []string{raw}}})
			continue
		}
		if fi.Type == Flag {
			out = append(out, InfoField{ID: id, Value: Value{Kind: KindFlag, Flag: true}})
			continue
		}
		if !hasValue {
			return nil, fmt.Errorf("INFO field %v missing value", key)
		}
		v, err := parseValue(raw, fi.Type)
		if err != nil {
			return nil, fmt.Errorf("INFO field %v: %w", key, err)
		}
		out = append(out, InfoField{ID: id, Value: v})
	}
	return out, nil
}

// parseValue parses a comma-separated field body into a Value, choosing
// the narrowest integer width that holds every element (width
// preservation is then maintained by the rewriter for the rest of this
// record's lifetime).
func parseValue(raw string, t Type) (Value, error) {
	parts := strings.Split(raw, ",")
	if t == String {
		return Value{Kind: KindString, String: parts}, nil
	}
	if t == Float {
		fs := make([]float64, len(parts))
		for i, p := range parts {
			if p == "." {
				fs[i] = missingFloat
				continue
			}
			f, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return Value{}, fmt.Errorf("invalid float %q: %w", p, err)
			}
			fs[i] = f
		}
		return Value{Kind: KindFloat, Float: fs}, nil
	}
	ints := make([]int64, len(parts))
	for i, p := range parts {
		if p == "." {
			ints[i] = missingInt
			continue
		}
		n, err := strconv.ParseInt(p, 10, 32)
		if err != nil {
			return Value{}, fmt.Errorf("invalid integer %q: %w", p, err)
		}
		ints[i] = n
	}
	return packInts(ints), nil
}

const (
	missingInt               = -2147483648 // VCF's reserved Integer "missing" sentinel (INT32_MIN)
	missingFloat     float64 = -2147483648 // reserved Float "missing" sentinel, mirroring missingInt
)

// packInts chooses the narrowest of int8/int16/int32 that holds every
// value in ints.
func packInts(ints []int64) Value {
	min8, max8 := int64(-128), int64(127)
	min16, max16 := int64(-32768), int64(32767)
	fits8, fits16 := true, true
	for _, n := range ints {
		if n < min8 || n > max8 {
			fits8 = false
		}
		if n < min16 || n > max16 {
			fits16 = false
		}
	}
	switch {
	case fits8:
		out := make([]int8, len(ints))
		for i, n := range ints {
			out[i] = int8(n)
		}
		return Value{Kind: KindInt8, Int8: out}
	case fits16:
		out := make([]int16, len(ints))
		for i, n := range ints {
			out[i] = int16(n)
		}
		return Value{Kind: KindInt16, Int16: out}
	default:
		out := make([]int32, len(ints))
		for i, n := range ints {
			out[i] = int32(n)
		}
		return Value{Kind: KindInt32, Int32: out}
	}
}

func (rd *Reader) parseGenotypes(formatCol string, sampleCols []string) ([]GenotypeField, error) {
	ids := strings.Split(formatCol, ":")
	nSamples := len(sampleCols)
	perField := make([][]string, len(ids))
	for i, sample := range sampleCols {
		vals := strings.Split(sample, ":")
		for j := range ids {
			if j < len(vals) {
				perField[j] = append(perField[j], vals[j])
			} else {
				perField[j] = append(perField[j], ".")
			}
		}
		_ = i
	}

	out := make([]GenotypeField, 0, len(ids))
	for j, idStr := range ids {
		id := utils.Intern(idStr)
		if id == IDGT {
			j2 := NewUniformJagged(KindInt32, nSamples, 2)
			for i, raw := range perField[j] {
				a, b, err := parseGT(raw)
				if err != nil {
					return nil, err
				}
				j2.Int32[2*i] = a
				j2.Int32[2*i+1] = b
			}
			out = append(out, GenotypeField{ID: id, Value: *j2})
			continue
		}
		fi := rd.header.FormatByID(id)
		jagged, err := parseJaggedField(perField[j], fi)
		if err != nil {
			return nil, fmt.Errorf("FORMAT field %v: %w", idStr, err)
		}
		out = append(out, GenotypeField{ID: id, Value: jagged})
	}
	return out, nil
}

// parseGT parses an unphased (or phased, accepted and then treated as
// unphased per the Non-goals) "a/b" or "a|b" genotype string into its two
// allele indices, -1 for a missing "." allele.
func parseGT(raw string) (a, b int32, err error) {
	raw = strings.ReplaceAll(raw, "|", "/")
	parts := strings.SplitN(raw, "/", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("unsupported non-diploid GT %q", raw)
	}
	pa, err := parseAlleleIndex(parts[0])
	if err != nil {
		return 0, 0, err
	}
	pb, err := parseAlleleIndex(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return pa, pb, nil
}

func parseAlleleIndex(s string) (int32, error) {
	if s == "." {
		return -1, nil
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid allele index %q: %w", s, err)
	}
	return int32(n), nil
}

// parseJaggedField builds a Jagged container from one FORMAT field's
// per-sample raw strings. Every row must be fully materialized (the
// single-dot whole-vector placeholder is rejected per the Non-goals) when
// the field is declared A/R/G-multiplied; Number=1/Fixed(0) scalar fields
// and fields absent from the header are stored row-for-row as-is. For every
// field, all samples' rows must have the same length; ragged rows are
// rejected.
func parseJaggedField(raw []string, fi *FieldInfo) (Jagged, error) {
	t := String
	if fi != nil {
		t = fi.Type
	}
	rows := make([][]string, len(raw))
	rowLen := -1
	for i, cell := range raw {
		var parts []string
		if cell == "." {
			parts = []string{"."}
		} else {
			parts = strings.Split(cell, ",")
		}
		if fi != nil {
			cat := CategoryOf(fi.Number)
			if (cat == CategoryA || cat == CategoryR || cat == CategoryG) && len(parts) == 1 && parts[0] == "." {
				return Jagged{}, fmt.Errorf("single-dot placeholder not supported for A/R/G field")
			}
		}
		rows[i] = parts
		if rowLen == -1 {
			rowLen = len(parts)
		} else if len(parts) != rowLen {
			return Jagged{}, fmt.Errorf("ragged sample rows: expected length %d, got %d", rowLen, len(parts))
		}
	}
	if rowLen < 0 {
		rowLen = 0
	}

	if t == String {
		flat := make([]string, 0, len(raw)*rowLen)
		delim := make([]int, len(raw)+1)
		for i, parts := range rows {
			delim[i] = len(flat)
			flat = append(flat, parts...)
		}
		delim[len(raw)] = len(flat)
		return Jagged{Kind: KindString, String: flat, Delim: delim}, nil
	}

	flatInts := make([]int64, 0, len(raw)*rowLen)
	flatFloats := make([]float64, 0, len(raw)*rowLen)
	delim := make([]int, len(raw)+1)
	for i, parts := range rows {
		delim[i] = len(parts) * i
		for _, p := range parts {
			if t == Float {
				if p == "." {
					flatFloats = append(flatFloats, missingFloat)
					continue
				}
				f, err := strconv.ParseFloat(p, 64)
				if err != nil {
					return Jagged{}, fmt.Errorf("invalid float %q: %w", p, err)
				}
				flatFloats = append(flatFloats, f)
			} else {
				if p == "." {
					flatInts = append(flatInts, missingInt)
					continue
				}
				n, err := strconv.ParseInt(p, 10, 32)
				if err != nil {
					return Jagged{}, fmt.Errorf("invalid integer %q: %w", p, err)
				}
				flatInts = append(flatInts, n)
			}
		}
	}
	delim[len(raw)] = len(flatInts) + len(flatFloats)
	if t == Float {
		return Jagged{Kind: KindFloat, Float: flatFloats, Delim: delim}, nil
	}
	v := packInts(flatInts)
	switch v.Kind {
	case KindInt8:
		return Jagged{Kind: KindInt8, Int8: v.Int8, Delim: delim}, nil
	case KindInt16:
		return Jagged{Kind: KindInt16, Int16: v.Int16, Delim: delim}, nil
	default:
		return Jagged{Kind: KindInt32, Int32: v.Int32, Delim: delim}, nil
	}
}
