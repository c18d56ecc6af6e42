// decovar: a streaming rewriter for multi-allelic VCF/BCF records.
// Copyright (c) 2026 decovar contributors.
//
// Licensed under the GNU Affero General Public License v3; see LICENSE.

package vcf

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Writer is the external collaborator of §6 on the output side: the
// caller hands it a Header once, then a Record at a time.
type Writer struct {
	bw *bufio.Writer
}

// NewWriter wraps w for VCF text output.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriterSize(w, 64*1024)}
}

// WriteHeader formats and writes hdr, including the #CHROM column line.
func (w *Writer) WriteHeader(hdr *Header) error {
	if _, err := fmt.Fprintln(w.bw, hdr.FileFormat); err != nil {
		return err
	}
	for _, key := range hdr.MetaOrder {
		for _, raw := range hdr.Meta[key] {
			if _, err := fmt.Fprintf(w.bw, "##%s=%s\n", key, raw); err != nil {
				return err
			}
		}
	}
	for _, fi := range hdr.Infos {
		if _, err := fmt.Fprintf(w.bw, "##INFO=%s\n", formatFieldInfo(fi)); err != nil {
			return err
		}
	}
	for _, fi := range hdr.Formats {
		if _, err := fmt.Fprintf(w.bw, "##FORMAT=%s\n", formatFieldInfo(fi)); err != nil {
			return err
		}
	}
	cols := []string{"#CHROM", "POS", "ID", "REF", "ALT", "QUAL", "FILTER", "INFO"}
	if len(hdr.Samples) > 0 {
		cols = append(cols, "FORMAT")
		cols = append(cols, hdr.Samples...)
	}
	_, err := fmt.Fprintln(w.bw, strings.Join(cols, "\t"))
	return err
}

func numberString(n int32) string {
	switch n {
	case NumberA:
		return "A"
	case NumberR:
		return "R"
	case NumberG:
		return "G"
	case NumberDot:
		return "."
	default:
		return strconv.Itoa(int(n))
	}
}

func typeString(t Type) string {
	switch t {
	case Integer:
		return "Integer"
	case Float:
		return "Float"
	case Flag:
		return "Flag"
	default:
		return "String"
	}
}

func formatFieldInfo(fi *FieldInfo) string {
	var b strings.Builder
	b.WriteByte('<')
	fmt.Fprintf(&b, "ID=%s,Number=%s,Type=%s,Description=%q", *fi.ID, numberString(fi.Number), typeString(fi.Type), fi.Description)
	keys := make([]string, 0, len(fi.Fields))
	for k := range fi.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, ",%s=%s", k, fi.Fields[k])
	}
	b.WriteByte('>')
	return b.String()
}

// WriteRecord formats and writes rec.
func (w *Writer) WriteRecord(rec *Record) error {
	alt := "."
	if len(rec.Alt) > 0 {
		alt = strings.Join(rec.Alt, ",")
	}
	id := rec.ID
	if id == "" {
		id = "."
	}
	qual := rec.Qual
	if qual == "" {
		qual = "."
	}
	filter := "."
	if len(rec.Filter) > 0 {
		filter = strings.Join(rec.Filter, ";")
	}
	info := formatInfo(rec.Info)

	if len(rec.Genotypes) == 0 {
		_, err := fmt.Fprintf(w.bw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.Chrom, rec.Pos, id, rec.Ref, alt, qual, filter, info)
		return err
	}

	formatCol := make([]string, len(rec.Genotypes))
	for i, g := range rec.Genotypes {
		formatCol[i] = string(*g.ID)
	}
	nSamples := rec.NSamples()
	sampleCols := make([]string, nSamples)
	for s := 0; s < nSamples; s++ {
		cells := make([]string, len(rec.Genotypes))
		for i, g := range rec.Genotypes {
			if g.ID == IDGT {
				cells[i] = formatGT(&g.Value, s)
				continue
			}
			cells[i] = formatJaggedRow(&g.Value, s)
		}
		sampleCols[s] = strings.Join(cells, ":")
	}

	_, err := fmt.Fprintf(w.bw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		rec.Chrom, rec.Pos, id, rec.Ref, alt, qual, filter, info,
		strings.Join(formatCol, ":"), strings.Join(sampleCols, "\t"))
	return err
}

func formatInfo(fields []InfoField) string {
	if len(fields) == 0 {
		return "."
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		if f.Value.Kind == KindFlag {
			parts[i] = string(*f.ID)
			continue
		}
		parts[i] = fmt.Sprintf("%s=%s", *f.ID, formatValue(&f.Value))
	}
	return strings.Join(parts, ";")
}

func formatValue(v *Value) string {
	switch v.Kind {
	case KindInt8:
		return joinInts(int8sToInt64(v.Int8))
	case KindInt16:
		return joinInts(int16sToInt64(v.Int16))
	case KindInt32:
		return joinInts(int32sToInt64(v.Int32))
	case KindFloat:
		return joinFloats(v.Float)
	default:
		return strings.Join(v.String, ",")
	}
}

// formatGT renders the two allele indices of a GT row as an unphased
// "a/b" call, always unphased per the Non-goals.
func formatGT(j *Jagged, sample int) string {
	start, _ := j.Row(sample)
	a, b := j.Int32[start], j.Int32[start+1]
	return alleleIndexString(a) + "/" + alleleIndexString(b)
}

func alleleIndexString(a int32) string {
	if a < 0 {
		return "."
	}
	return strconv.Itoa(int(a))
}

func formatJaggedRow(j *Jagged, sample int) string {
	start, end := j.Row(sample)
	switch j.Kind {
	case KindInt8:
		return joinInts(int8sToInt64(j.Int8[start:end]))
	case KindInt16:
		return joinInts(int16sToInt64(j.Int16[start:end]))
	case KindInt32:
		return joinInts(int32sToInt64(j.Int32[start:end]))
	case KindFloat:
		return joinFloats(j.Float[start:end])
	default:
		return strings.Join(j.String[start:end], ",")
	}
}

func int8sToInt64(s []int8) []int64 {
	out := make([]int64, len(s))
	for i, v := range s {
		out[i] = int64(v)
	}
	return out
}

func int16sToInt64(s []int16) []int64 {
	out := make([]int64, len(s))
	for i, v := range s {
		out[i] = int64(v)
	}
	return out
}

func int32sToInt64(s []int32) []int64 {
	out := make([]int64, len(s))
	for i, v := range s {
		out[i] = int64(v)
	}
	return out
}

func joinInts(vals []int64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		if v == missingInt {
			parts[i] = "."
			continue
		}
		parts[i] = strconv.FormatInt(v, 10)
	}
	return strings.Join(parts, ",")
}

func joinFloats(vals []float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		if v == missingFloat {
			parts[i] = "."
			continue
		}
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

// Flush flushes any buffered output.
func (w *Writer) Flush() error {
	return w.bw.Flush()
}
