// decovar: a streaming rewriter for multi-allelic VCF/BCF records.
// Copyright (c) 2026 decovar contributors.
//
// Licensed under the GNU Affero General Public License v3; see LICENSE.

package bgzfio

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestIsGzipDetectsMagicByte(t *testing.T) {
	br := bufio.NewReader(bytes.NewReader([]byte{0x1f, 0x8b, 0x08, 0x00}))
	ok, err := IsGzip(br)
	if err != nil {
		t.Fatalf("IsGzip: %v", err)
	}
	if !ok {
		t.Error("IsGzip = false, want true for gzip magic byte")
	}
}

func TestIsGzipRejectsPlainText(t *testing.T) {
	br := bufio.NewReader(bytes.NewReader([]byte("##fileformat=VCFv4.3\n")))
	ok, err := IsGzip(br)
	if err != nil {
		t.Fatalf("IsGzip: %v", err)
	}
	if ok {
		t.Error("IsGzip = true, want false for plain text")
	}
}

func TestIsGzipDoesNotConsumeByte(t *testing.T) {
	br := bufio.NewReader(bytes.NewReader([]byte{0x1f, 0x8b}))
	if _, err := IsGzip(br); err != nil {
		t.Fatalf("IsGzip: %v", err)
	}
	b, err := br.ReadByte()
	if err != nil {
		t.Fatalf("ReadByte after IsGzip: %v", err)
	}
	if b != 0x1f {
		t.Errorf("first byte after IsGzip = %#x, want 0x1f (peek must not consume)", b)
	}
}

func roundTrip(t *testing.T, payload []byte) []byte {
	t.Helper()

	var compressed bytes.Buffer
	w := NewWriter(&compressed, -1)
	if _, err := w.Write(payload); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Writer.Close: %v", err)
	}

	br := bufio.NewReader(&compressed)
	isGzip, err := IsGzip(br)
	if err != nil {
		t.Fatalf("IsGzip: %v", err)
	}
	if !isGzip {
		t.Fatal("IsGzip = false on Writer output, want true")
	}

	r, err := NewReader(br)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer func() {
		if err := r.Close(); err != nil {
			t.Errorf("Reader.Close: %v", err)
		}
	}()

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	return got
}

func TestReaderWriterRoundTripsSmallPayload(t *testing.T) {
	payload := []byte("##fileformat=VCFv4.3\n" +
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n" +
		"1\t100\t.\tA\tG,T\t.\tPASS\tAF=0.2,0.01\n")

	got := roundTrip(t, payload)
	if !bytes.Equal(got, payload) {
		t.Errorf("round trip mismatch: got %q, want %q", got, payload)
	}
}

func TestReaderWriterRoundTripsAcrossFrameBoundary(t *testing.T) {
	line := "1\t100\t.\tA\tG,T\t.\tPASS\tAF=0.2,0.01;AC=2,1;AN=10\n"
	// Repeat well past maxFrameSize so Write must split the payload across
	// more than one BGZF frame, exercising both worker pools end to end.
	payload := []byte(strings.Repeat(line, (maxFrameSize*3)/len(line)+1))

	got := roundTrip(t, payload)
	if !bytes.Equal(got, payload) {
		t.Fatalf("round trip mismatch across frame boundary: got %d bytes, want %d", len(got), len(payload))
	}
}

func TestReaderWriterRoundTripsEmptyPayload(t *testing.T) {
	got := roundTrip(t, nil)
	if len(got) != 0 {
		t.Errorf("round trip of empty payload produced %d bytes, want 0", len(got))
	}
}
