// decovar: a streaming rewriter for multi-allelic VCF/BCF records.
// Copyright (c) 2026 decovar contributors.
//
// Licensed under the GNU Affero General Public License v3; see LICENSE.

package cmd

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/h-2/decovar/bgzfio"
	"github.com/h-2/decovar/filters"
	"github.com/h-2/decovar/internal"
	"github.com/h-2/decovar/vcf"
)

// AlleleHelp documents the "allele" subcommand.
const AlleleHelp = "allele [input-file] [output-file] [options]\n" +
	"Rewrites multi-allelic VCF records: rare-allele removal, length-based\n" +
	"splitting, and local-allele projection.\n" +
	"[--rare-af-thresh float]\n" +
	"[--split-by-length int]\n" +
	"[-L int] [--local-alleles int]\n" +
	"[--keep-global-fields]\n" +
	"[--transform-all]\n" +
	"[-O a|b|u|z|v]\n" +
	"[--verbose]\n" +
	"[--dry-run]\n" +
	"[--log-path path]\n" +
	HelpMessage

// outputFormat is the single-character format selector of §6. BCF (binary
// b/u) is parsed into this type for validation but Allele refuses to act
// on it: this implementation only emits VCF text, optionally
// BGZF-compressed (see SPEC_FULL.md §4 on the BCF limitation).
type outputFormat byte

const (
	formatAuto          outputFormat = 'a'
	formatBCFCompressed outputFormat = 'b'
	formatBCFPlain      outputFormat = 'u'
	formatVCFCompressed outputFormat = 'z'
	formatVCFPlain      outputFormat = 'v'
)

func parseOutputFormat(s string) (outputFormat, error) {
	if len(s) != 1 {
		return 0, fmt.Errorf("invalid output format %q: expected one of a,b,u,z,v", s)
	}
	f := outputFormat(s[0])
	switch f {
	case formatAuto, formatBCFCompressed, formatBCFPlain, formatVCFCompressed, formatVCFPlain:
		return f, nil
	default:
		return 0, fmt.Errorf("invalid output format %q: expected one of a,b,u,z,v", s)
	}
}

// resolveAuto turns 'a' into a concrete format by sniffing the output
// filename's extension, falling back to uncompressed VCF for stdout.
func resolveAuto(f outputFormat, filename string) outputFormat {
	if f != formatAuto {
		return f
	}
	switch {
	case strings.HasSuffix(filename, ".bcf"):
		return formatBCFCompressed
	case strings.HasSuffix(filename, ".vcf.gz"):
		return formatVCFCompressed
	default:
		return formatVCFPlain
	}
}

// Allele runs the "allele" subcommand: parse flags, open input/output,
// drive the rewrite pipeline record by record.
func Allele() error {
	var (
		rareAFThresh     float64
		splitByLength    int
		localAlleles     int
		keepGlobalFields bool
		transformAll     bool
		outputFormatStr  string
		logPath          string
		verbose          bool
		dryRun           bool
	)

	var flags flag.FlagSet
	flags.Float64Var(&rareAFThresh, "rare-af-thresh", 0, "rare-allele AF threshold in [0,1]; 0 disables")
	flags.IntVar(&splitByLength, "split-by-length", 0, "length-split cutoff in [0,100000]; 0 disables")
	flags.IntVar(&localAlleles, "L", 0, "local-allele budget in [0,127]; 0 disables")
	flags.IntVar(&localAlleles, "local-alleles", 0, "local-allele budget in [0,127]; 0 disables")
	flags.BoolVar(&keepGlobalFields, "keep-global-fields", false, "keep AD/PL alongside LAD/LPL")
	flags.BoolVar(&transformAll, "transform-all", false, "apply local-allele projection even when n_alt <= L")
	flags.StringVar(&outputFormatStr, "O", "a", "output format: a|b|u|z|v")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")
	flags.BoolVar(&verbose, "verbose", false, "log short-circuited records")
	flags.BoolVar(&dryRun, "dry-run", false, "process the stream and report statistics without writing output")

	parseFlags(flags, 4, AlleleHelp)

	input := getFilename(os.Args[2], AlleleHelp)
	output := getFilename(os.Args[3], AlleleHelp)

	logger, runID := newRunLogger()
	logFile := setLogOutput(logPath, runID)
	defer internalClose(logFile)

	if !checkExist("", input) {
		os.Exit(1)
	}
	if !dryRun && !checkCreate("", output) {
		os.Exit(1)
	}
	if rareAFThresh < 0 || rareAFThresh > 1 {
		log.Println("Error: --rare-af-thresh must be in [0,1].")
		os.Exit(1)
	}
	if splitByLength < 0 || splitByLength > 100000 {
		log.Println("Error: --split-by-length must be in [0,100000].")
		os.Exit(1)
	}
	if localAlleles < 0 || localAlleles > 127 {
		log.Println("Error: --local-alleles must be in [0,127].")
		os.Exit(1)
	}
	format, err := parseOutputFormat(outputFormatStr)
	if err != nil {
		log.Println("Error:", err)
		os.Exit(1)
	}
	format = resolveAuto(format, output)
	if format == formatBCFCompressed || format == formatBCFPlain {
		log.Println("Error: BCF output is not supported by this build; use -O v or -O z for (compressed) VCF text.")
		os.Exit(1)
	}

	if verbose {
		logger.SetLevel(logrus.InfoLevel)
	}
	entry := logger.WithField("run", runID)

	cfg := filters.Config{
		RareAFThresh:     rareAFThresh,
		SplitByLength:    splitByLength,
		LocalAlleles:     localAlleles,
		KeepGlobalFields: keepGlobalFields,
		TransformAll:     transformAll,
	}
	pipeline := filters.NewPipeline(cfg, entry)

	in, err := openInput(input)
	if err != nil {
		return err
	}
	defer in.Close()

	reader, closer, err := newVCFReader(in)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	hdr := reader.Header()
	pipeline.RegisterHeader(hdr)

	var writer *vcf.Writer
	var outCloser io.Closer
	if !dryRun {
		w, closer, err := newVCFWriter(output, format)
		if err != nil {
			return err
		}
		writer = w
		outCloser = closer
		defer outCloser.Close()
		if err := writer.WriteHeader(hdr); err != nil {
			return err
		}
	}

	var buf []*vcf.Record
	for {
		rec, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		buf, err = pipeline.Process(rec, hdr, buf)
		if err != nil {
			return err
		}
		if writer != nil {
			for _, out := range buf {
				if err := writer.WriteRecord(out); err != nil {
					return err
				}
			}
		}
	}
	if writer != nil {
		if err := writer.Flush(); err != nil {
			return err
		}
	}

	dropped, emitted := pipeline.Stats()
	if dryRun || verbose {
		log.Printf("decovar allele: %d records dropped, %d records emitted\n", dropped, emitted)
	}
	return nil
}

// newVCFReader wraps in with BGZF decompression if the stream is
// gzip-magic, then parses the VCF header. The returned io.Closer, if
// non-nil, must be closed to stop the BGZF worker pipeline; it is nil for
// a plain-text stream.
func newVCFReader(in io.Reader) (*vcf.Reader, io.Closer, error) {
	br := bufio.NewReader(in)
	isGzip, err := bgzfio.IsGzip(br)
	if err != nil && err != io.EOF {
		return nil, nil, err
	}
	if isGzip {
		bgzfReader, err := bgzfio.NewReader(br)
		if err != nil {
			return nil, nil, err
		}
		rd, err := vcf.NewReader(bgzfReader)
		return rd, bgzfReader, err
	}
	rd, err := vcf.NewReader(br)
	return rd, nil, err
}

// newVCFWriter opens filename and wraps it with BGZF compression if format
// calls for it.
func newVCFWriter(filename string, format outputFormat) (*vcf.Writer, io.Closer, error) {
	out, err := openOutput(filename)
	if err != nil {
		return nil, nil, err
	}
	if format == formatVCFCompressed {
		bgzfWriter := bgzfio.NewWriter(out, -1)
		return vcf.NewWriter(bgzfWriter), multiCloser{bgzfWriter, out}, nil
	}
	return vcf.NewWriter(out), out, nil
}

type multiCloser struct {
	inner io.Closer
	outer io.Closer
}

func (m multiCloser) Close() error {
	if err := m.inner.Close(); err != nil {
		return err
	}
	return m.outer.Close()
}

func internalClose(f *os.File) {
	if f != nil {
		internal.Close(f)
	}
}
