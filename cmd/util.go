// decovar: a streaming rewriter for multi-allelic VCF/BCF records.
// Copyright (c) 2026 decovar contributors.
//
// Licensed under the GNU Affero General Public License v3; see LICENSE.

// Package cmd implements the decovar command-line subcommands: flag
// parsing, file/stdio opening, logging setup, and the glue between the
// vcf/filters/bgzfio packages and the user-facing CLI surface of §6.
package cmd

import (
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/h-2/decovar/internal"
	"github.com/h-2/decovar/utils"
)

// ProgramMessage is the first line printed when the decovar binary runs.
var ProgramMessage string

func init() {
	ProgramMessage = fmt.Sprint(
		"\n", utils.ProgramName, " version ", utils.ProgramVersion,
		" compiled with ", runtime.Version(),
		" - see ", utils.ProgramURL, " for more information.\n",
	)
}

// HelpMessage is printed alongside a subcommand's own help text.
const HelpMessage = "Print command details:\n[--help]\n"

func getFilename(s, help string) string {
	switch s {
	case "-h", "--h", "-help", "--help":
		fmt.Fprint(os.Stderr, help)
		os.Exit(0)
	default:
		if strings.HasPrefix(s, "-") {
			log.Println("Filename(s) in command line missing.")
			fmt.Fprint(os.Stderr, help)
			os.Exit(1)
		}
	}
	return s
}

func parseFlags(flags flag.FlagSet, requiredArgs int, help string) {
	if len(os.Args) < requiredArgs {
		fmt.Fprintln(os.Stderr, "Incorrect number of parameters.")
		fmt.Fprint(os.Stderr, help)
		os.Exit(1)
	}
	flags.SetOutput(ioutil.Discard)
	if err := flags.Parse(os.Args[requiredArgs:]); err != nil {
		x := 0
		if err != flag.ErrHelp {
			fmt.Fprintln(os.Stderr, err)
			x = 1
		}
		fmt.Fprint(os.Stderr, help)
		os.Exit(x)
	}
	if flags.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "Cannot parse remaining parameters:", flags.Args())
		fmt.Fprint(os.Stderr, help)
		os.Exit(1)
	}
}

func logCheckFile(parameter, format string, v ...interface{}) {
	if parameter != "" {
		log.Printf(format+" for command line parameter %v.\n", append(v, parameter)...)
	} else {
		log.Printf(format+".\n", v...)
	}
}

func checkExist(parameter, filename string) bool {
	if filename == "-" || filename == "/dev/stdin" {
		return true
	}
	if len(filename) == 0 {
		logCheckFile(parameter, "Error: Missing filename")
		return false
	}
	if filename[0] == '-' {
		logCheckFile(parameter, "Error: Missing filename before %v", filename)
		return false
	}
	if _, err := os.Stat(filename); err == nil {
		return true
	} else if os.IsNotExist(err) {
		logCheckFile(parameter, "Error: File %v does not exist", filename)
		return false
	} else if os.IsPermission(err) {
		logCheckFile(parameter, "Error: No permission to read file %v", filename)
		return false
	} else {
		logCheckFile(parameter, "Error %v when trying to access file %v", err, filename)
		return false
	}
}

func checkCreate(parameter, filename string) bool {
	if filename == "-" || filename == "/dev/stdout" {
		return true
	}
	if len(filename) == 0 {
		logCheckFile(parameter, "Error: Missing filename")
		return false
	}
	if filename[0] == '-' {
		logCheckFile(parameter, "Error: Missing filename before %v", filename)
		return false
	}
	if _, err := os.Stat(filename); err == nil {
		return true
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0700); err == nil {
		err = ioutil.WriteFile(filename, nil, 0666)
		if err == nil {
			_ = os.Remove(filename)
			return true
		}
	}
	logCheckFile(parameter, "Error: Cannot create file %v", filename)
	return false
}

func openInput(filename string) (io.ReadCloser, error) {
	if filename == "" || filename == "-" || filename == "/dev/stdin" {
		return ioutil.NopCloser(os.Stdin), nil
	}
	return os.Open(filename)
}

func openOutput(filename string) (io.WriteCloser, error) {
	if filename == "" || filename == "-" || filename == "/dev/stdout" {
		return nopWriteCloser{os.Stdout}, nil
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0700); err != nil {
		return nil, err
	}
	return os.Create(filename)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func createLogFilename(runID string) string {
	return fmt.Sprintf(".%v-%v.log", utils.ProgramName, runID)
}

// setLogOutput mirrors the standard log output to a per-invocation file
// under path (or $HOME if path is empty) in addition to stderr, and points
// fd 2 at that file so that output written directly to fd 2 (by
// dependencies, or by a logrus logger writing to os.Stderr) goes to the
// file only.
func setLogOutput(path, runID string) *os.File {
	logName := createLogFilename(runID)
	var fullPath string
	if path == "" {
		fullPath = filepath.Join(os.Getenv("HOME"), logName)
	} else {
		fullPath = filepath.Join(path, logName)
	}
	internal.MkdirAll(filepath.Dir(fullPath), 0700)
	f := internal.FileCreate(fullPath)
	fmt.Fprintln(f, ProgramMessage)

	orgStderr, err := unix.Dup(2)
	if err != nil {
		log.Panic(err)
	}
	ferr := os.NewFile(uintptr(orgStderr), "/dev/stderr")
	if err := unix.Dup2(int(f.Fd()), 2); err != nil {
		log.Panic(err)
	}

	multi := io.MultiWriter(f, ferr)
	log.SetOutput(multi)
	log.Println("Created log file at", fullPath)
	log.Println("Command line:", os.Args)
	return f
}

// newRunLogger returns a fresh logrus.Logger plus a per-invocation run id,
// used by the pipeline driver for per-record diagnostics so multiple
// concurrent decovar runs can be told apart in shared log aggregation.
func newRunLogger() (*logrus.Logger, string) {
	runID := uuid.New().String()
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.WarnLevel)
	return l, runID
}
