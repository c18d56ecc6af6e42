// decovar: a streaming rewriter for multi-allelic VCF/BCF records.
// Copyright (c) 2026 decovar contributors.
//
// Licensed under the GNU Affero General Public License v3; see LICENSE.

// decovar reshapes multi-allelic VCF records for cheaper downstream
// storage and processing: rare-allele removal, length-based splitting, and
// local-allele projection, each consistently rewriting the per-allele and
// per-genotype fields a record carries.
//
// See https://github.com/h-2/decovar for documentation.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/h-2/decovar/cmd"
)

func printHelp() {
	fmt.Fprintln(os.Stderr, "Available commands: allele")
	fmt.Fprint(os.Stderr, "\n", cmd.AlleleHelp)
}

func main() {
	fmt.Fprintln(os.Stderr, cmd.ProgramMessage)
	if len(os.Args) < 2 {
		log.Println("Incorrect number of parameters.")
		fmt.Fprint(os.Stderr, cmd.HelpMessage)
		printHelp()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "allele":
		err = cmd.Allele()
	case "help", "-help", "--help", "-h", "--h":
		printHelp()
	default:
		fmt.Fprintln(os.Stderr, "Unknown command:", os.Args[1])
		printHelp()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(err)
	}
}
