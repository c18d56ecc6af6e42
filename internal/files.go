// decovar: a streaming rewriter for multi-allelic VCF/BCF records.
// Copyright (c) 2026 decovar contributors.
//
// Licensed under the GNU Affero General Public License v3; see LICENSE.

package internal

import (
	"log"
	"os"
)

// MkdirAll is os.MkdirAll with a panic in place of an error.
func MkdirAll(path string, perm os.FileMode) {
	if err := os.MkdirAll(path, perm); err != nil {
		log.Panic(err)
	}
}

// FileCreate is os.Create with a panic in place of an error.
func FileCreate(name string) *os.File {
	f, err := os.Create(name)
	if err != nil {
		log.Panic(err)
	}
	return f
}

// Close is f.Close() with a panic in place of an error.
func Close(f *os.File) {
	if err := f.Close(); err != nil {
		log.Panic(err)
	}
}
