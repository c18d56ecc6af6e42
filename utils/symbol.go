// decovar: a streaming rewriter for multi-allelic VCF/BCF records.
// Copyright (c) 2026 decovar contributors.
//
// Licensed under the GNU Affero General Public License v3; see LICENSE.

package utils

import (
	"github.com/exascience/pargo/sync"
)

type symbolName string

func (s symbolName) Hash() uint64 {
	return stringHash(string(s))
}

// stringHash is a small FNV-1a implementation; kept local so this package
// does not need to reach into elprep's internal hash helpers.
func stringHash(s string) uint64 {
	const (
		offset = 14695981039346656037
		prime  = 1099511628211
	)
	h := uint64(offset)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	return h
}

// A Symbol is a unique pointer to a string: VCF field ids (INFO/FORMAT keys)
// are interned so that identity comparison (==) can replace string
// comparison on every record's field lookup.
type Symbol *string

var symbolTable = sync.NewMap(0)

// Intern returns a Symbol for the given string, always returning the same
// pointer for equal strings and distinct pointers for distinct strings.
// It is safe to call concurrently.
func Intern(s string) Symbol {
	entry, _ := symbolTable.LoadOrStore(symbolName(s), Symbol(&s))
	return entry.(Symbol)
}
