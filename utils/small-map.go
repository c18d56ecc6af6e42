// decovar: a streaming rewriter for multi-allelic VCF/BCF records.
// Copyright (c) 2026 decovar contributors.
//
// Licensed under the GNU Affero General Public License v3; see LICENSE.

package utils

// SmallMapEntry is an entry in a SmallMap.
type SmallMapEntry struct {
	Key   Symbol
	Value interface{}
}

// A SmallMap maps symbols to values, preserving insertion order. Records
// carry only a handful of INFO/FORMAT entries, so a linear-scan slice
// outperforms a native map and keeps field order stable for re-emission.
type SmallMap []SmallMapEntry

// Get returns the value for key and whether it was found.
func (m SmallMap) Get(key Symbol) (interface{}, bool) {
	for _, entry := range m {
		if entry.Key == key {
			return entry.Value, true
		}
	}
	return nil, false
}

// Index returns the position of key in m, or -1 if absent.
func (m SmallMap) Index(key Symbol) int {
	for i, entry := range m {
		if entry.Key == key {
			return i
		}
	}
	return -1
}

// Set associates value with key, replacing any existing entry or appending
// a new one at the end.
func (m *SmallMap) Set(key Symbol, value interface{}) {
	for index := range *m {
		if (*m)[index].Key == key {
			(*m)[index].Value = value
			return
		}
	}
	*m = append(*m, SmallMapEntry{key, value})
}

// Delete removes the first entry for key, returning the resulting map and
// whether an entry was removed.
func (m SmallMap) Delete(key Symbol) (SmallMap, bool) {
	for index, entry := range m {
		if entry.Key == key {
			return append(m[:index], m[index+1:]...), true
		}
	}
	return m, false
}
