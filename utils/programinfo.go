// decovar: a streaming rewriter for multi-allelic VCF/BCF records.
// Copyright (c) 2026 decovar contributors.
//
// Licensed under the GNU Affero General Public License v3; see LICENSE.

package utils

const (
	// ProgramName is the name reported in log banners and log file names.
	ProgramName = "decovar"

	// ProgramVersion is the version of the decovar binary.
	ProgramVersion = "0.1.0"

	// ProgramURL points at the repository housing the decovar source code.
	ProgramURL = "https://github.com/h-2/decovar"
)
