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

	"github.com/h-2/decovar/utils"
)

func errSyntax(line string) error {
	return fmt.Errorf("invalid syntax in VCF meta-information line: %v", line)
}

const (
	keyID          = "ID"
	keyDescription = "Description"
	keyNumber      = "Number"
	keyType        = "Type"
)

// parseFieldInfo parses the <ID=...,Number=...,Type=...,Description=...>
// body of a ##INFO or ##FORMAT line.
func parseFieldInfo(body string) (*FieldInfo, error) {
	if !strings.HasPrefix(body, "<") || !strings.HasSuffix(body, ">") {
		return nil, errSyntax(body)
	}
	var sc scanner
	sc.reset(body[1:])
	fi := &FieldInfo{Number: invalidNumber, Fields: make(utils.StringMap)}
	for {
		key, value, err := sc.readField()
		if err != nil {
			return nil, err
		}
		switch key {
		case keyID:
			fi.ID = utils.Intern(value)
		case keyDescription:
			fi.Description = value
		case keyNumber:
			switch value {
			case "A":
				fi.Number = NumberA
			case "R":
				fi.Number = NumberR
			case "G":
				fi.Number = NumberG
			case ".":
				fi.Number = NumberDot
			default:
				n, err := strconv.ParseInt(value, 10, 32)
				if err != nil {
					return nil, fmt.Errorf("invalid Number entry %q: %w", value, err)
				}
				fi.Number = int32(n)
			}
		case keyType:
			switch value {
			case "Integer":
				fi.Type = Integer
			case "Float":
				fi.Type = Float
			case "Flag":
				fi.Type = Flag
			case "Character", "String":
				fi.Type = String
			default:
				return nil, fmt.Errorf("unknown Type entry %q", value)
			}
		default:
			fi.Fields.SetUniqueEntry(key, value)
		}
		sc.skipSpace()
		if sc.index >= len(sc.data) {
			break
		}
		switch sc.data[sc.index] {
		case ',':
			sc.index++
			continue
		case '>':
			sc.index++
		}
		break
	}
	if fi.ID == nil {
		return nil, fmt.Errorf("missing ID in meta-information line: %v", body)
	}
	if fi.Number == invalidNumber {
		return nil, fmt.Errorf("missing Number entry for field %v", *fi.ID)
	}
	if fi.Type == InvalidType {
		return nil, fmt.Errorf("missing Type entry for field %v", *fi.ID)
	}
	return fi, nil
}

const mandatoryColumnPrefix = "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO"

// ReadHeader parses the meta-information lines and the #CHROM column line
// of a VCF file from r, stopping right before the first record line.
func ReadHeader(r *bufio.Reader) (*Header, error) {
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, "##fileformat=VCFv4.") {
		return nil, fmt.Errorf("invalid first line in VCF file: %v", line)
	}
	hdr := NewHeader()
	hdr.FileFormat = line

	for {
		peek, err := r.Peek(2)
		if err != nil {
			return nil, fmt.Errorf("unexpected end of VCF header: %w", err)
		}
		if peek[0] != '#' {
			return nil, fmt.Errorf("unexpected line in VCF header: missing leading #")
		}
		if peek[1] != '#' {
			break
		}
		line, err = r.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		body := line[2:]
		key, rest, found := strings.Cut(body, "=")
		if !found {
			return nil, errSyntax(line)
		}
		switch key {
		case "INFO":
			fi, err := parseFieldInfo(rest)
			if err != nil {
				return nil, fmt.Errorf("parsing ##INFO line %q: %w", line, err)
			}
			hdr.Infos = append(hdr.Infos, fi)
		case "FORMAT":
			fi, err := parseFieldInfo(rest)
			if err != nil {
				return nil, fmt.Errorf("parsing ##FORMAT line %q: %w", line, err)
			}
			hdr.Formats = append(hdr.Formats, fi)
		default:
			if _, seen := hdr.Meta[key]; !seen {
				hdr.MetaOrder = append(hdr.MetaOrder, key)
			}
			hdr.Meta[key] = append(hdr.Meta[key], rest)
		}
	}

	line, err = r.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, mandatoryColumnPrefix) {
		return nil, fmt.Errorf("invalid #CHROM column line: %v", line)
	}
	columns := strings.Split(line, "\t")
	if len(columns) > 9 {
		hdr.Samples = columns[9:]
	}
	return hdr, nil
}
