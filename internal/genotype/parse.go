// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package genotype reads direct-to-consumer raw genotype files.
// Two layouts are recognised, both tab separated with '#' comment lines:
//
//	23andMe:     rsid  chromosome  position  genotype
//	AncestryDNA: rsid  chromosome  position  allele1  allele2  (header row)
//
// The layout is detected from comments, the header row, or the column count
// of the first data line.
package genotype

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/genocode/pkg/types"
)

// DefaultMaxBytes caps raw file size when no limit is configured.
const DefaultMaxBytes int64 = 64 << 20

var (
	// ErrTooLarge is returned when the input exceeds the size limit.
	ErrTooLarge = errors.New("raw genotype file exceeds size limit")

	// ErrNoCalls is returned when no valid genotype call was found.
	ErrNoCalls = errors.New("no genotype calls found")
)

// maxLineErrors bounds how many malformed lines are recorded individually.
const maxLineErrors = 100

// ParseFile opens path and parses it with Parse.
func ParseFile(path string, maxBytes int64) (*types.GenotypeFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f, maxBytes)
}

// Parse reads a raw genotype file. Malformed lines are recorded rather
// than failing the parse; the parse fails only when the input is too large,
// unreadable, or yields no calls at all.
func Parse(r io.Reader, maxBytes int64) (*types.GenotypeFile, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	lr := &io.LimitedReader{R: r, N: maxBytes + 1}

	out := &types.GenotypeFile{Calls: make(map[string]types.Call)}
	var format types.RawFormat
	malformed := 0

	record := func(line int, reason string) {
		malformed++
		if len(out.Malformed) < maxLineErrors {
			out.Malformed = append(out.Malformed, types.LineError{Line: line, Reason: reason})
		}
	}

	sc := bufio.NewScanner(lr)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			if format == "" {
				format = formatFromComment(trimmed)
			}
			continue
		}

		fields := splitFields(trimmed)
		if isHeader(fields) {
			if hasColumn(fields, "allele1") {
				format = types.FormatAncestry
			} else if format == "" {
				format = types.Format23andMe
			}
			continue
		}

		if format == "" {
			switch len(fields) {
			case 4:
				format = types.Format23andMe
			case 5:
				format = types.FormatAncestry
			}
		}

		out.Total++
		call, noCall, err := parseLine(fields, format)
		if err != nil {
			record(lineNo, err.Error())
			continue
		}
		if noCall {
			out.NoCalls++
			continue
		}
		if _, dup := out.Calls[call.RSID]; dup {
			record(lineNo, "duplicate rsid "+call.RSID)
			continue
		}
		out.Calls[call.RSID] = call
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading raw genotype file: %w", err)
	}
	if lr.N <= 0 {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, maxBytes)
	}

	if format == "" {
		format = types.Format23andMe
	}
	out.Format = format

	if len(out.Calls) == 0 {
		return out, fmt.Errorf("%w: %d lines read, %d no-calls, %d malformed",
			ErrNoCalls, out.Total, out.NoCalls, malformed)
	}
	return out, nil
}

func formatFromComment(line string) types.RawFormat {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "ancestrydna"):
		return types.FormatAncestry
	case strings.Contains(lower, "23andme"):
		return types.Format23andMe
	}
	return ""
}

func splitFields(line string) []string {
	if strings.Contains(line, "\t") {
		fields := strings.Split(line, "\t")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		return fields
	}
	return strings.Fields(line)
}

func isHeader(fields []string) bool {
	return len(fields) > 0 && strings.EqualFold(fields[0], "rsid")
}

func hasColumn(fields []string, name string) bool {
	for _, f := range fields {
		if strings.EqualFold(f, name) {
			return true
		}
	}
	return false
}

func parseLine(fields []string, format types.RawFormat) (types.Call, bool, error) {
	var raw string
	switch {
	case format == types.FormatAncestry && len(fields) == 5:
		raw = fields[3] + fields[4]
	case format == types.Format23andMe && len(fields) == 4:
		raw = fields[3]
	default:
		return types.Call{}, false, fmt.Errorf("expected %d columns for %s, got %d",
			columnsFor(format), format, len(fields))
	}

	rsid := strings.ToLower(fields[0])
	if !validID(rsid) {
		return types.Call{}, false, fmt.Errorf("invalid variant id %q", fields[0])
	}

	pos, err := strconv.ParseUint(fields[2], 10, 32)
	if err != nil {
		return types.Call{}, false, fmt.Errorf("invalid position %q", fields[2])
	}

	if IsNoCall(raw) {
		return types.Call{}, true, nil
	}
	gt, err := normalize(raw)
	if err != nil {
		return types.Call{}, false, err
	}

	return types.Call{
		RSID:       rsid,
		Chromosome: strings.ToUpper(fields[1]),
		Position:   uint32(pos),
		Genotype:   gt,
	}, false, nil
}

func columnsFor(format types.RawFormat) int {
	if format == types.FormatAncestry {
		return 5
	}
	return 4
}

// validID accepts dbSNP rsids and 23andMe internal ids (i followed by digits).
func validID(id string) bool {
	var digits string
	switch {
	case strings.HasPrefix(id, "rs"):
		digits = id[2:]
	case strings.HasPrefix(id, "i"):
		digits = id[1:]
	default:
		return false
	}
	if digits == "" {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// IsNoCall reports whether a raw genotype string denotes a failed call.
func IsNoCall(raw string) bool {
	switch strings.TrimSpace(raw) {
	case "", "-", "--", "0", "00":
		return true
	}
	return false
}

func normalize(raw string) (string, error) {
	g := strings.ToUpper(strings.TrimSpace(raw))
	if len(g) < 1 || len(g) > 2 {
		return "", fmt.Errorf("invalid genotype %q", raw)
	}
	for _, r := range g {
		switch r {
		case 'A', 'C', 'G', 'T', 'D', 'I':
		default:
			return "", fmt.Errorf("invalid allele %q in genotype %q", r, raw)
		}
	}
	return Canonical(g), nil
}

// Canonical returns the genotype with its alleles upper-cased and sorted,
// so that "TA", "at" and "AT" compare equal.
func Canonical(g string) string {
	b := []byte(strings.ToUpper(strings.TrimSpace(g)))
	sort.Slice(b, func(i, j int) bool { return b[i] < b[j] })
	return string(b)
}
