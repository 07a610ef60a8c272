// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the genocode pipeline:
// imported genotype calls, trait studies, linked articles, and reports.
package types

import "time"

// RawFormat identifies the layout of a direct-to-consumer raw data file.
type RawFormat string

const (
	// Format23andMe is tab separated: rsid, chromosome, position, genotype.
	Format23andMe RawFormat = "23andme"

	// FormatAncestry is tab separated with a header row: rsid, chromosome,
	// position, allele1, allele2.
	FormatAncestry RawFormat = "ancestry"
)

// Call is a single SNP genotype call read from a raw data file.
type Call struct {
	// RSID is the dbSNP reference identifier (e.g. "rs9939609").
	RSID string `json:"rsid" yaml:"rsid"`

	// Chromosome is the chromosome label as written in the file ("1".."22", "X", "Y", "MT").
	Chromosome string `json:"chromosome" yaml:"chromosome"`

	// Position is the base-pair coordinate on the reference build.
	Position uint32 `json:"position" yaml:"position"`

	// Genotype holds the called alleles in canonical (sorted, upper-case) order.
	Genotype string `json:"genotype" yaml:"genotype"`
}

// LineError records a line of a raw file that could not be parsed.
type LineError struct {
	Line   int    `json:"line" yaml:"line"`
	Reason string `json:"reason" yaml:"reason"`
}

// GenotypeFile is the parsed content of a raw data file.
type GenotypeFile struct {
	// Format is the detected file layout.
	Format RawFormat `json:"format" yaml:"format"`

	// Calls maps rsid to its call. No-calls are excluded.
	Calls map[string]Call `json:"calls" yaml:"calls"`

	// Total is the number of data lines read (excluding comments and header).
	Total int `json:"total" yaml:"total"`

	// NoCalls counts lines whose genotype was "--", "00" or empty.
	NoCalls int `json:"no_calls" yaml:"no_calls"`

	// Malformed lists lines that could not be parsed.
	Malformed []LineError `json:"malformed,omitempty" yaml:"malformed,omitempty"`
}

// Upload records a stored import for a subject.
type Upload struct {
	// ID is the upload identifier (UUID).
	ID string `json:"id" yaml:"id"`

	// Subject is the pseudonymous subject key.
	Subject string `json:"subject" yaml:"subject"`

	// Format is the raw file layout.
	Format RawFormat `json:"format" yaml:"format"`

	// Calls is the number of stored calls.
	Calls int `json:"calls" yaml:"calls"`

	// ArchiveKey locates the raw file in the archive, if archived.
	ArchiveKey string `json:"archive_key,omitempty" yaml:"archive_key,omitempty"`

	// CreatedAt is when the upload was stored.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Consent records a subject's agreement to data storage.
type Consent struct {
	Subject   string     `json:"subject" yaml:"subject"`
	Version   string     `json:"version" yaml:"version"`
	GrantedAt time.Time  `json:"granted_at" yaml:"granted_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty" yaml:"revoked_at,omitempty"`
}

// Active reports whether the consent has not been revoked.
func (c Consent) Active() bool {
	return c.RevokedAt == nil
}
