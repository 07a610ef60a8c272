// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets reads credentials from a directory of plain-text files,
// one secret per file: the file name is the key and the trimmed contents
// are the value. Secrets fill configuration fields left empty by the
// config file and environment.
package secrets

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/genocode/pkg/types"
)

// DefaultDir is where the CLI looks for secrets.
const DefaultDir = ".secrets"

// Recognized key files.
const (
	KeySemanticScholar = "semantic-scholar-api-key"
	KeyOpenAlexEmail   = "openalex-email"
	KeyPseudonymSalt   = "pseudonym-salt"
)

// Load reads every regular, non-hidden file in dir. A missing directory
// yields an empty map. Files that cannot be read are reported on warn and
// skipped.
func Load(dir string, warn io.Writer) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	out := make(map[string]string, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(warn, "warning: skipping secret %s: %v\n", name, err)
			continue
		}
		if v := strings.TrimSpace(string(data)); v != "" {
			out[name] = v
		}
	}
	return out, nil
}

// Apply copies secrets into cfg fields that are still empty and returns
// the keys it used, sorted.
func Apply(cfg *types.Config, s map[string]string) []string {
	var used []string
	set := func(dst *string, key string) {
		if v, ok := s[key]; ok && *dst == "" {
			*dst = v
			used = append(used, key)
		}
	}
	set(&cfg.Literature.SemanticScholarAPIKey, KeySemanticScholar)
	set(&cfg.Literature.OpenAlexEmail, KeyOpenAlexEmail)
	set(&cfg.Store.PseudonymSalt, KeyPseudonymSalt)
	sort.Strings(used)
	return used
}
