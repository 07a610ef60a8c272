// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/genocode/pkg/types"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  map[string]string
	}{
		{
			name: "trims values",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, KeySemanticScholar, "  sk_xyz789 \n")
				writeFile(t, dir, KeyOpenAlexEmail, "lab@example.org\n")
				return dir
			},
			want: map[string]string{
				KeySemanticScholar: "sk_xyz789",
				KeyOpenAlexEmail:   "lab@example.org",
			},
		},
		{
			name: "missing directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "absent")
			},
			want: map[string]string{},
		},
		{
			name: "skips empty files, dotfiles and directories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, KeyPseudonymSalt, "pepper")
				writeFile(t, dir, "blank", " \n\t")
				writeFile(t, dir, ".gitkeep", "")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
				return dir
			},
			want: map[string]string{KeyPseudonymSalt: "pepper"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.setup(t), &bytes.Buffer{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadWarnsOnUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced for root")
	}
	dir := t.TempDir()
	writeFile(t, dir, KeyOpenAlexEmail, "lab@example.org")
	bad := filepath.Join(dir, KeySemanticScholar)
	require.NoError(t, os.WriteFile(bad, []byte("secret"), 0o000))

	var warn bytes.Buffer
	got, err := Load(dir, &warn)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{KeyOpenAlexEmail: "lab@example.org"}, got)
	assert.Contains(t, warn.String(), KeySemanticScholar)
}

func TestApply(t *testing.T) {
	cfg := types.Config{}
	cfg.Literature.OpenAlexEmail = "configured@example.org"

	used := Apply(&cfg, map[string]string{
		KeySemanticScholar: "sk",
		KeyOpenAlexEmail:   "secret@example.org",
		KeyPseudonymSalt:   "pepper",
		"unrelated":        "x",
	})

	assert.Equal(t, []string{KeyPseudonymSalt, KeySemanticScholar}, used)
	assert.Equal(t, "sk", cfg.Literature.SemanticScholarAPIKey)
	assert.Equal(t, "configured@example.org", cfg.Literature.OpenAlexEmail, "configured values win")
	assert.Equal(t, "pepper", cfg.Store.PseudonymSalt)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
