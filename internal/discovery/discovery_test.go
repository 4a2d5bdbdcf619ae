package discovery

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates files relative to root.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindSettings, "settings"},
		{KindPage, "page"},
		{KindValue, "value"},
		{KindNews, "news"},
		{KindUnknown, "unknown"},
		{Kind(99), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.String())
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		input   string
		want    Kind
		wantErr bool
	}{
		{"page", KindPage, false},
		{" Pages ", KindPage, false},
		{"valeurs", KindValue, false},
		{"value", KindValue, false},
		{"actualites", KindNews, false},
		{"news", KindNews, false},
		{"settings", KindSettings, false},
		{"agent", KindUnknown, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseKind(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectKind(t *testing.T) {
	root := "/site"
	tests := []struct {
		name    string
		rel     string
		want    Kind
		wantErr bool
	}{
		{"page", "content/pages/accueil.md", KindPage, false},
		{"value", "content/valeurs/solidarite.md", KindValue, false},
		{"nested_value", "content/valeurs/archives/travail.md", KindValue, false},
		{"news", "content/actualites/premiere-actualite.md", KindNews, false},
		{"settings_yml", "data/settings/general.yml", KindSettings, false},
		{"settings_yaml", "data/settings/general.yaml", KindSettings, false},
		{"draft_copy_value", "drafts/valeurs/ecologie.md", KindValue, false},
		{"draft_copy_settings", "backup/settings/general.yml", KindSettings, false},
		{"component_not_substring", "content/old-pages/x.md", KindUnknown, true},
		{"loose_markdown", "README.md", KindUnknown, true},
		{"loose_yaml", "config.yml", KindUnknown, true},
		{"other_extension", "content/pages/accueil.html", KindUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectKind(filepath.Join(root, tt.rel), root)
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnknownKind))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDetectKindOutsideRoot(t *testing.T) {
	_, err := DetectKind("/elsewhere/content/pages/a.md", "/site")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.Contains(t, err.Error(), "outside site root")
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"content/pages/accueil.md":                 "---\ntitre: Accueil\n---\n",
		"content/pages/profil.md":                  "---\nnom: Jean\n---\n",
		"content/valeurs/solidarite.md":            "---\ntitre: Solidarité\n---\n",
		"content/valeurs/ecologie.md":              "---\ntitre: Écologie\n---\n",
		"content/actualites/premiere-actualite.md": "---\ntitre: Première\n---\n",
		"data/settings/general.yml":                "site_title: LNV\n",
		"content/pages/notes.txt":                  "ignored",
		"README.md":                                "ignored",
	})

	files, err := New(root, false).Discover()
	require.NoError(t, err)

	var rels []string
	kinds := map[string]Kind{}
	for _, f := range files {
		rels = append(rels, f.RelPath)
		kinds[f.RelPath] = f.Kind
		assert.Equal(t, filepath.Join(root, f.RelPath), f.Path)
		assert.Equal(t, int64(len(f.Contents)), f.Size)
		assert.False(t, f.ModTime.IsZero())
	}

	assert.Equal(t, []string{
		"content/actualites/premiere-actualite.md",
		"content/pages/accueil.md",
		"content/pages/profil.md",
		"content/valeurs/ecologie.md",
		"content/valeurs/solidarite.md",
		"data/settings/general.yml",
	}, rels)
	assert.Equal(t, KindNews, kinds["content/actualites/premiere-actualite.md"])
	assert.Equal(t, KindPage, kinds["content/pages/accueil.md"])
	assert.Equal(t, KindValue, kinds["content/valeurs/ecologie.md"])
	assert.Equal(t, KindSettings, kinds["data/settings/general.yml"])
}

func TestDiscoverEmptyRoot(t *testing.T) {
	files, err := New(t.TempDir(), false).Discover()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiscoverWithLayoutDeduplicates(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"content/pages/a.md": "x"})

	layout := []KindEntry{
		{Kind: KindPage, Patterns: []string{"content/pages/*.md"}},
		{Kind: KindNews, Patterns: []string{"content/**/*.md"}},
	}
	files, err := New(root, false).DiscoverWithLayout(layout)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, KindPage, files[0].Kind)
}

func TestDiscoverSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require elevated privileges on windows")
	}
	root := t.TempDir()
	outside := t.TempDir()
	writeTree(t, root, map[string]string{"content/pages/real.md": "---\ntitre: R\n---\n"})
	writeTree(t, outside, map[string]string{"external.md": "---\ntitre: E\n---\n"})

	require.NoError(t, os.Symlink(filepath.Join(root, "content/pages/real.md"), filepath.Join(root, "content/pages/alias.md")))
	require.NoError(t, os.Symlink(filepath.Join(outside, "external.md"), filepath.Join(root, "content/pages/external.md")))

	files, err := New(root, false).Discover()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "content/pages/real.md", files[0].RelPath)

	files, err = New(root, true).Discover()
	require.NoError(t, err)
	var rels []string
	for _, f := range files {
		rels = append(rels, f.RelPath)
	}
	assert.Equal(t, []string{"content/pages/alias.md", "content/pages/real.md"}, rels)
}

func TestLoad(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"content/valeurs/justice.md": "---\ntitre: Justice\n---\n"})
	d := New(root, false)

	f, err := d.Load(filepath.Join(root, "content/valeurs/justice.md"))
	require.NoError(t, err)
	assert.Equal(t, KindValue, f.Kind)
	assert.Equal(t, "content/valeurs/justice.md", f.RelPath)
	assert.Contains(t, f.Contents, "Justice")

	_, err = d.Load(filepath.Join(root, "missing.md"))
	assert.Error(t, err)
}

func TestValidateFilePath(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"ok.md":    "---\ntitre: A\n---\n",
		"empty.md": "",
	})
	require.NoError(t, os.WriteFile(filepath.Join(root, "binary.md"), []byte{'a', 0, 'b'}, 0644))

	_, err := ValidateFilePath(filepath.Join(root, "ok.md"))
	assert.NoError(t, err)

	_, err = ValidateFilePath(filepath.Join(root, "empty.md"))
	assert.NoError(t, err)

	_, err = ValidateFilePath(filepath.Join(root, "binary.md"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "binary")

	_, err = ValidateFilePath(filepath.Join(root, "nope.md"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")

	_, err = ValidateFilePath(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory")
}
