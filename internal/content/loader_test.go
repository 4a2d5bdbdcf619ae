package content

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/sitecms/internal/discovery"
)

func writeSite(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, body := range files {
		full := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(body), 0644))
	}
	return root
}

func fixtureSite() map[string]string {
	return map[string]string{
		"data/settings/general.yml": "# réglages\nsite_title: \"La Nouvelle Voie\"\ncontact_email: bonjour@lnv.fr\n",
		"content/pages/accueil.md": `---
titre: Bienvenue
sous_titre: "Ensemble, construisons l'avenir"
bouton_principal: Nous rejoindre
---
Texte d'accueil.`,
		"content/pages/defendons.md": `---
titre: Ce que nous défendons
points:
  - La solidarité
  - L'école publique
---
`,
		"content/pages/editorial.md":      "Éditorial **sans** champs.",
		"content/valeurs/solidarite.md":   "---\ntitre: Solidarité\nicone: 🤝\nordre: 2\n---\n",
		"content/valeurs/ecologie.md":     "---\ntitre: Écologie\nordre: 1\ndescription: Protéger\n---\n",
		"content/valeurs/justice.md":      "---\ntitre: Justice\n---\n",
		"content/valeurs/brouillon.md":    "---\ndescription: pas de titre\n---\n",
		"content/actualites/ancienne.md":  "---\ntitre: Ancienne\ndate: 2023-05-01\n---\nVieux.",
		"content/actualites/recente.md":   "---\ntitre: Récente\ndate: 2024-02-10\nresume: Court\n---\nNeuf.",
		"content/actualites/sans-date.md": "---\ntitre: Sans date\n---\n",
	}
}

func TestLoad(t *testing.T) {
	root := writeSite(t, fixtureSite())
	loader := NewLoader(discovery.New(root, false), zerolog.Nop())

	site, err := loader.Load(context.Background())
	require.NoError(t, err)

	t.Run("settings_merge_over_defaults", func(t *testing.T) {
		assert.Equal(t, "La Nouvelle Voie", site.Setting("site_title"))
		assert.Equal(t, "bonjour@lnv.fr", site.Setting("contact_email"))
		assert.Equal(t, DefaultSettings["site_description"], site.Setting("site_description"))
	})

	t.Run("pages_by_slug", func(t *testing.T) {
		require.Len(t, site.Pages, 3)
		accueil := site.Page("accueil")
		require.NotNil(t, accueil)
		assert.Equal(t, "Bienvenue", accueil.Field("titre"))
		assert.Equal(t, "Ensemble, construisons l'avenir", accueil.Field("sous_titre"))
		assert.Equal(t, "Texte d'accueil.", accueil.Body)
		assert.Equal(t, "content/pages/accueil.md", accueil.Path)

		editorial := site.Page("editorial")
		require.NotNil(t, editorial)
		assert.Empty(t, editorial.Fields)
		assert.Equal(t, "Éditorial **sans** champs.", editorial.Body)

		assert.Nil(t, site.Page("absent"))
	})

	t.Run("list_fields_decoded", func(t *testing.T) {
		defendons := site.Page("defendons")
		require.NotNil(t, defendons)
		assert.Equal(t, []string{"La solidarité", "L'école publique"}, defendons.Lists["points"])
		assert.Nil(t, site.Page("accueil").Lists)
	})

	t.Run("values_filtered_and_ordered", func(t *testing.T) {
		require.Len(t, site.Values, 3)
		assert.Equal(t, "Écologie", site.Values[0].Title)
		assert.Equal(t, "Solidarité", site.Values[1].Title)
		assert.Equal(t, "Justice", site.Values[2].Title)

		assert.Equal(t, "🤝", site.Values[1].Icon)
		assert.Equal(t, "📋", site.Values[2].Icon)
		assert.Equal(t, "Protéger", site.Values[0].Description)
	})

	t.Run("news_newest_first", func(t *testing.T) {
		require.Len(t, site.News, 3)
		assert.Equal(t, "Récente", site.News[0].Title)
		assert.Equal(t, "Court", site.News[0].Summary)
		assert.Equal(t, "Ancienne", site.News[1].Title)
		assert.Equal(t, "Sans date", site.News[2].Title)
		assert.True(t, site.News[2].Date.IsZero())
	})

	t.Run("metadata", func(t *testing.T) {
		assert.Equal(t, len(fixtureSite()), site.Files)
		assert.Len(t, site.Version, 16)
		assert.False(t, site.LoadedAt.IsZero())
	})
}

func TestLoadEmptySite(t *testing.T) {
	loader := NewLoader(discovery.New(t.TempDir(), false), zerolog.Nop())

	site, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, site.Pages)
	assert.Empty(t, site.Values)
	assert.Empty(t, site.News)
	assert.Equal(t, DefaultSettings, site.Settings)
}

func TestLoadCancelled(t *testing.T) {
	loader := NewLoader(discovery.New(t.TempDir(), false), zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := loader.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

type failingSource struct{}

func (failingSource) Discover() ([]discovery.File, error) {
	return nil, errors.New("disk on fire")
}

func TestLoadDiscoveryError(t *testing.T) {
	_, err := NewLoader(failingSource{}, zerolog.Nop()).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestBuildDoesNotShareState(t *testing.T) {
	loader := NewLoader(failingSource{}, zerolog.Nop())
	files := []discovery.File{{RelPath: "data/settings/general.yml", Kind: discovery.KindSettings, Contents: "site_title: A"}}

	first := loader.Build(files)
	first.Settings["site_title"] = "modifié"

	second := loader.Build(files)
	assert.Equal(t, "A", second.Setting("site_title"))
	assert.Equal(t, "La Nouvelle Voie", DefaultSettings["site_title"])
}

func TestBuildInvalidListBlockIsTolerated(t *testing.T) {
	loader := NewLoader(failingSource{}, zerolog.Nop())
	files := []discovery.File{{
		RelPath:  "content/pages/luttons.md",
		Kind:     discovery.KindPage,
		Contents: "---\ntitre: A: B\npoints:\n  - un\n---\nCorps",
	}}

	site := loader.Build(files)
	page := site.Page("luttons")
	require.NotNil(t, page)
	assert.Equal(t, "A: B", page.Field("titre"))
	assert.Nil(t, page.Lists)
	assert.Equal(t, "Corps", page.Body)
}

func TestVersion(t *testing.T) {
	a := []discovery.File{
		{RelPath: "content/pages/a.md", Contents: "A"},
		{RelPath: "content/pages/b.md", Contents: "B"},
	}
	reordered := []discovery.File{a[1], a[0]}
	changed := []discovery.File{a[0], {RelPath: "content/pages/b.md", Contents: "B2"}}
	moved := []discovery.File{{RelPath: "content/pages/a.md", Contents: "AB"}}

	assert.Equal(t, Version(a), Version(reordered))
	assert.NotEqual(t, Version(a), Version(changed))
	assert.NotEqual(t, Version(a), Version(moved))
	assert.Len(t, Version(nil), 16)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "accueil", Slug("content/pages/accueil.md"))
	assert.Equal(t, "general", Slug("data/settings/general.yml"))
	assert.Equal(t, "sans-extension", Slug("sans-extension"))
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
		ok    bool
	}{
		{"2024-02-10", time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), true},
		{"2024-02-10T08:30:00Z", time.Date(2024, 2, 10, 8, 30, 0, 0, time.UTC), true},
		{"2024-02-10 08:30", time.Date(2024, 2, 10, 8, 30, 0, 0, time.UTC), true},
		{"10/02/2024", time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), true},
		{"demain", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestEntryFieldOr(t *testing.T) {
	e := Entry{Fields: map[string]string{"titre": "A", "vide": ""}}
	assert.Equal(t, "A", e.FieldOr("titre", "x"))
	assert.Equal(t, "x", e.FieldOr("vide", "x"))
	assert.Equal(t, "x", e.FieldOr("absent", "x"))
}
