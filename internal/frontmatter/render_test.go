package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name  string
		doc   Document
		order []string
		want  string
	}{
		{
			name: "priority_then_alphabetical",
			doc: Document{
				Fields: map[string]string{"role": "B", "titre": "A", "icone": "C", "nom": "D"},
				Body:   "Corps",
			},
			order: []string{"titre", "nom"},
			want:  "---\ntitre: A\nnom: D\nicone: C\nrole: B\n---\n\nCorps\n",
		},
		{
			name: "no_body",
			doc:  Document{Fields: map[string]string{"titre": "A"}},
			want: "---\ntitre: A\n---\n",
		},
		{
			name: "no_fields_plain_body",
			doc:  Document{Fields: map[string]string{}, Body: "  Corps  "},
			want: "Corps\n",
		},
		{
			name: "empty_document",
			doc:  Document{},
			want: "",
		},
		{
			name: "body_starting_with_delimiter_keeps_empty_block",
			doc:  Document{Body: "---\nCorps"},
			want: "---\n---\n\n---\nCorps\n",
		},
		{
			name: "quoting",
			doc: Document{Fields: map[string]string{
				"a": `"déjà cité"`,
				"b": "'simple'",
				"c": "| bloc",
				"d": " espaces ",
				"e": "",
				"f": "https://x.fr/a:b",
			}},
			want: "---\na: '\"déjà cité\"'\nb: \"'simple'\"\nc: \"| bloc\"\nd: \" espaces \"\ne: \"\"\nf: https://x.fr/a:b\n---\n",
		},
		{
			name: "newlines_flattened",
			doc:  Document{Fields: map[string]string{"a": "un\ndeux"}},
			want: "---\na: un deux\n---\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.doc, tt.order))
		})
	}
}

func TestRenderRoundTrip(t *testing.T) {
	docs := []Document{
		{Fields: map[string]string{"titre": "Accueil", "sous_titre": "Ensemble"}, Body: "# Bonjour"},
		{Fields: map[string]string{"url": "https://example.com/a:b", "heure": "10:30"}},
		{Fields: map[string]string{"citation": `"Liberté"`, "apostrophe": "'ok'", "mixte": `"a'`}},
		{Fields: map[string]string{"marqueur": "| pas un bloc", "vide": "", "bord": "  marge  "}},
		{Fields: map[string]string{"titre": "Écologie", "icone": "🌱"}, Body: "Texte\n---\nsuite"},
		{Fields: map[string]string{}, Body: "---\nressemble à un bloc\n---"},
		{Fields: map[string]string{}, Body: ""},
	}

	for _, doc := range docs {
		text := Render(doc, []string{"titre"})
		got := Parse(text)
		assert.Equal(t, doc.Fields, got.Fields, "rendered %q", text)
		assert.Equal(t, doc.Body, got.Body, "rendered %q", text)
	}
}

func TestRenderParseStable(t *testing.T) {
	input := "---\n\ntitre:   \"Accueil\"\nx: 1\nx: 2\nurl: http://a:b\n---\n\n\nCorps\n\n"
	first := Render(Parse(input), nil)
	second := Render(Parse(first), nil)
	assert.Equal(t, first, second)
	assert.Equal(t, "---\ntitre: Accueil\nurl: http://a:b\nx: 2\n---\n\nCorps\n", first)
}
