// Package content assembles the site's documents into a Site.
//
// A Site is built fresh by each Load and handed to its consumers. Nothing in
// this package keeps content between calls.
package content

import (
	"strconv"
	"time"
)

// Default settings, used when data/settings is missing or incomplete.
var DefaultSettings = map[string]string{
	"site_title":       "La Nouvelle Voie",
	"site_subtitle":    "Ensemble, construisons l'avenir de notre société",
	"site_description": "Site officiel de La Nouvelle Voie",
	"contact_email":    "contact@lanouvellevoie.fr",
}

const (
	defaultValueIcon  = "📋"
	defaultValueTitle = "Valeur"
)

// Entry is one parsed content file.
type Entry struct {
	Slug    string              `json:"slug"`
	Path    string              `json:"path"`
	Fields  map[string]string   `json:"fields"`
	Lists   map[string][]string `json:"lists,omitempty"`
	Body    string              `json:"body,omitempty"`
	ModTime time.Time           `json:"mod_time"`
}

// Field returns the named field, or "".
func (e *Entry) Field(name string) string {
	return e.Fields[name]
}

// FieldOr returns the named field, or fallback when it is missing or empty.
func (e *Entry) FieldOr(name, fallback string) string {
	if v := e.Fields[name]; v != "" {
		return v
	}
	return fallback
}

// Page is a file under content/pages, addressed by slug.
type Page struct {
	Entry
}

// Value is one card of the values grid.
type Value struct {
	Entry
	Title       string `json:"titre"`
	Icon        string `json:"icone"`
	Description string `json:"description"`
	Order       int    `json:"ordre,omitempty"`
	hasOrder    bool
}

// News is one news item.
type News struct {
	Entry
	Title   string    `json:"titre"`
	Date    time.Time `json:"date"`
	Summary string    `json:"resume,omitempty"`
}

// Site is everything the front end displays.
type Site struct {
	Settings map[string]string `json:"settings"`
	Pages    map[string]*Page  `json:"pages"`
	Values   []Value           `json:"values"`
	News     []News            `json:"news"`
	// Version identifies the content; it changes iff a file changed.
	Version  string    `json:"version"`
	LoadedAt time.Time `json:"loaded_at"`
	Files    int       `json:"files"`
}

// Page returns the page with the given slug, or nil.
func (s *Site) Page(slug string) *Page {
	return s.Pages[slug]
}

// Setting returns a setting value, or "".
func (s *Site) Setting(name string) string {
	return s.Settings[name]
}

func newValue(e Entry) Value {
	v := Value{
		Entry:       e,
		Title:       e.FieldOr("titre", defaultValueTitle),
		Icon:        e.FieldOr("icone", defaultValueIcon),
		Description: e.Field("description"),
	}
	if n, err := strconv.Atoi(e.Field("ordre")); err == nil {
		v.Order = n
		v.hasOrder = true
	}
	return v
}

func newNews(e Entry) News {
	n := News{
		Entry:   e,
		Title:   e.Field("titre"),
		Summary: e.FieldOr("resume", e.Field("description")),
	}
	if d, ok := ParseDate(e.Field("date")); ok {
		n.Date = d
	}
	return n
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"02/01/2006",
}

// ParseDate reads the date formats the admin UI and hand editing produce.
// French day-first dates are accepted.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
