// Package manifest exports a Site as the JSON document the front end reads.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dotcommander/sitecms/internal/content"
)

// Renderer converts a Markdown body to HTML.
type Renderer interface {
	Render(body string) (string, error)
}

// Manifest is the presentation-neutral form of a Site.
type Manifest struct {
	Version     string            `json:"version"`
	GeneratedAt time.Time         `json:"generated_at"`
	Settings    map[string]string `json:"settings"`
	Pages       map[string]Page   `json:"pages"`
	Values      []Value           `json:"values"`
	News        []News            `json:"news"`
}

// Page is a page's fields and rendered body.
type Page struct {
	Fields   map[string]string   `json:"fields"`
	Lists    map[string][]string `json:"lists,omitempty"`
	BodyHTML string              `json:"body_html"`
}

// Value is one card of the values grid.
type Value struct {
	Slug        string `json:"slug"`
	Title       string `json:"titre"`
	Icon        string `json:"icone"`
	Description string `json:"description"`
	Order       int    `json:"ordre,omitempty"`
	BodyHTML    string `json:"body_html,omitempty"`
}

// News is one news item. Date is YYYY-MM-DD, or empty when the source had
// no usable date.
type News struct {
	Slug     string `json:"slug"`
	Title    string `json:"titre"`
	Date     string `json:"date,omitempty"`
	Summary  string `json:"resume,omitempty"`
	BodyHTML string `json:"body_html,omitempty"`
}

// Build converts site, rendering every body with r. Slices are never nil so
// the JSON always carries arrays.
func Build(site *content.Site, r Renderer) (*Manifest, error) {
	m := &Manifest{
		Version:     site.Version,
		GeneratedAt: site.LoadedAt.UTC(),
		Settings:    site.Settings,
		Pages:       make(map[string]Page, len(site.Pages)),
		Values:      make([]Value, 0, len(site.Values)),
		News:        make([]News, 0, len(site.News)),
	}
	if m.Settings == nil {
		m.Settings = map[string]string{}
	}

	for slug, p := range site.Pages {
		html, err := r.Render(p.Body)
		if err != nil {
			return nil, fmt.Errorf("page %s: %w", p.Path, err)
		}
		fields := p.Fields
		if fields == nil {
			fields = map[string]string{}
		}
		m.Pages[slug] = Page{Fields: fields, Lists: p.Lists, BodyHTML: html}
	}

	for _, v := range site.Values {
		html, err := r.Render(v.Body)
		if err != nil {
			return nil, fmt.Errorf("value %s: %w", v.Path, err)
		}
		m.Values = append(m.Values, Value{
			Slug:        v.Slug,
			Title:       v.Title,
			Icon:        v.Icon,
			Description: v.Description,
			Order:       v.Order,
			BodyHTML:    html,
		})
	}

	for _, n := range site.News {
		html, err := r.Render(n.Body)
		if err != nil {
			return nil, fmt.Errorf("news %s: %w", n.Path, err)
		}
		item := News{Slug: n.Slug, Title: n.Title, Summary: n.Summary, BodyHTML: html}
		if !n.Date.IsZero() {
			item.Date = n.Date.Format("2006-01-02")
		}
		m.News = append(m.News, item)
	}

	return m, nil
}

// JSON returns the indented encoding of m.
func (m *Manifest) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// Write stores m at path. Readers see either the old file or the new one,
// never a partial write.
func (m *Manifest) Write(path string) error {
	data, err := m.JSON()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := writeFileAtomic(path, data, 0644); err != nil {
		return fmt.Errorf("write manifest %s: %w", path, err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
