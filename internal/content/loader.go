package content

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	fm "github.com/adrg/frontmatter"
	"github.com/rs/zerolog"

	"github.com/dotcommander/sitecms/internal/discovery"
	"github.com/dotcommander/sitecms/internal/frontmatter"
)

// Source lists content files. *discovery.Discovery satisfies it.
type Source interface {
	Discover() ([]discovery.File, error)
}

// Loader builds Sites from a Source.
type Loader struct {
	source Source
	log    zerolog.Logger
	now    func() time.Time
}

// NewLoader creates a Loader reading from source.
func NewLoader(source Source, log zerolog.Logger) *Loader {
	return &Loader{source: source, log: log, now: time.Now}
}

// Load discovers and parses every content file. Files that cannot be used
// are logged and skipped; only a discovery failure or cancellation is an
// error.
func (l *Loader) Load(ctx context.Context) (*Site, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	files, err := l.source.Discover()
	if err != nil {
		return nil, fmt.Errorf("discover content: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	site := l.Build(files)
	l.log.Debug().
		Int("files", site.Files).
		Int("pages", len(site.Pages)).
		Int("values", len(site.Values)).
		Int("news", len(site.News)).
		Str("version", site.Version).
		Msg("content loaded")
	return site, nil
}

// Build assembles a Site from already discovered files.
func (l *Loader) Build(files []discovery.File) *Site {
	site := &Site{
		Settings: make(map[string]string, len(DefaultSettings)),
		Pages:    make(map[string]*Page),
		Version:  Version(files),
		LoadedAt: l.now(),
		Files:    len(files),
	}
	for k, v := range DefaultSettings {
		site.Settings[k] = v
	}

	sorted := append([]discovery.File(nil), files...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RelPath < sorted[j].RelPath })

	for _, f := range sorted {
		log := l.log.With().Str("path", f.RelPath).Str("kind", f.Kind.String()).Logger()

		switch f.Kind {
		case discovery.KindSettings:
			for k, v := range frontmatter.ParseFields(f.Contents) {
				site.Settings[k] = v
			}
		case discovery.KindPage:
			e := l.entry(f, log)
			site.Pages[e.Slug] = &Page{Entry: e}
		case discovery.KindValue:
			e := l.entry(f, log)
			if e.Field("titre") == "" {
				log.Debug().Msg("value skipped: no titre")
				continue
			}
			site.Values = append(site.Values, newValue(e))
		case discovery.KindNews:
			e := l.entry(f, log)
			if e.Field("titre") == "" {
				log.Debug().Msg("news skipped: no titre")
				continue
			}
			site.News = append(site.News, newNews(e))
		default:
			log.Warn().Msg("unknown content kind, skipped")
		}
	}

	sortValues(site.Values)
	sortNews(site.News)
	return site
}

func (l *Loader) entry(f discovery.File, log zerolog.Logger) Entry {
	doc := frontmatter.Parse(f.Contents)
	return Entry{
		Slug:    Slug(f.RelPath),
		Path:    f.RelPath,
		Fields:  doc.Fields,
		Lists:   decodeLists(f.Contents, log),
		Body:    doc.Body,
		ModTime: f.ModTime,
	}
}

// decodeLists recovers list-valued fields, which the flat parser cannot
// represent, by decoding the block as YAML.
func decodeLists(raw string, log zerolog.Logger) map[string][]string {
	block, _, found := frontmatter.Split(raw)
	if !found || !mayHoldLists(block) {
		return nil
	}

	var data map[string]any
	src := frontmatter.Delimiter + "\n" + block + "\n" + frontmatter.Delimiter + "\n"
	if _, err := fm.Parse(strings.NewReader(src), &data); err != nil {
		log.Warn().Err(err).Msg("list fields not decoded")
		return nil
	}

	var lists map[string][]string
	for key, value := range data {
		items, ok := value.([]any)
		if !ok {
			continue
		}
		if lists == nil {
			lists = make(map[string][]string)
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			out = append(out, fmt.Sprint(item))
		}
		lists[key] = out
	}
	return lists
}

// mayHoldLists reports whether block has a YAML sequence item or a flow
// sequence value. Other blocks are not decoded, since flat values such as
// unquoted colons are valid here but not in YAML.
func mayHoldLists(block string) bool {
	for _, line := range strings.Split(block, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "-" || strings.HasPrefix(trimmed, "- ") {
			return true
		}
		if _, value, ok := strings.Cut(trimmed, ":"); ok && strings.HasPrefix(strings.TrimSpace(value), "[") {
			return true
		}
	}
	return false
}

// Slug is the file base name without extension.
func Slug(relPath string) string {
	base := path.Base(relPath)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Version hashes every file's path and contents. It is independent of
// discovery order and modification times.
func Version(files []discovery.File) string {
	sorted := append([]discovery.File(nil), files...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RelPath < sorted[j].RelPath })

	h := sha256.New()
	for _, f := range sorted {
		fmt.Fprintf(h, "%s\x00%d\x00", f.RelPath, len(f.Contents))
		h.Write([]byte(f.Contents))
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// sortValues orders values with an ordre field first, by ordre, then the rest
// by path.
func sortValues(values []Value) {
	sort.SliceStable(values, func(i, j int) bool {
		a, b := values[i], values[j]
		if a.hasOrder != b.hasOrder {
			return a.hasOrder
		}
		if a.hasOrder && a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.Path < b.Path
	})
}

// sortNews orders news newest first; undated items go last, by path.
func sortNews(news []News) {
	sort.SliceStable(news, func(i, j int) bool {
		a, b := news[i], news[j]
		if a.Date.IsZero() != b.Date.IsZero() {
			return !a.Date.IsZero()
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.Path < b.Path
	})
}
