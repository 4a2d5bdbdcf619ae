package discovery

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrUnknownKind is returned when a path matches no content layout.
var ErrUnknownKind = errors.New("cannot determine content kind")

// Kind categorizes content files
type Kind int

const (
	KindUnknown Kind = iota
	KindSettings
	KindPage
	KindValue
	KindNews
)

// String returns the human-readable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindSettings:
		return "settings"
	case KindPage:
		return "page"
	case KindValue:
		return "value"
	case KindNews:
		return "news"
	default:
		return "unknown"
	}
}

// ParseKind converts a string to a Kind. English and French directory names
// are accepted, singular or plural.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "settings", "setting", "parametres":
		return KindSettings, nil
	case "page", "pages":
		return KindPage, nil
	case "value", "values", "valeur", "valeurs":
		return KindValue, nil
	case "news", "actualite", "actualites":
		return KindNews, nil
	default:
		return KindUnknown, fmt.Errorf("invalid kind %q: valid kinds are settings, page, value, news", s)
	}
}

// KindEntry defines the discovery patterns for a kind.
type KindEntry struct {
	Kind     Kind
	Patterns []string
}

// DefaultLayout is the content layout of the site. Patterns are relative to
// the site root; the first matching entry wins.
var DefaultLayout = []KindEntry{
	{Kind: KindSettings, Patterns: []string{"data/settings/*.yml", "data/settings/*.yaml"}},
	{Kind: KindPage, Patterns: []string{"content/pages/*.md"}},
	{Kind: KindValue, Patterns: []string{"content/valeurs/**/*.md"}},
	{Kind: KindNews, Patterns: []string{"content/actualites/**/*.md"}},
}

// WatchDirs lists the directories that hold content, relative to the root.
func WatchDirs() []string {
	return []string{"content", "data/settings"}
}

// DetectKind determines the content kind of absPath relative to rootPath.
//
// Layout patterns are tried first; files outside them fall back to matching
// a known directory component. The returned error wraps ErrUnknownKind.
func DetectKind(absPath, rootPath string) (Kind, error) {
	relPath, err := filepath.Rel(rootPath, absPath)
	if err != nil {
		return KindUnknown, fmt.Errorf("cannot compute relative path from %s to %s: %w", rootPath, absPath, err)
	}
	relPath = filepath.ToSlash(relPath)

	if strings.HasPrefix(relPath, "..") {
		return KindUnknown, fmt.Errorf("%w: file is outside site root: %s", ErrUnknownKind, absPath)
	}
	return KindOf(relPath)
}

// KindOf maps a slash-separated, root-relative path to its kind.
func KindOf(relPath string) (Kind, error) {
	for _, entry := range DefaultLayout {
		for _, pattern := range entry.Patterns {
			if matched, err := doublestar.Match(pattern, relPath); err == nil && matched {
				return entry.Kind, nil
			}
		}
	}

	if kind := kindFromComponents(relPath); kind != KindUnknown {
		return kind, nil
	}

	switch strings.ToLower(filepath.Ext(relPath)) {
	case ".md":
		return KindUnknown, fmt.Errorf(
			"%w: %s is a .md file but not in content/pages/, content/valeurs/ or content/actualites/. "+
				"Use --kind to specify (page, value, news)", ErrUnknownKind, relPath)
	case ".yml", ".yaml":
		return KindUnknown, fmt.Errorf(
			"%w: %s is a YAML file but not in data/settings/. Use --kind settings", ErrUnknownKind, relPath)
	default:
		return KindUnknown, fmt.Errorf(
			"%w: unsupported file %s. sitecms reads .md, .yml and .yaml files only", ErrUnknownKind, relPath)
	}
}

// kindFromComponents matches path components, so that a file checked out of
// its usual tree (for example a draft copy) is still recognized.
func kindFromComponents(relPath string) Kind {
	lower := strings.ToLower(relPath)
	ext := filepath.Ext(lower)
	switch {
	case (ext == ".yml" || ext == ".yaml") && hasPathComponent(lower, "settings"):
		return KindSettings
	case ext != ".md":
		return KindUnknown
	case hasPathComponent(lower, "valeurs"):
		return KindValue
	case hasPathComponent(lower, "actualites"):
		return KindNews
	case hasPathComponent(lower, "pages"):
		return KindPage
	}
	return KindUnknown
}

// hasPathComponent checks if a path contains a directory component.
// Unlike strings.Contains, this matches on path boundaries so that
// "pages" won't match "old-pages-backup".
func hasPathComponent(path, component string) bool {
	normalized := strings.ReplaceAll(path, "\\", "/")
	for _, part := range strings.Split(normalized, "/") {
		if part == component {
			return true
		}
	}
	return false
}

// ValidateFilePath checks that path names a readable, non-binary file and
// returns its absolute path. Empty files are valid content.
func ValidateFilePath(path string) (absPath string, err error) {
	absPath, err = filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", path, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %s", absPath)
		}
		if os.IsPermission(err) {
			return "", fmt.Errorf("permission denied: %s", absPath)
		}
		return "", fmt.Errorf("cannot access file: %s: %w", absPath, err)
	}

	if info.IsDir() {
		return "", fmt.Errorf("path is a directory, not a file: %s", absPath)
	}

	if info.Size() == 0 {
		return absPath, nil
	}

	f, err := os.Open(absPath)
	if err != nil {
		return "", fmt.Errorf("cannot read file: %s: %w", absPath, err)
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil {
		return "", fmt.Errorf("cannot read file: %s: %w", absPath, err)
	}

	if bytes.Contains(buf[:n], []byte{0}) {
		return "", fmt.Errorf("file appears to be binary, not text: %s", absPath)
	}

	return absPath, nil
}

// File represents a discovered content file
type File struct {
	Path     string
	RelPath  string
	Size     int64
	ModTime  time.Time
	Kind     Kind
	Contents string
}

// Discovery finds content files under a site root
type Discovery struct {
	rootPath       string
	followSymlinks bool
}

// New creates a Discovery for rootPath
func New(rootPath string, followSymlinks bool) *Discovery {
	return &Discovery{
		rootPath:       rootPath,
		followSymlinks: followSymlinks,
	}
}

// Root returns the site root.
func (d *Discovery) Root() string {
	return d.rootPath
}

// Discover finds every content file of the default layout, sorted by RelPath.
func (d *Discovery) Discover() ([]File, error) {
	return d.DiscoverWithLayout(DefaultLayout)
}

// DiscoverWithLayout finds files using a custom layout. A file matched by
// several entries is reported once, under the first one.
func (d *Discovery) DiscoverWithLayout(layout []KindEntry) ([]File, error) {
	var files []File
	seen := make(map[string]bool)

	for _, entry := range layout {
		discovered, err := d.findByPatterns(entry.Patterns)
		if err != nil {
			return nil, fmt.Errorf("error discovering %s files: %w", entry.Kind, err)
		}
		for _, f := range discovered {
			if seen[f.RelPath] {
				continue
			}
			seen[f.RelPath] = true
			f.Kind = entry.Kind
			files = append(files, f)
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

// Load reads a single file and detects its kind.
func (d *Discovery) Load(absPath string) (File, error) {
	kind, err := DetectKind(absPath, d.rootPath)
	if err != nil {
		return File{}, err
	}
	return d.LoadAs(absPath, kind)
}

// LoadAs reads a single file with an explicit kind.
func (d *Discovery) LoadAs(absPath string, kind Kind) (File, error) {
	info, err := os.Stat(absPath)
	if err != nil {
		return File{}, fmt.Errorf("cannot access file: %w", err)
	}
	contents, err := os.ReadFile(absPath)
	if err != nil {
		return File{}, fmt.Errorf("cannot read file: %w", err)
	}

	relPath, err := filepath.Rel(d.rootPath, absPath)
	if err != nil || strings.HasPrefix(relPath, "..") {
		relPath = filepath.Base(absPath)
	}

	return File{
		Path:     absPath,
		RelPath:  filepath.ToSlash(relPath),
		Size:     info.Size(),
		ModTime:  info.ModTime(),
		Kind:     kind,
		Contents: string(contents),
	}, nil
}

func (d *Discovery) findByPatterns(patterns []string) ([]File, error) {
	var files []File
	fsys := os.DirFS(d.rootPath)

	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("error evaluating pattern %s: %w", pattern, err)
		}

		for _, match := range matches {
			if f, ok := d.processMatch(match); ok {
				files = append(files, f)
			}
		}
	}

	return files, nil
}

// processMatch converts a glob match into a File, returning false if the
// match should be skipped.
func (d *Discovery) processMatch(match string) (File, bool) {
	fullPath := filepath.Join(d.rootPath, match)

	linfo, err := os.Lstat(fullPath)
	if err != nil {
		return File{}, false
	}

	readPath := fullPath
	if linfo.Mode()&os.ModeSymlink != 0 {
		resolved, ok := d.resolveSymlink(fullPath)
		if !ok {
			return File{}, false
		}
		readPath = resolved
	}

	info, err := os.Stat(readPath)
	if err != nil || info.IsDir() {
		return File{}, false
	}

	contents, err := os.ReadFile(readPath)
	if err != nil {
		return File{}, false
	}

	return File{
		Path:     fullPath,
		RelPath:  filepath.ToSlash(match),
		Size:     info.Size(),
		ModTime:  info.ModTime(),
		Contents: string(contents),
	}, true
}

// resolveSymlink follows a symlink if configured. Targets outside the root
// are skipped.
func (d *Discovery) resolveSymlink(fullPath string) (string, bool) {
	if !d.followSymlinks {
		return "", false
	}

	realPath, err := filepath.EvalSymlinks(fullPath)
	if err != nil {
		return "", false
	}

	root, err := filepath.EvalSymlinks(d.rootPath)
	if err != nil {
		root = d.rootPath
	}
	if !strings.HasPrefix(realPath, root+string(filepath.Separator)) {
		return "", false
	}

	return realPath, true
}
