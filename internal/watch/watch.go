// Package watch turns file system events under the content directories into
// debounced change notifications.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/dotcommander/sitecms/internal/discovery"
)

// DefaultDebounce is used when New is given a non-positive debounce.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reports changes to files under a set of directories.
type Watcher struct {
	root     string
	dirs     []string
	debounce time.Duration
	log      zerolog.Logger
	fsw      *fsnotify.Watcher
}

// New watches dirs, given relative to root, and their subdirectories. The
// directories need not exist yet. Nil dirs means discovery.WatchDirs.
func New(root string, dirs []string, debounce time.Duration, log zerolog.Logger) (*Watcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if len(dirs) == 0 {
		dirs = discovery.WatchDirs()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		root:     absRoot,
		dirs:     cleanDirs(dirs),
		debounce: debounce,
		log:      log,
		fsw:      fsw,
	}

	// The root is watched so that content directories created later are seen.
	if err := fsw.Add(absRoot); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", absRoot, err)
	}
	for _, top := range w.tops() {
		if _, err := w.addTree(filepath.Join(absRoot, filepath.FromSlash(top))); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Run delivers batches of changed paths, relative to the root, to onChange
// until ctx is cancelled. onChange runs on the Run goroutine. The watcher is
// closed when Run returns.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context, paths []string)) error {
	defer w.fsw.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	var fire <-chan time.Time
	pending := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if rel, ok := w.handle(event); ok {
				pending[rel] = struct{}{}
				timer.Reset(w.debounce)
				fire = timer.C
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("watch error")

		case <-fire:
			fire = nil
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			clear(pending)

			w.log.Debug().Strs("paths", paths).Msg("content changed")
			onChange(ctx, paths)
		}
	}
}

// Close releases the watcher. Run closes it itself.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// handle adds watches for new directories and reports whether the event
// concerns content, with its relative path.
func (w *Watcher) handle(event fsnotify.Event) (string, bool) {
	if event.Op == fsnotify.Chmod {
		return "", false
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	rel = filepath.ToSlash(rel)

	if event.Has(fsnotify.Create) && w.tracks(rel) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			inside, err := w.addTree(event.Name)
			if err != nil {
				w.log.Warn().Err(err).Str("path", rel).Msg("directory not watched")
			}
			// Files written before the watch was added would be missed.
			if inside {
				return rel, true
			}
			return "", false
		}
	}

	if !w.within(rel) {
		return "", false
	}
	if _, err := discovery.KindOf(rel); err != nil && path.Ext(rel) != "" {
		return "", false
	}
	return rel, true
}

// addTree watches dir and its subdirectories and reports whether any of them
// lies inside a watched directory.
func (w *Watcher) addTree(dir string) (bool, error) {
	inside := false
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(w.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !w.tracks(rel) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", rel, err)
		}
		if w.within(rel) {
			inside = true
		}
		return nil
	})
	return inside, err
}

// within reports whether rel is a watched directory or below one.
func (w *Watcher) within(rel string) bool {
	for _, d := range w.dirs {
		if rel == d || strings.HasPrefix(rel, d+"/") {
			return true
		}
	}
	return false
}

// tracks reports whether rel is inside a watched directory or on the way to
// one.
func (w *Watcher) tracks(rel string) bool {
	if w.within(rel) {
		return true
	}
	for _, d := range w.dirs {
		if strings.HasPrefix(d, rel+"/") {
			return true
		}
	}
	return false
}

// tops returns the distinct first components of the watched directories.
func (w *Watcher) tops() []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range w.dirs {
		top, _, _ := strings.Cut(d, "/")
		if !seen[top] {
			seen[top] = true
			out = append(out, top)
		}
	}
	return out
}

func cleanDirs(dirs []string) []string {
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		d = path.Clean(filepath.ToSlash(d))
		if d == "." || d == "" {
			continue
		}
		out = append(out, strings.Trim(d, "/"))
	}
	return out
}
