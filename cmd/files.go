package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dotcommander/sitecms/internal/discovery"
	"github.com/dotcommander/sitecms/internal/gitscope"
)

// selection describes which files a command works on.
type selection struct {
	staged  bool
	changed bool
	kind    string
	paths   []string
}

// collectFiles resolves a selection against root. whole is true when the
// result is the complete site, which enables site-level checks.
func collectFiles(ctx context.Context, sel selection, root string, followSymlinks bool, errOut io.Writer) (files []discovery.File, whole bool, err error) {
	d := discovery.New(root, followSymlinks)

	var forced discovery.Kind
	if sel.kind != "" {
		if forced, err = discovery.ParseKind(sel.kind); err != nil {
			return nil, false, err
		}
	}

	switch {
	case sel.staged || sel.changed:
		if !gitscope.IsGitRepo(ctx, root) {
			return nil, false, fmt.Errorf("not a git repository: %s", root)
		}
		var paths []string
		if sel.staged {
			paths, err = gitscope.StagedFiles(ctx, root)
		} else {
			paths, err = gitscope.ChangedFiles(ctx, root)
		}
		if err != nil {
			return nil, false, err
		}
		return loadFiles(d, paths, forced, errOut), false, nil

	case len(sel.paths) > 0:
		all, err := d.Discover()
		if err != nil {
			return nil, false, err
		}
		var explicit []string
		for _, p := range sel.paths {
			abs, err := filepath.Abs(p)
			if err != nil {
				return nil, false, fmt.Errorf("cannot resolve %s: %w", p, err)
			}
			info, err := os.Stat(abs)
			if err != nil {
				return nil, false, fmt.Errorf("cannot access %s: %w", p, err)
			}
			if !info.IsDir() {
				explicit = append(explicit, abs)
				continue
			}
			for _, f := range all {
				if isUnder(f.Path, abs) {
					files = append(files, f)
				}
			}
		}
		return append(files, loadFiles(d, explicit, forced, errOut)...), false, nil

	default:
		files, err = d.Discover()
		if err != nil {
			return nil, false, err
		}
		return files, true, nil
	}
}

// loadFiles reads each path, reporting and skipping the unreadable ones.
func loadFiles(d *discovery.Discovery, paths []string, forced discovery.Kind, errOut io.Writer) []discovery.File {
	var files []discovery.File
	for _, p := range paths {
		abs, err := discovery.ValidateFilePath(p)
		if err != nil {
			fmt.Fprintf(errOut, "Skipping %s: %v\n", p, err)
			continue
		}
		var f discovery.File
		if forced != discovery.KindUnknown {
			f, err = d.LoadAs(abs, forced)
		} else {
			f, err = d.Load(abs)
		}
		if err != nil {
			fmt.Fprintf(errOut, "Skipping %s: %v\n", p, err)
			continue
		}
		files = append(files, f)
	}
	return files
}

func isUnder(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
