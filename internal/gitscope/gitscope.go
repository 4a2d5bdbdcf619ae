// Package gitscope selects the content files git reports as staged or
// changed, for checks run from hooks.
package gitscope

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dotcommander/sitecms/internal/discovery"
)

// StagedFiles returns absolute paths of staged content files under root.
// Outside a git repository it returns an empty slice.
func StagedFiles(ctx context.Context, root string) ([]string, error) {
	if !IsGitRepo(ctx, root) {
		return []string{}, nil
	}
	out, err := run(ctx, root, "diff", "--name-only", "--relative", "--staged")
	if err != nil {
		return nil, err
	}
	return filterContentFiles(root, out), nil
}

// ChangedFiles returns absolute paths of content files with uncommitted
// changes, staged or not, including untracked files the CMS just created.
func ChangedFiles(ctx context.Context, root string) ([]string, error) {
	if !IsGitRepo(ctx, root) {
		return []string{}, nil
	}

	var tracked string
	var err error
	if _, headErr := run(ctx, root, "rev-parse", "--verify", "HEAD"); headErr != nil {
		// No commits yet: everything in the index is new.
		tracked, err = run(ctx, root, "ls-files")
	} else {
		tracked, err = run(ctx, root, "diff", "--name-only", "--relative", "HEAD")
	}
	if err != nil {
		return nil, err
	}

	untracked, err := run(ctx, root, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil, err
	}
	return filterContentFiles(root, tracked+"\n"+untracked), nil
}

// IsGitRepo reports whether dir is inside a git work tree.
func IsGitRepo(ctx context.Context, dir string) bool {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = dir
	return cmd.Run() == nil
}

func run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s failed: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// filterContentFiles keeps existing files whose path maps to a content kind.
// Output is sorted and deduplicated.
func filterContentFiles(root, gitOutput string) []string {
	seen := make(map[string]bool)
	files := []string{}
	for _, line := range strings.Split(gitOutput, "\n") {
		rel := strings.TrimSpace(line)
		if rel == "" || seen[rel] {
			continue
		}
		seen[rel] = true

		if !IsContentFile(rel) {
			continue
		}
		abs := filepath.Join(root, filepath.FromSlash(rel))
		// git lists deletions too.
		if _, err := os.Stat(abs); err != nil {
			continue
		}
		files = append(files, abs)
	}
	sort.Strings(files)
	return files
}

// IsContentFile reports whether a root-relative path is a content file.
func IsContentFile(relPath string) bool {
	_, err := discovery.KindOf(filepath.ToSlash(relPath))
	return err == nil
}
