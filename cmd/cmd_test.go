package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// result captures one command invocation.
type result struct {
	stdout   string
	stderr   string
	exitCode int
}

// execute runs the root command with args and fresh flag values. exitCode is
// -1 when the command did not exit.
func execute(t *testing.T, args ...string) result {
	t.Helper()
	return executeContext(context.Background(), t, args...)
}

func executeContext(ctx context.Context, t *testing.T, args ...string) result {
	t.Helper()
	resetFlags(rootCmd)

	res := result{exitCode: -1}
	originalExit := exitFunc
	exitFunc = func(code int) {
		if res.exitCode == -1 {
			res.exitCode = code
		}
	}
	defer func() { exitFunc = originalExit }()

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil && res.exitCode == -1 {
		res.exitCode = 1
	}
	res.stdout, res.stderr = stdout.String(), stderr.String()
	return res
}

// resetFlags restores every flag of c and its subcommands to its default and
// drops the context left by the previous execution.
func resetFlags(c *cobra.Command) {
	c.SetContext(nil)
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func writeSite(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, body := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(body), 0644))
	}
	return root
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// cleanSite has no findings at any level.
func cleanSite() map[string]string {
	return map[string]string{
		"data/settings/general.yml":       "site_title: La Nouvelle Voie\ncontact_email: contact@lnv.fr\n",
		"content/pages/accueil.md":        "---\ntitre: Bienvenue\n---\n\nTexte d'accueil.\n",
		"content/pages/profil.md":         "---\nnom: Jeanne\n---\n\nBiographie.\n",
		"content/valeurs/solidarite.md":   "---\ntitre: Solidarité\nicone: 🤝\ndescription: Ensemble\nordre: 1\n---\n",
		"content/actualites/lancement.md": "---\ntitre: Lancement\ndate: 2024-02-10\n---\n\nLe site est en ligne.\n",
	}
}

func withFiles(base map[string]string, extra map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
