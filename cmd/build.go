package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dotcommander/sitecms/internal/config"
	"github.com/dotcommander/sitecms/internal/content"
	"github.com/dotcommander/sitecms/internal/discovery"
	"github.com/dotcommander/sitecms/internal/logging"
	"github.com/dotcommander/sitecms/internal/manifest"
	"github.com/dotcommander/sitecms/internal/markdown"
)

// DefaultManifest is where build writes, relative to the site root.
const DefaultManifest = "public/content.json"

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Export the content manifest for the front end",
	Long: `Load every content file, render bodies to HTML and write the JSON manifest
the front end reads. The file is replaced atomically.

The manifest goes to --output, or to public/content.json under the site root.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runBuild(cmd); err != nil {
			fail(cmd, err)
		}
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg, "build")

	loader := newContentLoader(cfg, log)
	site, err := loader.Load(cmd.Context())
	if err != nil {
		return err
	}

	m, err := manifest.Build(site, newRenderer(cfg))
	if err != nil {
		return err
	}

	dest := cfg.Output
	if dest == "" {
		dest = filepath.Join(cfg.Root, filepath.FromSlash(DefaultManifest))
	}
	if err := m.Write(dest); err != nil {
		return err
	}

	if !cfg.Quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (version %s: %d pages, %d values, %d news)\n",
			dest, m.Version, len(m.Pages), len(m.Values), len(m.News))
	}
	return nil
}

func newContentLoader(cfg *config.Config, log zerolog.Logger) *content.Loader {
	return content.NewLoader(discovery.New(cfg.Root, cfg.FollowSymlinks), logging.Component(log, "content"))
}

func newRenderer(cfg *config.Config) *markdown.Renderer {
	return markdown.New(markdown.Options{
		Unsafe:    cfg.Markdown.Unsafe,
		HardWraps: cfg.Markdown.HardWraps,
	})
}
