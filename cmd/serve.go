package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/dotcommander/sitecms/internal/logging"
	"github.com/dotcommander/sitecms/internal/server"
	"github.com/dotcommander/sitecms/internal/watch"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the content API",
	Long: `Serve the content manifest, single pages and the raw content files over
HTTP, with Prometheus metrics on /metrics.

With --watch (the default), edits under content/ and data/settings/ reload
the site. The version clients see changes only when a file really changed.

ROUTES:

  GET /api/content         Manifest (ETag, If-None-Match)
  GET /api/version         Version; ?since=V waits for a change
  GET /api/pages/{slug}    One page
  GET /content/...         Raw content files
  GET /data/...            Raw settings files
  GET /healthz             Liveness
  GET /metrics             Prometheus metrics`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServe(cmd); err != nil {
			fail(cmd, err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "Listen address")
	serveCmd.Flags().Bool("watch", true, "Reload content when files change")
	serveCmd.Flags().Duration("debounce", watch.DefaultDebounce, "Wait this long after the last change before reloading")

	for key, flag := range map[string]string{
		"server.addr":     "addr",
		"server.watch":    "watch",
		"server.debounce": "debounce",
	} {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(flag)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", flag, err))
		}
	}
}

func runServe(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg, "")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(newContentLoader(cfg, log), newRenderer(cfg), server.Options{
		Addr:   cfg.Server.Addr,
		Root:   cfg.Root,
		Logger: logging.Component(log, "server"),
	})
	if _, err := srv.Reload(ctx); err != nil {
		return err
	}

	var w *watch.Watcher
	if cfg.Server.Watch {
		if w, err = watch.New(cfg.Root, nil, cfg.Server.Debounce, logging.Component(log, "watch")); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx) })
	if w != nil {
		g.Go(func() error {
			return w.Run(ctx, func(ctx context.Context, paths []string) {
				changed, err := srv.Reload(ctx)
				if err != nil {
					log.Error().Err(err).Strs("paths", paths).Msg("reload failed, keeping previous content")
					return
				}
				if !changed {
					log.Debug().Strs("paths", paths).Msg("content unchanged")
				}
			})
		})
	}

	return g.Wait()
}
