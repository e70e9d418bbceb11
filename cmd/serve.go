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

	"github.com/codecraftpk/craftsite/internal/archive"
	"github.com/codecraftpk/craftsite/internal/config"
	"github.com/codecraftpk/craftsite/internal/content"
	"github.com/codecraftpk/craftsite/internal/errors"
	"github.com/codecraftpk/craftsite/internal/logging"
	"github.com/codecraftpk/craftsite/internal/logos"
	"github.com/codecraftpk/craftsite/internal/relay"
	"github.com/codecraftpk/craftsite/internal/schedule"
	"github.com/codecraftpk/craftsite/internal/server"
	"github.com/codecraftpk/craftsite/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Serve the site",
	Long: `Serve the site, its live sessions and the contact form fallback until
interrupted.

Examples:
  craftsite serve                          # Serve on localhost:8080
  craftsite serve --port 3000 --watch      # Pick up logo changes without a restart
  craftsite serve --environment production # Strict transport and CSP headers`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "Port to serve on")
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	serveCmd.Flags().String("environment", "development", "Environment (development, production)")
	serveCmd.Flags().String("logo-dir", "assets/logos", "Directory holding client logo images")
	serveCmd.Flags().BoolP("watch", "w", false, "Rescan the logo directory when it changes")

	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.environment", serveCmd.Flags().Lookup("environment"))
	_ = viper.BindPFlag("assets.logo_dir", serveCmd.Flags().Lookup("logo-dir"))
	_ = viper.BindPFlag("assets.watch", serveCmd.Flags().Lookup("watch"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, cleanup, err := buildDeps(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	srv, err := server.New(cfg, deps)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Start(gctx) })

	if cfg.Assets.Watch {
		fw, err := newLogoWatcher(cfg.Assets.LogoDir, srv, logger)
		if err != nil {
			logger.Warn(ctx, err, "Logo directory is not watched", "dir", cfg.Assets.LogoDir)
		} else {
			g.Go(func() error { return fw.Run(gctx) })
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Starting craftsite at http://%s\n", cfg.Server.Addr())

	return g.Wait()
}

// buildDeps assembles the server's collaborators from cfg. The returned
// cleanup closes the archive when one was opened.
func buildDeps(ctx context.Context, cfg *config.Config, logger logging.Logger) (server.Deps, func(), error) {
	site, err := content.Load(cfg.Content.File)
	if err != nil {
		return server.Deps{}, nil, errors.NewEnhancedError("Failed to load site content", err,
			errors.ConfigurationError(err.Error(), &errors.SuggestionContext{ConfigPath: cfg.Content.File}))
	}

	relayClient := relay.NewClient(cfg.Relay, nil, logger)
	logger.Info(ctx, "Email relay configured", "relay", relayClient.Describe())

	deps := server.Deps{
		Site:    site,
		Catalog: logos.NewCatalog(os.DirFS(cfg.Assets.LogoDir), server.LogoURLPrefix, logger),
		Relay:   relayClient,
		Logger:  logger,
	}

	cleanup := func() {}
	if cfg.Archive.Enabled {
		store, err := archive.Open(cfg.Archive.Path)
		if err != nil {
			return server.Deps{}, nil, err
		}
		deps.Recorder = store
		cleanup = func() {
			if err := store.Close(); err != nil {
				logger.Warn(context.Background(), err, "Failed to close submission archive")
			}
		}
	}

	return deps, cleanup, nil
}

// newLogoWatcher watches dir for image changes and feeds them to srv.
func newLogoWatcher(dir string, srv *server.Server, logger logging.Logger) (*watcher.FileWatcher, error) {
	fw, err := watcher.NewFileWatcher(schedule.Real(), watcher.DefaultDebounce, logger)
	if err != nil {
		return nil, err
	}

	fw.AddFilter(watcher.NoHiddenFilter)
	fw.AddFilter(watcher.ImageFilter)
	fw.AddHandler(srv.HandleLogoChanges)

	if err := fw.AddRecursive(dir); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return fw, nil
}
