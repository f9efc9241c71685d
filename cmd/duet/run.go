package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"karolbroda.com/duet/internal/artwork"
	"karolbroda.com/duet/internal/cache"
	"karolbroda.com/duet/internal/config"
	"karolbroda.com/duet/internal/logging"
	"karolbroda.com/duet/internal/lyrics"
	"karolbroda.com/duet/internal/player"
	"karolbroda.com/duet/internal/session"
	"karolbroda.com/duet/internal/settings"
	"karolbroda.com/duet/internal/terminal"
	"karolbroda.com/duet/internal/ui"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "start the interactive lyrics viewer",
	Long:  `starts the terminal lyrics viewer following the configured mpris player.`,
	RunE:  runViewer,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// viewerOptions is the dependency graph of the viewer for cfg.
func viewerOptions(cfg *config.Config) fx.Option {
	return fx.Options(
		fx.Supply(cfg),
		fx.Provide(
			newLogger,
			newBus,
			newPlayer,
			newCache,
			newLyricsClient,
			newSettings,
			newCapabilities,
			newModel,
			newProgram,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
	)
}

func runViewer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var (
		program *tea.Program
		caps    *terminal.Capabilities
	)
	app := fx.New(viewerOptions(cfg), fx.Populate(&program, &caps))
	if err := app.Err(); err != nil {
		return fmt.Errorf("failed to set up viewer: %w", err)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("failed to start viewer: %w", err)
	}

	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
		defer cancel()
		_ = app.Stop(stopCtx)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()
	go func() {
		<-ctx.Done()
		program.Quit()
	}()

	_, err = program.Run()

	if caps.KittyGraphics {
		fmt.Fprint(os.Stdout, terminal.DeleteKittyImages())
	}
	terminal.Reset(os.Stdout)

	if err != nil {
		return fmt.Errorf("error running bubble tea: %w", err)
	}
	return nil
}

func newLogger(lc fx.Lifecycle, cfg *config.Config) (*zap.Logger, error) {
	log, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(func() {
		_ = log.Sync()
	}))
	return log, nil
}

func newBus(lc fx.Lifecycle) (player.Bus, error) {
	bus, err := player.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	lc.Append(fx.StopHook(bus.Close))
	return bus, nil
}

func newPlayer(lc fx.Lifecycle, bus player.Bus, cfg *config.Config, log *zap.Logger) (*player.Service, error) {
	svc, err := player.NewService(bus, player.ServiceName(cfg.MprisService), log.Named("player"))
	if err != nil {
		return nil, fmt.Errorf("failed to create player service: %w", err)
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			// polling still works without signals, only seeks are noticed later
			if err := svc.Start(); err != nil {
				log.Warn("could not subscribe to player signals", zap.Error(err))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			svc.Stop()
			return nil
		},
	})
	return svc, nil
}

func newCache(cfg *config.Config, log *zap.Logger) (*cache.DiskCache, error) {
	dir := cfg.CacheDir
	if dir == "" {
		var err error
		if dir, err = cache.DefaultDir(); err != nil {
			log.Warn("no cache directory, caching in memory only", zap.Error(err))
		}
	}
	return cache.New(dir, cache.DefaultTTL, log.Named("cache"))
}

func newLyricsClient(cfg *config.Config, c *cache.DiskCache, log *zap.Logger) *lyrics.Client {
	return lyrics.NewClient(lyrics.ClientConfig{
		BaseURL: cfg.LrclibURL,
		Cache:   c,
		NoCache: noCache,
		Logger:  log.Named("lyrics"),
	})
}

func newSettings(cfg *config.Config, log *zap.Logger) (*settings.File, error) {
	path := cfg.SettingsPath
	if path == "" {
		var err error
		if path, err = settings.DefaultPath(); err != nil {
			log.Warn("no settings location, preferences will not persist", zap.Error(err))
		}
	}
	return settings.Open(path, log.Named("settings"))
}

func newCapabilities() *terminal.Capabilities {
	return terminal.DetectCapabilities(os.Getenv)
}

type modelParams struct {
	fx.In

	Config   *config.Config
	Logger   *zap.Logger
	Player   *player.Service
	Lyrics   *lyrics.Client
	Cache    *cache.DiskCache
	Settings *settings.File
	Caps     *terminal.Capabilities
}

func newModel(p modelParams) ui.Model {
	return ui.NewModel(ui.ModelConfig{
		Player:   p.Player,
		Lyrics:   p.Lyrics,
		Offsets:  p.Cache,
		Settings: p.Settings,
		Artwork:  artwork.NewLoader(nil, p.Logger.Named("artwork")),
		Session: session.Config{
			Layout:       p.Config.LayoutEngine(),
			IndicatorTTL: p.Config.IndicatorTTL(),
		},
		SyncOffset: p.Config.SyncOffset,
		HideHeader: p.Config.HideHeader,
		TermCaps:   p.Caps,
		Logger:     p.Logger.Named("ui"),
	})
}

func newProgram(m ui.Model) *tea.Program {
	return tea.NewProgram(m, tea.WithAltScreen())
}
