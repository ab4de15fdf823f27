package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/yhkl-dev/freemusic/cache"
	"github.com/yhkl-dev/freemusic/config"
	"github.com/yhkl-dev/freemusic/control"
	"github.com/yhkl-dev/freemusic/coverart"
	"github.com/yhkl-dev/freemusic/device"
	"github.com/yhkl-dev/freemusic/library"
	"github.com/yhkl-dev/freemusic/logging"
	"github.com/yhkl-dev/freemusic/mpvplayer"
	"github.com/yhkl-dev/freemusic/netease"
	"github.com/yhkl-dev/freemusic/playback"
	"github.com/yhkl-dev/freemusic/store"
	"github.com/yhkl-dev/freemusic/ui"
)

const recommendLimit = 30

type flags struct {
	configPath string
	logLevel   string
	initConfig bool
}

func parseFlags() flags {
	var f flags
	pflag.StringVarP(&f.configPath, "config", "c", "", "path to config.toml")
	pflag.StringVar(&f.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	pflag.BoolVar(&f.initConfig, "init-config", false, "write a default config file and exit")
	pflag.Parse()
	return f
}

func main() {
	f := parseFlags()

	if f.initConfig {
		path := f.configPath
		if path == "" {
			path = config.DefaultPath()
		}
		if err := config.WriteDefault(afero.NewOsFs(), path); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println("wrote", path)
		return
	}

	if err := run(f); err != nil {
		fmt.Fprintln(os.Stderr, "freemusic:", err)
		os.Exit(1)
	}
}

// resources collects everything that must be released on exit
type resources struct {
	closers []io.Closer
}

func (r *resources) add(c io.Closer) {
	r.closers = append(r.closers, c)
}

// Close releases in reverse order and combines the errors
func (r *resources) Close() error {
	var err error
	for i := len(r.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, r.closers[i].Close())
	}
	return err
}

func run(f flags) (err error) {
	loader := config.NewLoader(afero.NewOsFs())
	cfg, err := loader.Load(f.configPath)
	if err != nil {
		return err
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}

	// the terminal belongs to the ui, so logs always go to a file
	logFile := cfg.Log.File
	if logFile == "" {
		logFile = logging.DefaultFile()
	}
	logger, logCloser, err := logging.New(logging.Config{
		Level:  zerolog.TraceLevel.String(),
		Format: cfg.Log.Format,
		File:   logFile,
	})
	if err != nil {
		return err
	}
	logging.SetGlobal(logger)
	logging.SetLevel(cfg.Log.Level)

	res := &resources{}
	res.add(logCloser)
	defer func() {
		err = multierr.Append(err, res.Close())
	}()

	if used := loader.ConfigFile(); used != "" {
		log.Info().Str("file", used).Msg("config loaded")
		loader.Watch(func(next *config.Config) {
			level := next.Log.Level
			if f.logLevel != "" {
				level = f.logLevel
			}
			logging.SetLevel(level)
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return err
	}
	res.add(db)
	if err := store.Migrate(db); err != nil {
		return err
	}

	responses := openCache(ctx, cfg, logger, res)

	client := netease.Init(cfg.API.BaseURL, cfg.API.Cookie, cfg.API.Timeout.Std())
	repo := library.NewRepository(client, store.New(db), responses, library.Options{
		Quality:       netease.Level(cfg.API.Quality),
		SearchLimit:   cfg.API.SearchLimit,
		PlaylistLimit: recommendLimit,
		HistoryLimit:  cfg.Cache.HistoryLimit,
		URLTTL:        cfg.Cache.URLTTL.Std(),
		LyricTTL:      cfg.Cache.LyricTTL.Std(),
	}, logger)
	purgeExpired(ctx, repo, cfg.Cache.SongExpiry.Std())

	engine, err := mpvplayer.NewMPVPlayer(ctx, cfg.Player.Volume, logger)
	if err != nil {
		return err
	}
	res.add(engine)

	ctrl := playback.New(engine,
		playback.WithResolver(repo),
		playback.WithPrefetch(cfg.Player.Prefetch),
		playback.WithLogger(logger),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return ctrl.Run(gctx)
	})

	if cfg.Control.Listen != "" {
		srv := control.NewServer(ctrl, repo, cfg.Control.Token, logger)
		g.Go(func() error {
			return srv.Run(gctx, cfg.Control.Listen)
		})
	}

	if cfg.Player.PauseOnDisconnect {
		monitor := device.NewMonitor(nil, 0, func() {
			if err := ctrl.Pause(); err != nil {
				log.Warn().Err(err).Msg("pause on output disconnect")
			}
		}, logger)
		g.Go(func() error {
			return monitor.Run(gctx)
		})
	}

	app := ui.NewApp(gctx, cfg, repo, ctrl, coverart.NewConverter(responses, logger), logger)
	g.Go(func() error {
		defer cancel()
		return app.Run()
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Msg("freemusic exited")
	return nil
}

// openCache connects to Redis when configured. A failed connection only disables caching.
func openCache(ctx context.Context, cfg *config.Config, logger zerolog.Logger, res *resources) cache.Cache {
	if cfg.Redis.URL == "" {
		return cache.Nop{}
	}
	rdb, err := cache.Dial(ctx, cfg.Redis.URL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, response cache disabled")
		return cache.Nop{}
	}
	res.add(rdb)
	return rdb
}

func purgeExpired(ctx context.Context, repo *library.Repository, maxAge time.Duration) {
	if maxAge <= 0 {
		return
	}
	n, err := repo.PurgeExpired(ctx, maxAge)
	if err != nil {
		log.Warn().Err(err).Msg("purge expired songs")
		return
	}
	log.Debug().Int64("rows", n).Msg("purged expired songs")
}
