package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"mediascribe-server-go/internal/app/services"
	"mediascribe-server-go/internal/domain/engine"
	_ "mediascribe-server-go/internal/domain/engine/funasr"
	"mediascribe-server-go/internal/domain/eventbus"
	"mediascribe-server-go/internal/domain/media"
	"mediascribe-server-go/internal/domain/stream"
	"mediascribe-server-go/internal/domain/transcribe"
	"mediascribe-server-go/internal/domain/transcript/store"
	"mediascribe-server-go/internal/domain/translate"
	"mediascribe-server-go/internal/httpsvr/webapi"
	platformconfig "mediascribe-server-go/internal/platform/config"
	platformerrors "mediascribe-server-go/internal/platform/errors"
	"mediascribe-server-go/internal/platform/logging"
	"mediascribe-server-go/internal/platform/observability"
	wstransport "mediascribe-server-go/internal/transport/websocket"
)

const shutdownTimeout = 10 * time.Second

// Run wires the whole server and blocks until shutdown. Construction is
// fail-fast: a missing decoder binary or unreachable recognition engine stops
// startup instead of surfacing per request.
func Run(ctx context.Context, configPath string) error {
	result, err := platformconfig.NewLoader(configPath).Load()
	if err != nil {
		return err
	}
	cfg := result.Config

	logger, err := logging.New(logging.Config{
		Level:    cfg.Log.Level,
		Dir:      cfg.Log.Dir,
		Filename: cfg.Log.File,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "run", "init logging", err)
	}
	defer logger.Close()

	if result.Path != "" {
		logger.InfoTag("BOOT", "configuration loaded from %s", result.Path)
	} else {
		logger.InfoTag("BOOT", "no config file found, using defaults")
	}
	snap := observability.Collect()
	logger.InfoTag("BOOT", "host %s (%s): %d cpu, %d MB ram, %d GB disk free",
		snap.Hostname, snap.Platform, snap.CPUCount, snap.MemTotalMB, snap.DiskFreeGB)

	ffmpeg := media.NewFFmpeg(cfg.Media.FFmpegPath, cfg.Media.FFprobePath, logger)
	if err := ffmpeg.CheckAvailable(); err != nil {
		return err
	}

	transcriptStore, err := buildStore(cfg)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindStorage, "run", "init transcript store", err)
	}
	defer transcriptStore.Close(context.Background())
	logger.InfoTag("STORE", "transcript store ready: %s", cfg.Store.Driver)

	eng, _, err := engine.Acquire(engine.FromPlatform(cfg.ASR), logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	bus := eventbus.Get()
	orch := stream.NewOrchestrator(ffmpeg, eng, stream.NewBusSink(bus), stream.Options{
		ChunkSeconds:  cfg.ASR.ChunkSeconds,
		QueueCapacity: cfg.ASR.QueueCapacity,
	}, logger)
	batch := transcribe.NewBatchPipeline(ffmpeg, ffmpeg, eng, cfg.Media.TempDir, logger)

	// Translation is optional: an unreachable provider disables the feature
	// but never blocks transcription.
	translator, err := translate.New(translate.Config{
		Provider:     cfg.Translate.Provider,
		APIKey:       cfg.Translate.APIKey,
		BaseURL:      cfg.Translate.BaseURL,
		Model:        cfg.Translate.Model,
		SystemPrompt: cfg.Translate.SystemPrompt,
	}, logger)
	if err != nil {
		logger.WarnTag("TRANSLATE", "translation disabled: %v", err)
		translator = nil
	}

	app, err := services.NewTranscription(services.Deps{
		FFmpeg:         ffmpeg,
		Batch:          batch,
		Orch:           orch,
		Transcript:     transcriptStore,
		Translator:     translator,
		Bus:            bus,
		TempDir:        cfg.Media.TempDir,
		SegmentMinutes: cfg.ASR.SegmentMinutes,
		Logger:         logger,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "run", "init application service", err)
	}
	defer app.Close()

	staticRoot := ""
	if cfg.Web.Enabled {
		staticRoot = cfg.Web.StaticDir
	}
	router := webapi.BuildRouter(webapi.RouterOptions{
		Debug:      cfg.Log.Level == "debug",
		StaticRoot: staticRoot,
		Logger:     logger,
	})

	svc, err := webapi.NewService(app, filepath.Join(cfg.Media.TempDir, "uploads"), logger)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "run", "init web api", err)
	}
	svc.Register(router.API)

	hub, err := wstransport.NewHub(bus, logger)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "run", "init websocket hub", err)
	}
	defer hub.Close()
	hub.Register(router.Engine, cfg.Web.Websocket)

	addr := fmt.Sprintf("%s:%d", cfg.Server.IP, cfg.Server.Port)
	server := &http.Server{Addr: addr, Handler: router.Engine}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(signalCtx)
	group.Go(func() error {
		logger.InfoTag("BOOT", "listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return platformerrors.Wrap(platformerrors.KindTransport, "run", "http server", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.InfoTag("BOOT", "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = group.Wait()
	logger.InfoTag("BOOT", "server stopped")
	return err
}

// buildStore opens the configured transcript store driver.
func buildStore(cfg *platformconfig.Config) (store.Store, error) {
	storeCfg := store.Config{
		Driver: cfg.Store.Driver,
		TTL:    cfg.Store.TTL,
	}
	var deps store.Dependencies

	if cfg.Store.Redis != nil {
		storeCfg.Redis = &store.RedisConfig{
			Addr:     cfg.Store.Redis.Addr,
			Username: cfg.Store.Redis.Username,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
			Prefix:   cfg.Store.Redis.Prefix,
		}
	}
	if cfg.Store.Driver == store.DriverSQLite {
		dsn := ""
		if cfg.Store.SQLite != nil {
			dsn = cfg.Store.SQLite.DSN
		}
		db, err := store.OpenSQLite(dsn)
		if err != nil {
			return nil, err
		}
		deps.SQLiteDB = db
		storeCfg.SQLite = &store.SQLiteConfig{Path: dsn}
	}
	return store.New(storeCfg, deps)
}
