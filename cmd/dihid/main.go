package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"dihi/internal/archive"
	"dihi/internal/config"
	"dihi/internal/daemon"
	"dihi/internal/jobs"
	"dihi/internal/logging"
	"dihi/internal/postprocess"
	"dihi/internal/registry"
	"dihi/internal/services/ffmpeg"
	"dihi/internal/services/ytdlp"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("validate config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	engine, err := ytdlp.New(cfg.YtdlpBinary())
	if err != nil {
		log.Fatalf("init retrieval engine: %v", err)
	}
	runner, err := ffmpeg.NewRunner(cfg.FFmpegBinary(), cfg.FFprobeBinary())
	if err != nil {
		log.Fatalf("init transcoder: %v", err)
	}

	manager := jobs.NewManager(jobs.Options{
		Config:   cfg,
		Logger:   logger,
		Registry: registry.New(cfg.Jobs.ItemLimit, cfg.Jobs.CollectionLimit, time.Duration(cfg.Jobs.ResultRetention)*time.Second),
		Archive:  archive.NewCache(cfg.Paths.ArchiveFile, "youtube"),
		Engine:   engine,
		Pipeline: postprocess.New(postprocess.Options{
			Runner:    runner,
			Languages: cfg.Fetch.SubtitleLanguages,
			Logger:    logger,
		}),
	})

	d, err := daemon.New(cfg, manager, logger)
	if err != nil {
		log.Fatalf("create daemon: %v", err)
	}
	if err := d.Start(ctx); err != nil {
		log.Fatalf("start daemon: %v", err)
	}

	<-ctx.Done()
	logger.Info("dihid shutting down")
	d.Stop()
}
