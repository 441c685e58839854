package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/loveaihub/loveaihub/internal/config"
	"github.com/loveaihub/loveaihub/internal/database"
	"github.com/loveaihub/loveaihub/internal/imagestore"
	"github.com/loveaihub/loveaihub/internal/logging"
	"github.com/loveaihub/loveaihub/internal/queue"
	"github.com/loveaihub/loveaihub/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.NewDefaultLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	repo := database.NewRepository(db)

	mq, err := queue.New(cfg.Queue)
	if err != nil {
		log.Fatalf("failed to connect to queue: %v", err)
	}
	defer mq.Close()

	images, err := imagestore.New(cfg.Images.Dir)
	if err != nil {
		log.Fatalf("failed to create image store: %v", err)
	}

	var mirror *storage.Storage
	if cfg.Storage.Endpoint != "" {
		mirror, err = storage.New(cfg.Storage)
		if err != nil {
			log.Fatalf("failed to connect to object storage: %v", err)
		}
	} else {
		log.Warn("object storage replication disabled: no endpoint configured")
	}

	archiver := NewArchiver(log, repo, images, mirrorOrNil(mirror))

	err = mq.ConsumeArchiveTasks(ctx, func(task *queue.ArchiveTask) error {
		return archiver.ProcessTask(ctx, task)
	})
	if err != nil {
		log.Fatalf("failed to start consumer: %v", err)
	}

	log.Info("archive worker started")
	<-ctx.Done()
	log.Info("archive worker stopped")
}

// mirrorOrNil keeps a typed nil *storage.Storage from masquerading as a
// non-nil Mirror interface value.
func mirrorOrNil(s *storage.Storage) Mirror {
	if s == nil {
		return nil
	}
	return s
}
