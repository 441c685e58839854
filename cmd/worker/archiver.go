package main

import (
	"context"
	"fmt"
	"io"

	"github.com/loveaihub/loveaihub/internal/imagestore"
	"github.com/loveaihub/loveaihub/internal/logging"
	"github.com/loveaihub/loveaihub/internal/metrics"
	"github.com/loveaihub/loveaihub/internal/queue"
)

// GenerationStore is the persistence surface the archiver needs
type GenerationStore interface {
	SetGenerationStoredImages(ctx context.Context, id string, filenames []string) error
}

// ImageFetcher downloads provider-hosted images into the local archive
type ImageFetcher interface {
	DownloadAndStore(ctx context.Context, url string) (*imagestore.StoredImage, error)
	Open(filename string) (io.ReadCloser, string, error)
}

// Mirror replicates archived images to object storage
type Mirror interface {
	Upload(ctx context.Context, objectName string, data []byte, contentType string) error
}

// Archiver downloads the images of completed generations before the
// provider's hosted URLs expire, then records the archived filenames.
type Archiver struct {
	log    *logging.Logger
	repo   GenerationStore
	images ImageFetcher
	mirror Mirror
}

// NewArchiver creates an archiver. mirror may be nil when object storage
// replication is disabled.
func NewArchiver(log *logging.Logger, repo GenerationStore, images ImageFetcher, mirror Mirror) *Archiver {
	return &Archiver{
		log:    log,
		repo:   repo,
		images: images,
		mirror: mirror,
	}
}

// ProcessTask archives every image of one task. A task fails only when no
// image could be archived at all; partial results are recorded.
func (a *Archiver) ProcessTask(ctx context.Context, task *queue.ArchiveTask) error {
	log := a.log.WithGenerationID(task.GenerationID).WithUserID(task.UserID)

	var filenames []string
	for _, url := range task.ImageURLs {
		stored, err := a.images.DownloadAndStore(ctx, url)
		if err != nil {
			metrics.ArchiveFailuresTotal.Inc()
			a.log.LogArchiveOperation("download", task.GenerationID, "", 0, err)
			continue
		}

		metrics.ImagesArchivedTotal.Inc()
		a.log.LogArchiveOperation("download", task.GenerationID, stored.Filename, stored.Size, nil)
		filenames = append(filenames, stored.Filename)

		if a.mirror != nil {
			if err := a.replicate(ctx, stored); err != nil {
				// The local copy exists, so replication failures are not fatal
				a.log.LogArchiveOperation("replicate", task.GenerationID, stored.Filename, stored.Size, err)
			}
		}
	}

	if len(filenames) == 0 {
		return fmt.Errorf("no images archived for generation %s", task.GenerationID)
	}

	if err := a.repo.SetGenerationStoredImages(ctx, task.GenerationID, filenames); err != nil {
		return fmt.Errorf("failed to record archived images: %w", err)
	}

	log.Infof("archived %d of %d images", len(filenames), len(task.ImageURLs))
	return nil
}

func (a *Archiver) replicate(ctx context.Context, stored *imagestore.StoredImage) error {
	file, contentType, err := a.images.Open(stored.Filename)
	if err != nil {
		return err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	return a.mirror.Upload(ctx, stored.Filename, data, contentType)
}
