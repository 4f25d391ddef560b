package scraper

import (
	"context"
	"fmt"
	"time"

	"inatdl/pkg/config"
	"inatdl/pkg/inaturalist"
	"inatdl/pkg/logger"
	"inatdl/pkg/models"
	"inatdl/pkg/ratelimit"
	"inatdl/pkg/storage"
)

// Scraper orchestrates the photo filename and download pipeline: observation
// discovery, per-photo page scraping, original URL resolution and the direct
// storage fallback.
type Scraper struct {
	client    INaturalistClient
	rows      RowWriter
	images    *storage.Manager
	cfg       *config.Config
	logger    logger.Logger
	chunkSize int
}

// New creates a new Scraper instance from the configuration. The row writer
// receives one row per observation with resolved filenames.
func New(cfg *config.Config, rows RowWriter) (*Scraper, error) {
	log := logger.GetLogger()

	// One gate shared by API calls, page scrapes and downloads.
	var gate ratelimit.Limiter
	if cfg.RateLimit.BurstSize > 0 {
		period := time.Duration(float64(cfg.RateLimit.BurstSize) / cfg.RateLimit.RequestsPerSecond * float64(time.Second))
		gate = ratelimit.NewTokenBucket(cfg.RateLimit.BurstSize, period)
	} else {
		gate = ratelimit.NewInterval(cfg.RateLimit.RequestsPerSecond)
	}

	client := inaturalist.NewClient(cfg.Download.Timeout, gate, log)
	client.SetSessionCookie(cfg.INaturalist.SessionCookie)
	if cfg.INaturalist.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.INaturalist.UserAgent)
	}

	var images *storage.Manager
	if cfg.Download.Enabled {
		var err error
		images, err = storage.NewManager(cfg.Download.ImageDir)
		if err != nil {
			return nil, fmt.Errorf("failed to set up image directory: %w", err)
		}
	}

	return &Scraper{
		client:    client,
		rows:      rows,
		images:    images,
		cfg:       cfg,
		logger:    log,
		chunkSize: cfg.Download.ChunkSize,
	}, nil
}

// Run executes the pipeline for the configured username. Failures inside one
// observation are logged and skipped; the run only stops early when the
// context is cancelled.
func (s *Scraper) Run(ctx context.Context) (models.Summary, error) {
	username := s.cfg.INaturalist.Username

	s.logger.InfoWithFields("listing observations", map[string]interface{}{
		"username": username,
		"limit":    s.cfg.Output.Limit,
	})

	ids := s.client.ListObservations(ctx, username, s.cfg.Output.Limit)
	summary := models.Summary{Observations: len(ids)}

	s.logger.InfoWithFields("observations listed", map[string]interface{}{
		"username": username,
		"count":    len(ids),
	})

	for i, obsID := range ids {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		s.logger.DebugWithFields("processing observation", map[string]interface{}{
			"observation_id": obsID,
			"position":       fmt.Sprintf("%d/%d", i+1, len(ids)),
		})

		if err := s.processObservation(ctx, obsID, &summary); err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			s.logger.ErrorWithFields("failed to process observation, skipping", map[string]interface{}{
				"observation_id": obsID,
				"error":          err.Error(),
			})
		}
	}

	return summary, nil
}

// processObservation handles one observation: photo enumeration, per-photo
// scraping and optional downloads, then the CSV row.
func (s *Scraper) processObservation(ctx context.Context, obsID int64, summary *models.Summary) error {
	photos, err := s.client.ListPhotos(ctx, obsID)
	if err != nil {
		return err
	}

	row := models.OutputRow{ObservationID: obsID}

	for _, photo := range photos {
		if err := ctx.Err(); err != nil {
			return err
		}

		filename, originalLink, err := s.ScrapePhotoPage(ctx, photo.ID)
		if err != nil {
			s.logger.WarnWithFields("photo page scrape failed", map[string]interface{}{
				"photo_id": photo.ID,
				"error":    err.Error(),
			})
			continue
		}
		if filename == "" {
			s.logger.DebugWithFields("no filename on photo page, skipping photo", map[string]interface{}{
				"photo_id": photo.ID,
			})
			continue
		}

		row.Filenames = append(row.Filenames, filename)
		row.PageURLs = append(row.PageURLs, photo.PageURL)
		row.OriginalURLs = append(row.OriginalURLs, originalLink)
		summary.PhotosFound++

		if s.cfg.Download.Enabled {
			if s.downloadPhoto(ctx, photo.ID, filename, originalLink, obsID) {
				summary.PhotosDownloaded++
			}
		}
	}

	if err := s.rows.WriteRow(row); err != nil {
		return err
	}

	if len(row.Filenames) > 0 {
		s.logger.InfoWithFields("observation recorded", map[string]interface{}{
			"observation_id": obsID,
			"photos":         len(row.Filenames),
		})
	}

	return nil
}

// downloadPhoto runs the resolution chain for one photo: original-size page
// first, then the direct storage guesses. No failed call is retried; failure
// falls through to the next strategy.
func (s *Scraper) downloadPhoto(ctx context.Context, photoID int64, filename, originalLink string, obsID int64) bool {
	ok := false

	if originalLink != "" {
		if imageURL := s.ResolveOriginalURL(ctx, originalLink); imageURL != "" {
			ok = s.DownloadImage(ctx, imageURL, filename, obsID)
		}
	}

	if !ok && ctx.Err() == nil {
		s.logger.InfoWithFields("falling back to direct storage download", map[string]interface{}{
			"photo_id": photoID,
		})
		ok = s.TryDirectDownload(ctx, photoID, filename, obsID)
	}

	if !ok {
		s.logger.ErrorWithFields("all download methods failed", map[string]interface{}{
			"photo_id": photoID,
		})
		return false
	}

	s.logger.InfoWithFields("photo downloaded", map[string]interface{}{
		"photo_id": photoID,
	})

	// Extra pause after each image keeps the media bandwidth well under the
	// platform guideline.
	if s.cfg.Download.Pause > 0 {
		sleepContext(ctx, s.cfg.Download.Pause)
	}

	return true
}

func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
