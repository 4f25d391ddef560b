package scraper

import (
	"context"
	"net/http"

	"inatdl/pkg/models"
)

// INaturalistClient defines the client operations the pipeline depends on
type INaturalistClient interface {
	Get(ctx context.Context, url string) (*http.Response, error)
	ListObservations(ctx context.Context, username string, limit int) []int64
	ListPhotos(ctx context.Context, observationID int64) ([]models.Photo, error)
}

// RowWriter receives one output row per processed observation. Rows without
// filenames are dropped by the writer.
type RowWriter interface {
	WriteRow(row models.OutputRow) error
}
