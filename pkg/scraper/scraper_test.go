package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inatdl/pkg/config"
	"inatdl/pkg/errors"
	"inatdl/pkg/logger"
	"inatdl/pkg/models"
	"inatdl/pkg/storage"
)

// fakeResponse is one canned HTTP answer keyed by URL
type fakeResponse struct {
	status        int
	contentType   string
	body          string
	contentLength int64 // 0 means "derive from body"; -1 means unknown
}

// fakeClient implements INaturalistClient from canned data
type fakeClient struct {
	responses    map[string]fakeResponse
	observations []int64
	photos       map[int64][]models.Photo
	photosErr    map[int64]error

	mu       sync.Mutex
	requests []string
}

func (f *fakeClient) Get(_ context.Context, rawurl string) (*http.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, rawurl)
	f.mu.Unlock()

	fr, ok := f.responses[rawurl]
	if !ok {
		fr = fakeResponse{status: http.StatusNotFound}
	}

	length := fr.contentLength
	if length == 0 {
		length = int64(len(fr.body))
	}

	u, _ := url.Parse(rawurl)
	return &http.Response{
		StatusCode:    fr.status,
		Body:          io.NopCloser(strings.NewReader(fr.body)),
		Header:        http.Header{"Content-Type": []string{fr.contentType}},
		ContentLength: length,
		Request:       &http.Request{URL: u},
	}, nil
}

func (f *fakeClient) ListObservations(_ context.Context, _ string, limit int) []int64 {
	if limit > 0 && limit < len(f.observations) {
		return f.observations[:limit]
	}
	return f.observations
}

func (f *fakeClient) ListPhotos(_ context.Context, obsID int64) ([]models.Photo, error) {
	if err := f.photosErr[obsID]; err != nil {
		return nil, err
	}
	return f.photos[obsID], nil
}

func (f *fakeClient) requestCount(substr string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if strings.Contains(r, substr) {
			n++
		}
	}
	return n
}

// memWriter collects output rows for assertions
type memWriter struct {
	rows []models.OutputRow
}

func (m *memWriter) WriteRow(row models.OutputRow) error {
	if len(row.Filenames) == 0 {
		return nil
	}
	m.rows = append(m.rows, row)
	return nil
}

func photoPage(filename, link string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	if filename != "" {
		fmt.Fprintf(&b, "<table><tr><th>Filename</th><td> %s </td></tr></table>", filename)
	}
	if link != "" {
		fmt.Fprintf(&b, `<a href=%q>Original</a>`, link)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func newTestScraper(t *testing.T, client *fakeClient, download bool) (*Scraper, *memWriter) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.INaturalist.Username = "mycologist"
	cfg.Download.Enabled = download
	cfg.Download.Pause = 0
	if download {
		cfg.Download.ImageDir = t.TempDir()
	}

	var images *storage.Manager
	if download {
		var err error
		images, err = storage.NewManager(cfg.Download.ImageDir)
		require.NoError(t, err)
	}

	rows := &memWriter{}
	return &Scraper{
		client:    client,
		rows:      rows,
		images:    images,
		cfg:       cfg,
		logger:    logger.GetLogger(),
		chunkSize: 8192,
	}, rows
}

func TestRunRecordsOnlyPhotosWithFilenames(t *testing.T) {
	client := &fakeClient{
		observations: []int64{42},
		photos: map[int64][]models.Photo{
			42: {
				{ID: 101, PageURL: "https://www.inaturalist.org/photos/101"},
				{ID: 102, PageURL: "https://www.inaturalist.org/photos/102"},
			},
		},
		responses: map[string]fakeResponse{
			"https://www.inaturalist.org/photos/101": {
				status:      http.StatusOK,
				contentType: "text/html",
				body:        photoPage("IMG_4321.jpg", "/photos/101?size=original"),
			},
			"https://www.inaturalist.org/photos/102": {
				status:      http.StatusOK,
				contentType: "text/html",
				body:        photoPage("", ""),
			},
		},
	}

	s, rows := newTestScraper(t, client, false)

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Observations)
	assert.Equal(t, 1, summary.PhotosFound)
	require.Len(t, rows.rows, 1)

	row := rows.rows[0]
	assert.Equal(t, int64(42), row.ObservationID)
	assert.Equal(t, []string{"IMG_4321.jpg"}, row.Filenames)
	assert.Equal(t, []string{"https://www.inaturalist.org/photos/101"}, row.PageURLs)
	assert.Equal(t, []string{"https://www.inaturalist.org/photos/101?size=original"}, row.OriginalURLs)
}

func TestRunSkipsFailedObservation(t *testing.T) {
	client := &fakeClient{
		observations: []int64{1, 2},
		photosErr: map[int64]error{
			1: &errors.Error{Type: errors.ErrorTypeNetwork, Message: "connection refused"},
		},
		photos: map[int64][]models.Photo{
			2: {{ID: 201, PageURL: "https://www.inaturalist.org/photos/201"}},
		},
		responses: map[string]fakeResponse{
			"https://www.inaturalist.org/photos/201": {
				status:      http.StatusOK,
				contentType: "text/html",
				body:        photoPage("spore-print.png", ""),
			},
		},
	}

	s, rows := newTestScraper(t, client, false)

	summary, err := s.Run(context.Background())
	require.NoError(t, err, "one broken observation must not abort the run")

	assert.Equal(t, 2, summary.Observations)
	require.Len(t, rows.rows, 1)
	assert.Equal(t, int64(2), rows.rows[0].ObservationID)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	client := &fakeClient{
		observations: []int64{1, 2, 3},
		photos:       map[int64][]models.Photo{},
	}

	s, _ := newTestScraper(t, client, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunDownloadFallsBackToDirectStorage(t *testing.T) {
	pageURL := "https://www.inaturalist.org/photos/301"
	client := &fakeClient{
		observations: []int64{7},
		photos: map[int64][]models.Photo{
			7: {{ID: 301, PageURL: pageURL}},
		},
		responses: map[string]fakeResponse{
			// Page yields a filename but no original-size link, so the
			// direct storage guesses are the only download path.
			pageURL: {
				status:      http.StatusOK,
				contentType: "text/html",
				body:        photoPage("amanita.jpg", ""),
			},
			"https://inaturalist-open-data.s3.amazonaws.com/photos/301/original.png": {
				status:      http.StatusOK,
				contentType: "image/png",
				body:        "png-bytes",
			},
		},
	}

	s, rows := newTestScraper(t, client, true)

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.PhotosDownloaded)
	require.Len(t, rows.rows, 1)

	// .jpeg and .jpg 404 before .png hits; .gif is never tried.
	assert.Equal(t, 1, client.requestCount("original.jpeg"))
	assert.Equal(t, 1, client.requestCount("original.jpg"))
	assert.Equal(t, 1, client.requestCount("original.png"))
	assert.Equal(t, 0, client.requestCount("original.gif"))
}
