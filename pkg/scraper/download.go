package scraper

import (
	"context"
	"net/http"

	"inatdl/pkg/inaturalist"
	"inatdl/pkg/storage"
)

// DownloadImage fetches image bytes from a resolved URL and writes them
// under <imagedir>/<observation_id>_<sanitized filename><ext>, with the
// extension decided by the declared content type. It returns true only when
// the file exists on disk and either has content or legitimately matches a
// declared zero length.
func (s *Scraper) DownloadImage(ctx context.Context, imageURL, filename string, observationID int64) bool {
	if imageURL == "" || filename == "" {
		s.logger.Warn("no valid URL or filename for download")
		return false
	}

	resp, err := s.client.Get(ctx, imageURL)
	if err != nil {
		s.logger.WarnWithFields("image request failed", map[string]interface{}{
			"url":   imageURL,
			"error": err.Error(),
		})
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.WarnWithFields("image request rejected", map[string]interface{}{
			"url":    imageURL,
			"status": resp.StatusCode,
		})
		return false
	}

	contentType := resp.Header.Get("Content-Type")
	ext, err := storage.ResolveExtension(contentType, filename)
	if err != nil {
		s.logger.WarnWithFields("downloaded content is not an image", map[string]interface{}{
			"url":          imageURL,
			"content_type": contentType,
		})
		return false
	}

	path := s.images.ImagePath(observationID, filename, ext)
	written, err := s.images.Save(resp.Body, path, s.chunkSize)
	if err != nil {
		s.logger.WarnWithFields("failed to write image", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return false
	}

	// The declared length is advisory; a mismatch keeps the file.
	if resp.ContentLength >= 0 && written != resp.ContentLength {
		s.logger.WarnWithFields("download size mismatch", map[string]interface{}{
			"path":     path,
			"declared": resp.ContentLength,
			"written":  written,
		})
	}

	if written == 0 && resp.ContentLength != 0 {
		s.logger.WarnWithFields("downloaded file is empty", map[string]interface{}{
			"path": path,
		})
		return false
	}

	s.logger.DebugWithFields("image saved", map[string]interface{}{
		"path":  path,
		"bytes": written,
	})
	return true
}

// TryDirectDownload walks the fixed extension attempt list against the
// predictable storage URL scheme, stopping at the first extension that
// downloads. This is the fallback for photos whose page scrape or original
// URL resolution failed.
func (s *Scraper) TryDirectDownload(ctx context.Context, photoID int64, filename string, observationID int64) bool {
	for _, ext := range inaturalist.ExtensionAttempts {
		candidate := inaturalist.DirectStorageURL(photoID, ext)
		s.logger.DebugWithFields("trying direct storage URL", map[string]interface{}{
			"photo_id": photoID,
			"url":      candidate,
		})
		if s.DownloadImage(ctx, candidate, filename, observationID) {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
	}
	return false
}
