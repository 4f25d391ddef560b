package inaturalist

import (
	"context"

	"inatdl/pkg/models"
)

// ListObservations pages the observation-list endpoint for a username and
// returns the observation ids in API order. A limit of 0 means no limit;
// otherwise the result is truncated to exactly limit ids. A network or
// decode failure on any page is logged and whatever has been accumulated so
// far is returned: the run continues with fewer observations rather than
// aborting.
func (c *Client) ListObservations(ctx context.Context, username string, limit int) []int64 {
	var ids []int64
	page := 1

	for {
		if ctx.Err() != nil {
			return ids
		}

		url := ObservationsURL(username, page, PerPage)
		c.logger.DebugWithFields("fetching observation page", map[string]interface{}{
			"username": username,
			"page":     page,
		})

		var resp ObservationsResponse
		if err := c.GetJSON(ctx, url, &resp); err != nil {
			c.logger.WarnWithFields("observation page failed, keeping partial results", map[string]interface{}{
				"username": username,
				"page":     page,
				"error":    err.Error(),
				"ids":      len(ids),
			})
			return ids
		}

		if len(resp.Results) == 0 {
			return ids
		}

		for _, obs := range resp.Results {
			ids = append(ids, obs.ID)
			if limit > 0 && len(ids) >= limit {
				return ids[:limit]
			}
		}

		page++
	}
}

// ListPhotos fetches the detail endpoint for one observation and returns its
// photos. An empty API result set yields an empty slice, not an error. Photo
// objects without an id are silently skipped. The page URL is built by
// template, not read from the API.
func (c *Client) ListPhotos(ctx context.Context, observationID int64) ([]models.Photo, error) {
	var resp ObservationsResponse
	if err := c.GetJSON(ctx, ObservationURL(observationID), &resp); err != nil {
		return nil, err
	}

	if len(resp.Results) == 0 {
		return nil, nil
	}

	photos := make([]models.Photo, 0, len(resp.Results[0].Photos))
	for _, p := range resp.Results[0].Photos {
		if p.ID == 0 {
			continue
		}
		photos = append(photos, models.Photo{
			ID:      p.ID,
			APIURL:  p.URL,
			PageURL: PhotoPageURL(p.ID),
		})
	}

	return photos, nil
}
