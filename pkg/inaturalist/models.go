package inaturalist

// ObservationsResponse represents the top-level response from the
// observations API, for both the list and the detail endpoint.
type ObservationsResponse struct {
	TotalResults int                 `json:"total_results"`
	Page         int                 `json:"page"`
	PerPage      int                 `json:"per_page"`
	Results      []ObservationResult `json:"results"`
}

// ObservationResult is a single observation object in an API response
type ObservationResult struct {
	ID     int64      `json:"id"`
	Photos []APIPhoto `json:"photos"`
}

// APIPhoto is a photo object as reported by the API. The URL is metadata
// only; a missing or zero id means the photo cannot be processed and is
// skipped.
type APIPhoto struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}
