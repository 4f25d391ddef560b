package models

// Photo is a single photo attached to an observation. The API-reported URL is
// metadata only; downloads go through the page-scrape pipeline or the direct
// storage fallback.
type Photo struct {
	ID      int64
	APIURL  string
	PageURL string
}

// Observation is one iNaturalist observation and the photos collected for it
// during a run.
type Observation struct {
	ID     int64
	Photos []Photo
}

// OutputRow is one CSV row. The three slices are position-aligned: index i in
// each refers to the same photo. An observation with zero resolved filenames
// produces no row at all.
type OutputRow struct {
	ObservationID int64
	Filenames     []string
	PageURLs      []string
	OriginalURLs  []string
}

// Summary holds the counters reported at the end of a run.
type Summary struct {
	Observations     int
	PhotosFound      int
	PhotosDownloaded int
}
