package inaturalist

import (
	"fmt"
	"net/url"
	"strconv"
)

const (
	// APIBaseURL is the base URL for the public observations API
	APIBaseURL = "https://api.inaturalist.org/v1/observations"

	// WebBaseURL is the base URL for the authenticated web site
	WebBaseURL = "https://www.inaturalist.org"

	// StorageBaseURL is the content-storage backend hosting original
	// image bytes under a predictable, unauthenticated URL scheme
	StorageBaseURL = "https://inaturalist-open-data.s3.amazonaws.com"

	// SessionCookieName is the cookie carrying the web session. Only the
	// owning account can see original filenames, so photo page requests
	// must carry it.
	SessionCookieName = "_inaturalist_session"

	// PerPage is the page size used for observation pagination
	PerPage = 200
)

// ExtensionAttempts is the ordered list of extensions tried against the
// direct storage URL scheme when page scraping fails. Order matters: the
// first entry is also the default for constructed URLs.
var ExtensionAttempts = []string{".jpeg", ".jpg", ".png", ".gif"}

// ObservationsURL constructs the paginated observation-list URL for a user
func ObservationsURL(username string, page, perPage int) string {
	params := url.Values{}
	params.Set("user_login", username)
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))

	return fmt.Sprintf("%s?%s", APIBaseURL, params.Encode())
}

// ObservationURL constructs the single-observation detail URL
func ObservationURL(observationID int64) string {
	return fmt.Sprintf("%s/%d", APIBaseURL, observationID)
}

// PhotoPageURL constructs the web page URL for a photo. The page URL is
// derived from the id by template, never read from the API.
func PhotoPageURL(photoID int64) string {
	return fmt.Sprintf("%s/photos/%d", WebBaseURL, photoID)
}

// DirectStorageURL constructs a candidate direct-download URL for a photo
func DirectStorageURL(photoID int64, ext string) string {
	return fmt.Sprintf("%s/photos/%d/original%s", StorageBaseURL, photoID, ext)
}
