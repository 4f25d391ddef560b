// Package inaturalist talks to the iNaturalist public API and web site.
//
// The Client wraps http.Client with the shared rate gate, a custom
// User-Agent and the optional web session cookie. On top of it sit the two
// discovery operations: ListObservations paginates the observation ids for
// a username, and ListPhotos enumerates the photos of one observation.
//
// URL construction lives in endpoints.go; the values there are external
// contract details with the site and change independently of the pipeline.
package inaturalist
