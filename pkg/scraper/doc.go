// Package scraper implements the three-stage resolution pipeline that turns
// a bare photo id into a downloadable image:
//
//  1. API discovery: observation ids for a username, then photo ids per
//     observation (pkg/inaturalist).
//  2. Authenticated page scrape: the photo page yields the uploader's
//     original filename and a "view original size" link.
//  3. Original URL resolution: the original-size page yields the actual
//     binary image URL.
//
// When stage 2 or 3 fails for a photo, a fixed list of direct storage URLs
// is brute-forced instead (extension by extension, first hit wins). Partial
// failures never abort the run: a broken photo is skipped, a broken
// observation is skipped, and the CSV keeps every row that did resolve.
package scraper
