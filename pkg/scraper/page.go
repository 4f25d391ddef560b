package scraper

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"inatdl/pkg/inaturalist"
)

// HTML contract with the photo pages. These are external details of the
// scraped site, not design choices of the pipeline.
const (
	filenameHeaderText   = "Filename"
	originalFilenameAttr = "data-original-filename"
	originalLinkText     = "original"
	originalSizeParam    = "size=original"
	photoImageID         = "photo"
)

var photoPathPattern = regexp.MustCompile(`/photos/(\d+)`)

// ScrapePhotoPage fetches the authenticated photo page and extracts the
// uploader's original filename plus the "view original size" link. An empty
// filename means the page did not expose one (wrong account, or layout
// change) and the photo should be skipped from output; that is not an error.
func (s *Scraper) ScrapePhotoPage(ctx context.Context, photoID int64) (filename, originalLink string, err error) {
	pageURL := inaturalist.PhotoPageURL(photoID)

	resp, err := s.client.Get(ctx, pageURL)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if err := inaturalist.CheckStatus(resp); err != nil {
		return "", "", err
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", "", err
	}

	filename = extractFilename(doc)
	originalLink = extractOriginalLink(doc, pageURL)

	s.logger.DebugWithFields("scraped photo page", map[string]interface{}{
		"photo_id":      photoID,
		"filename":      filename,
		"original_link": originalLink,
	})

	return filename, originalLink, nil
}

// extractFilename looks for the table row labeled "Filename" first and only
// falls back to the data attribute when no row matches.
func extractFilename(doc *goquery.Document) string {
	var filename string

	doc.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		th := tr.Find("th").First()
		if strings.TrimSpace(th.Text()) != filenameHeaderText {
			return true
		}
		filename = strings.TrimSpace(tr.Find("td").First().Text())
		return false
	})

	if filename == "" {
		if val, ok := doc.Find("[" + originalFilenameAttr + "]").First().Attr(originalFilenameAttr); ok {
			filename = val
		}
	}

	return filename
}

// extractOriginalLink selects the first anchor whose visible text equals
// "original" (case-insensitive, trimmed) and whose href carries the
// size=original selector, resolved absolute against the page URL.
func extractOriginalLink(doc *goquery.Document, pageURL string) string {
	var link string

	doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok {
			return true
		}
		if !strings.EqualFold(strings.TrimSpace(a.Text()), originalLinkText) {
			return true
		}
		if !strings.Contains(href, originalSizeParam) {
			return true
		}
		link = resolveURL(pageURL, href)
		return false
	})

	return link
}

// ResolveOriginalURL fetches the original-size page and works out the URL of
// the actual image bytes. The strategies run in order, first hit wins; all
// failures collapse to an empty string since the caller has the direct
// storage fallback.
func (s *Scraper) ResolveOriginalURL(ctx context.Context, originalLink string) string {
	if originalLink == "" {
		return ""
	}

	resp, err := s.client.Get(ctx, originalLink)
	if err != nil {
		s.logger.WarnWithFields("failed to load original size page", map[string]interface{}{
			"url":   originalLink,
			"error": err.Error(),
		})
		return ""
	}
	defer resp.Body.Close()

	if err := inaturalist.CheckStatus(resp); err != nil {
		s.logger.WarnWithFields("original size page rejected", map[string]interface{}{
			"url":   originalLink,
			"error": err.Error(),
		})
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		s.logger.WarnWithFields("failed to parse original size page", map[string]interface{}{
			"url":   originalLink,
			"error": err.Error(),
		})
		return ""
	}

	strategies := []func(*goquery.Document, string) string{
		imageByID,
		imageBySrcSubstring,
		constructedStorageURL,
	}
	for _, strategy := range strategies {
		if imageURL := strategy(doc, originalLink); imageURL != "" {
			return imageURL
		}
	}

	s.logger.WarnWithFields("no image URL found on original size page", map[string]interface{}{
		"url": originalLink,
	})
	return ""
}

// imageByID finds the main image element by its id
func imageByID(doc *goquery.Document, base string) string {
	if src, ok := doc.Find("img#" + photoImageID).First().Attr("src"); ok && src != "" {
		return resolveURL(base, src)
	}
	return ""
}

// imageBySrcSubstring finds any image whose source mentions "original"
func imageBySrcSubstring(doc *goquery.Document, base string) string {
	var found string
	doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src, ok := img.Attr("src")
		if !ok || !strings.Contains(strings.ToLower(src), "original") {
			return true
		}
		found = resolveURL(base, src)
		return false
	})
	return found
}

// constructedStorageURL guesses a direct storage URL from the photo id in
// the page path. Best effort, not a verified hit.
func constructedStorageURL(_ *goquery.Document, base string) string {
	u, err := url.Parse(base)
	if err != nil {
		return ""
	}
	m := photoPathPattern.FindStringSubmatch(u.Path)
	if m == nil {
		return ""
	}
	photoID, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return ""
	}
	return inaturalist.DirectStorageURL(photoID, inaturalist.ExtensionAttempts[0])
}

// resolveURL resolves a possibly relative href against the page it came from
func resolveURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
