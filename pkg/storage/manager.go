package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// mimeExtensions is the explicit content-type table. Declared types found
// here always win over any other extension source.
var mimeExtensions = map[string]string{
	"image/jpeg":  ".jpg",
	"image/pjpeg": ".jpg",
	"image/png":   ".png",
	"image/gif":   ".gif",
	"image/webp":  ".webp",
}

// Subtypes that slip through with an image/ prefix but are not images.
var excludedSubtypes = map[string]bool{
	"html":  true,
	"xml":   true,
	"plain": true,
}

var (
	unsafeChars  = regexp.MustCompile(`[^\w\-]`)
	alnumSubtype = regexp.MustCompile(`^[a-z0-9]{2,5}$`)
)

// ErrNotAnImage is returned when the declared content type is neither a
// recognized image type nor a generic octet stream.
type ErrNotAnImage struct {
	ContentType string
}

func (e *ErrNotAnImage) Error() string {
	return fmt.Sprintf("content is not an image: %s", e.ContentType)
}

// ResolveExtension determines the output file extension from the declared
// content type, falling back on the original filename. Precedence is fixed:
// declared-type table, then derived image subtype, then the original
// filename's extension, then ".jpg". A content type that is neither an image
// type nor application/octet-stream rejects the download.
func ResolveExtension(contentType, originalName string) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}

	if ext, ok := mimeExtensions[ct]; ok {
		return ext, nil
	}

	if sub, ok := strings.CutPrefix(ct, "image/"); ok {
		if alnumSubtype.MatchString(sub) && !excludedSubtypes[sub] {
			return "." + sub, nil
		}
		// Unusable image subtype: fall through to the filename.
		return extensionFromName(originalName), nil
	}

	if ct == "application/octet-stream" || ct == "" {
		return extensionFromName(originalName), nil
	}

	return "", &ErrNotAnImage{ContentType: contentType}
}

func extensionFromName(name string) string {
	if ext := strings.ToLower(filepath.Ext(name)); ext != "" && ext != "." {
		return ext
	}
	return ".jpg"
}

// SanitizeFilename replaces every character outside word characters and
// hyphen with an underscore.
func SanitizeFilename(name string) string {
	return unsafeChars.ReplaceAllString(name, "_")
}

// Manager handles the image output directory and file writes
type Manager struct {
	dir string
}

// NewManager creates a storage manager, creating the image directory on
// demand.
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	return &Manager{dir: dir}, nil
}

// Dir returns the image directory path
func (m *Manager) Dir() string {
	return m.dir
}

// ImagePath builds the output path for a photo:
// <dir>/<observation_id>_<sanitized stem><ext>.
func (m *Manager) ImagePath(observationID int64, originalName, ext string) string {
	stem := originalName
	if e := filepath.Ext(stem); e != "" {
		stem = stem[:len(stem)-len(e)]
	}
	name := fmt.Sprintf("%d_%s%s", observationID, SanitizeFilename(stem), ext)
	return filepath.Join(m.dir, name)
}

// Save streams the reader to the given path in fixed-size chunks, writing to
// a temporary file first and renaming into place. It returns the number of
// bytes written.
func (m *Manager) Save(r io.Reader, path string, chunkSize int) (int64, error) {
	if chunkSize <= 0 {
		chunkSize = 8192
	}

	tempFile := path + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}

	written, err := io.CopyBuffer(out, r, make([]byte, chunkSize))
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return written, fmt.Errorf("failed to write image data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return written, fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return written, fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return written, nil
}
