package exif

import (
	"errors"
	"fmt"

	goexif "github.com/dsoprea/go-exif/v3"
)

// ErrNotFound is returned when the data contains no EXIF segment or the
// segment holds no usable tags.
var ErrNotFound = errors.New("no exif data found")

// Extract scans raw file bytes for an EXIF segment and returns its tags
// as formatted strings keyed by tag name. A tag name appearing in more
// than one IFD keeps its first occurrence, so the primary image wins
// over the thumbnail.
func Extract(data []byte) (map[string]string, error) {
	rawExif, err := goexif.SearchAndExtractExif(data)
	if err != nil {
		if errors.Is(err, goexif.ErrNoExif) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("search exif segment: %w", err)
	}

	entries, _, err := goexif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return nil, fmt.Errorf("parse exif tags: %w", err)
	}

	tags := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.TagName == "" || entry.Formatted == "" {
			continue
		}
		if _, ok := tags[entry.TagName]; ok {
			continue
		}
		tags[entry.TagName] = entry.Formatted
	}
	if len(tags) == 0 {
		return nil, ErrNotFound
	}
	return tags, nil
}
