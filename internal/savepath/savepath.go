package savepath

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ks-yuzu/pagedl/internal/metadata"
)

// Errors reported while resolving save locations. They are wrapped with
// the offending template, key, or URL; match with errors.Is.
var (
	// ErrUnknownKey is returned when a template references a metadata
	// field that is not present.
	ErrUnknownKey = errors.New("metadata key not found")

	// ErrNotString is returned when a template references a metadata
	// field that is a list or table. Only single strings have a defined
	// place in a directory name.
	ErrNotString = errors.New("metadata value is not a single string")

	// ErrUnclosedPlaceholder is returned when a template opens a
	// placeholder without closing it.
	ErrUnclosedPlaceholder = errors.New("unclosed placeholder in template")

	// ErrEmptyFilename is returned when a file URL yields no path
	// segments to build a filename from.
	ErrEmptyFilename = errors.New("file URL yields an empty filename")
)

// sanitizer replaces characters that would nest, escape, or upset a
// directory name with "-".
var sanitizer = strings.NewReplacer(
	"/", "-",
	"%", "-",
	"*", "-",
	":", "-",
	"|", "-",
	`"`, "-",
	"<", "-",
	">", "-",
)

// Sanitize replaces the characters / % * : | " < > with "-".
func Sanitize(s string) string {
	return sanitizer.Replace(s)
}

// ResolveDir joins root with each sub-directory template expanded against
// meta and sanitized. Template expansion fails when a referenced field is
// missing or not a single string.
func ResolveDir(root string, subDirs []string, meta metadata.Metadata) (string, error) {
	parts := make([]string, 0, len(subDirs)+1)
	parts = append(parts, root)
	for _, tmpl := range subDirs {
		expanded, err := Expand(tmpl, meta)
		if err != nil {
			return "", err
		}
		parts = append(parts, Sanitize(expanded))
	}
	return filepath.Join(parts...), nil
}

// Expand substitutes every {{key}} placeholder in tmpl with the metadata
// field's string value. Text outside placeholders is copied verbatim.
func Expand(tmpl string, meta metadata.Metadata) (string, error) {
	var b strings.Builder
	rest := tmpl
	for {
		start := strings.Index(rest, "{{")
		if start < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		b.WriteString(rest[:start])
		rest = rest[start+2:]

		end := strings.Index(rest, "}}")
		if end < 0 {
			return "", fmt.Errorf("%w: %q", ErrUnclosedPlaceholder, tmpl)
		}
		key := strings.TrimSpace(rest[:end])
		rest = rest[end+2:]

		value, ok := meta[key]
		if !ok {
			return "", fmt.Errorf("%w: %q in template %q", ErrUnknownKey, key, tmpl)
		}
		s, ok := value.AsString()
		if !ok {
			return "", fmt.Errorf("%w: %q is a %s", ErrNotString, key, value.Kind())
		}
		b.WriteString(s)
	}
}

// Filename derives a local filename from a file URL.
//
// The scheme prefix and query string are stripped, the remaining
// host/path is split on "/" (empty segments dropped), and the last
// nameLevel segments are joined with "_". nameLevel 0, or any value
// exceeding the available depth, keeps all segments.
func Filename(rawURL string, nameLevel int) (string, error) {
	s := rawURL
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[:i]
	}

	segments := make([]string, 0, 8)
	for _, seg := range strings.Split(s, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	if len(segments) == 0 {
		return "", fmt.Errorf("%w: %q", ErrEmptyFilename, rawURL)
	}
	if nameLevel > 0 && nameLevel < len(segments) {
		segments = segments[len(segments)-nameLevel:]
	}
	return strings.Join(segments, "_"), nil
}
