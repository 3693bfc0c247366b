package download

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/crypto/sha3"

	"github.com/ks-yuzu/pagedl/internal/exif"
	"github.com/ks-yuzu/pagedl/internal/fetcher"
	"github.com/ks-yuzu/pagedl/internal/metadata"
	"github.com/ks-yuzu/pagedl/internal/model"
	"github.com/ks-yuzu/pagedl/internal/savepath"
)

// infoFileName is the metadata sidecar written into every target
// directory an extractor match resolves to.
const infoFileName = "info.json"

// exifSuffix is appended to a saved file's path to name its EXIF
// sidecar.
const exifSuffix = ".exif.json"

// Saver downloads file URLs into a target directory.
type Saver struct {
	fetcher *fetcher.Fetcher
	logger  *slog.Logger
}

// Option is a function that configures a Saver.
type Option func(*Saver)

// WithLogger sets a custom logger for the Saver.
// If not set, the process default logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Saver) {
		s.logger = logger
	}
}

// NewSaver creates a Saver that fetches file bodies with f.
func NewSaver(f *fetcher.Fetcher, opts ...Option) *Saver {
	s := &Saver{fetcher: f}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Request describes one batch of files to save. The engine builds one
// Request per extractor match with the options already resolved, so the
// Saver never consults configuration itself.
type Request struct {
	// Dir is the target directory. It is created if missing.
	Dir string

	// URLs are the absolute file URLs to download, in extraction order.
	URLs []string

	// Meta is the merged page metadata written to info.json.
	Meta metadata.Metadata

	// PageURL is the page the URLs were extracted from, recorded on
	// every FileRecord.
	PageURL string

	// NameLevel controls how many trailing URL path segments make up
	// the local filename. Zero keeps them all.
	NameLevel int

	// Overwrite replaces existing files instead of skipping them.
	Overwrite bool

	// MinSize discards fetched bodies smaller than this many bytes.
	MinSize int64

	// Exif writes an EXIF sidecar next to every saved file that
	// carries EXIF data.
	Exif bool

	// DryRun suppresses fetching and writing of the files themselves.
	// The directory and info.json are still written.
	DryRun bool
}

// SaveBatch creates the target directory, writes the metadata sidecar,
// and downloads the requested files one by one. It returns one
// FileRecord per URL. The returned error is non-nil only when the
// directory cannot be created or the context is canceled; everything
// else is recorded per file.
func (s *Saver) SaveBatch(ctx context.Context, req Request) ([]model.FileRecord, error) {
	if err := os.MkdirAll(req.Dir, 0750); err != nil {
		return nil, fmt.Errorf("create save directory: %w", err)
	}
	s.writeInfo(req.Dir, req.Meta)

	records := make([]model.FileRecord, 0, len(req.URLs))
	for _, fileURL := range req.URLs {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		records = append(records, s.saveOne(ctx, req, fileURL))
	}
	return records, nil
}

// writeInfo writes the merged metadata to info.json in dir. A write
// failure costs only the sidecar, so it is logged and swallowed.
func (s *Saver) writeInfo(dir string, meta metadata.Metadata) {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		s.logger.Warn("encode metadata sidecar", "dir", dir, "error", err)
		return
	}
	path := filepath.Join(dir, infoFileName)
	if err := os.WriteFile(path, data, 0600); err != nil {
		s.logger.Warn("write metadata sidecar", "path", path, "error", err)
	}
}

// saveOne runs the per-file pipeline: name the file, skip it if the
// path exists or this is a dry run, fetch it, drop it if undersized,
// and finally write it.
func (s *Saver) saveOne(ctx context.Context, req Request, fileURL string) model.FileRecord {
	rec := model.FileRecord{PageURL: req.PageURL, FileURL: fileURL}

	name, err := savepath.Filename(fileURL, req.NameLevel)
	if err != nil {
		rec.Outcome = model.OutcomeFailed
		rec.Error = err.Error()
		s.logger.Warn("derive filename", "url", fileURL, "error", err)
		return rec
	}
	rec.Path = filepath.Join(req.Dir, name)

	if !req.Overwrite {
		if _, err := os.Stat(rec.Path); err == nil {
			rec.Outcome = model.OutcomeExists
			s.logger.Debug("file already exists", "path", rec.Path)
			return rec
		}
	}

	if req.DryRun {
		rec.Outcome = model.OutcomeDryRun
		s.logger.Info("dry run, would save file", "url", fileURL, "path", rec.Path)
		return rec
	}

	data, err := s.fetcher.FetchBytes(ctx, fileURL)
	if err != nil {
		rec.Outcome = model.OutcomeFailed
		rec.Error = err.Error()
		s.logger.Warn("fetch file", "url", fileURL, "error", err)
		return rec
	}

	if int64(len(data)) < req.MinSize {
		rec.Outcome = model.OutcomeUndersized
		s.logger.Debug("file below minimum size",
			"url", fileURL, "size", len(data), "min_size", req.MinSize)
		return rec
	}

	if err := os.WriteFile(rec.Path, data, 0600); err != nil {
		rec.Outcome = model.OutcomeFailed
		rec.Error = err.Error()
		s.logger.Warn("write file", "path", rec.Path, "error", err)
		return rec
	}

	digest := sha3.Sum256(data)
	rec.Outcome = model.OutcomeSaved
	rec.Size = int64(len(data))
	rec.Digest = hex.EncodeToString(digest[:])
	s.logger.Info("saved file", "url", fileURL, "path", rec.Path, "size", rec.Size)

	if req.Exif {
		s.writeExif(rec.Path, data)
	}
	return rec
}

// writeExif extracts EXIF tags from the saved bytes and writes them to
// a sidecar next to the file. Files without EXIF data are the normal
// case and only show up at debug level.
func (s *Saver) writeExif(path string, data []byte) {
	tags, err := exif.Extract(data)
	if err != nil {
		if errors.Is(err, exif.ErrNotFound) {
			s.logger.Debug("no exif data", "path", path)
		} else {
			s.logger.Warn("extract exif data", "path", path, "error", err)
		}
		return
	}

	encoded, err := json.MarshalIndent(tags, "", "  ")
	if err != nil {
		s.logger.Warn("encode exif sidecar", "path", path, "error", err)
		return
	}
	if err := os.WriteFile(path+exifSuffix, encoded, 0600); err != nil {
		s.logger.Warn("write exif sidecar", "path", path, "error", err)
	}
}
