package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/ks-yuzu/pagedl/internal/config"
)

// ErrStatus is returned when a request completes with a non-2xx status.
// It is wrapped with the URL and status line; match with errors.Is.
var ErrStatus = errors.New("unexpected HTTP status")

// ErrUnknownCharset is returned by New when the configured charset name
// is not a recognized encoding.
var ErrUnknownCharset = errors.New("unknown charset")

// Page is one fetched page document.
type Page struct {
	// URL is the URL the page was requested as. Relative links on the
	// page resolve against this.
	URL string

	// StatusCode is the final HTTP status code.
	StatusCode int

	// ContentType is the response Content-Type header.
	ContentType string

	// Body is the raw (possibly truncated) response body.
	Body []byte

	// Text is the body decoded to UTF-8.
	Text string
}

// Fetcher wraps a resty client configured from the job's fetch settings.
type Fetcher struct {
	client       *resty.Client
	maxBodyBytes int64
	enc          encoding.Encoding // nil means auto-detect
}

// New creates a Fetcher from fetch settings. It fails when the configured
// charset name is unknown.
func New(cfg config.FetchConfig) (*Fetcher, error) {
	f := &Fetcher{maxBodyBytes: cfg.MaxBodyBytes}

	if cfg.Charset != "" {
		enc, err := htmlindex.Get(cfg.Charset)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCharset, cfg.Charset)
		}
		f.enc = enc
	}

	client := resty.New().
		SetTimeout(cfg.Timeout()).
		SetRetryCount(cfg.Retries()).
		SetRetryWaitTime(cfg.RetryWait()).
		SetHeader("User-Agent", cfg.UserAgent)
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return r.StatusCode() >= http.StatusInternalServerError ||
			r.StatusCode() == http.StatusTooManyRequests
	})
	if len(cfg.Headers) > 0 {
		client.SetHeaders(cfg.Headers)
	}
	if cfg.Cookie != "" {
		client.SetHeader("Cookie", cfg.Cookie)
	}
	f.client = client
	return f, nil
}

// Fetch retrieves a page document and decodes its text.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	resp, err := f.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: %s returned %s", ErrStatus, rawURL, resp.Status())
	}

	body := resp.Body()
	if f.maxBodyBytes > 0 && int64(len(body)) > f.maxBodyBytes {
		body = body[:f.maxBodyBytes]
	}

	return &Page{
		URL:         rawURL,
		StatusCode:  resp.StatusCode(),
		ContentType: resp.Header().Get("Content-Type"),
		Body:        body,
		Text:        f.decode(body, resp.Header().Get("Content-Type")),
	}, nil
}

// FetchBytes retrieves a resource as raw bytes, without decoding or a
// body cap. Used for file downloads.
func (f *Fetcher) FetchBytes(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := f.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: %s returned %s", ErrStatus, rawURL, resp.Status())
	}
	return resp.Body(), nil
}

// decode converts body to UTF-8 text. With a pinned encoding the body is
// decoded directly; otherwise the encoding is detected from the
// Content-Type header and the content itself. Either way a decode problem
// degrades to treating the bytes as UTF-8 rather than failing the page.
func (f *Fetcher) decode(body []byte, contentType string) string {
	if f.enc != nil {
		decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(body), f.enc.NewDecoder()))
		if err != nil {
			return string(body)
		}
		return string(decoded)
	}

	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return string(body)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}
