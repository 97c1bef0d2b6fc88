// Package fetch downloads remote documents for extraction.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/docqa/internal/extract"
	"github.com/hyperjump/docqa/pkg/utils"
)

// DefaultMaxBytes caps the size of a downloaded document.
const DefaultMaxBytes = 50 << 20

// ErrTooLarge is returned when the response body exceeds the size limit.
var ErrTooLarge = errors.New("document exceeds size limit")

// Download is a fetched document and its format hint.
type Download struct {
	URL         string
	Data        []byte
	ContentType string
	// Format is an extension such as ".pdf", or "" when the extractor should sniff the bytes.
	Format string
}

// Downloader fetches documents over HTTP(S).
type Downloader struct {
	client   *http.Client
	maxBytes int64
	logger   *zap.Logger
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Downloader) { d.client = c }
}

// WithMaxBytes sets the response size limit.
func WithMaxBytes(n int64) Option {
	return func(d *Downloader) {
		if n > 0 {
			d.maxBytes = n
		}
	}
}

// WithLogger sets the downloader's logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Downloader) { d.logger = l }
}

// NewDownloader creates a downloader with a 60 second client timeout.
func NewDownloader(opts ...Option) *Downloader {
	d := &Downloader{
		client:   &http.Client{Timeout: 60 * time.Second},
		maxBytes: DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = utils.OrNop(d.logger)
	return d
}

// Download fetches rawURL. Non-2xx responses and bodies over the size limit are errors.
func (d *Downloader) Download(ctx context.Context, rawURL string) (*Download, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid document URL %q", rawURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download document: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("download document: unexpected status %s", resp.Status)
	}
	if resp.ContentLength > d.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.ContentLength)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read document body: %w", err)
	}
	if int64(len(data)) > d.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, d.maxBytes)
	}
	ct := resp.Header.Get("Content-Type")
	dl := &Download{
		URL:         rawURL,
		Data:        data,
		ContentType: ct,
		Format:      FormatHint(u.Path, ct),
	}
	d.logger.Debug("document downloaded",
		zap.String("url", rawURL),
		zap.Int("bytes", len(data)),
		zap.String("format", dl.Format))
	return dl, nil
}

// FormatHint picks an extraction format from the URL path extension, then from
// the Content-Type. It returns "" when neither is conclusive.
func FormatHint(urlPath, contentType string) string {
	if ext := path.Ext(urlPath); ext != "" && extract.IsSupported(ext) {
		return extract.NormalizeFormat(ext)
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(contentType)
	}
	switch {
	case strings.Contains(mediaType, "pdf"):
		return ".pdf"
	case strings.Contains(mediaType, "spreadsheetml"):
		return ".xlsx"
	case strings.Contains(mediaType, "presentationml"):
		return ".pptx"
	case strings.Contains(mediaType, "opendocument.text"):
		return ".odt"
	case strings.Contains(mediaType, "rtf"):
		return ".rtf"
	case strings.Contains(mediaType, "document"), mediaType == "application/msword":
		return ".docx"
	case mediaType == "text/plain":
		return ".txt"
	case mediaType == "text/markdown":
		return ".md"
	}
	return ""
}
