package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hyperjump/docqa/internal/extract"
	"github.com/hyperjump/docqa/internal/fetch"
)

// Fetcher downloads a document by URL.
type Fetcher interface {
	Download(ctx context.Context, url string) (*fetch.Download, error)
}

// LoadFunc produces the text of one document. It matches pipeline.Loader.
type LoadFunc func(ctx context.Context) (string, error)

// Loader turns a document source into preprocessed plain text. Every failure,
// including a failed download, is returned as *extract.ExtractionError.
type Loader struct {
	fetcher   Fetcher
	extractor *extract.Extractor
	logger    *zap.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) LoaderOption {
	return func(ld *Loader) { ld.logger = l }
}

// NewLoader creates a loader. fetcher may be nil when only local sources are used.
func NewLoader(fetcher Fetcher, extractor *extract.Extractor, opts ...LoaderOption) *Loader {
	ld := &Loader{fetcher: fetcher, extractor: extractor}
	if ld.extractor == nil {
		ld.extractor = extract.NewExtractor()
	}
	for _, opt := range opts {
		opt(ld)
	}
	if ld.logger == nil {
		ld.logger = zap.NewNop()
	}
	return ld
}

// FromURL returns a LoadFunc that downloads and extracts url.
func (ld *Loader) FromURL(url string) LoadFunc {
	return func(ctx context.Context) (string, error) {
		if ld.fetcher == nil {
			return "", &extract.ExtractionError{Err: fmt.Errorf("no downloader configured for %s", url)}
		}
		dl, err := ld.fetcher.Download(ctx, url)
		if err != nil {
			return "", &extract.ExtractionError{Format: fetch.FormatHint(url, ""), Err: err}
		}
		return ld.extract(dl.Data, dl.Format, url)
	}
}

// FromBytes returns a LoadFunc over an uploaded document. The format is
// taken from the filename extension, or sniffed when there is none.
func (ld *Loader) FromBytes(filename string, data []byte) LoadFunc {
	return func(ctx context.Context) (string, error) {
		return ld.extract(data, filepath.Ext(filename), filename)
	}
}

// FromFile returns a LoadFunc over a local file.
func (ld *Loader) FromFile(path string) LoadFunc {
	return func(ctx context.Context) (string, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", &extract.ExtractionError{Format: filepath.Ext(path), Err: fmt.Errorf("read file: %w", err)}
		}
		return ld.extract(data, filepath.Ext(path), path)
	}
}

func (ld *Loader) extract(data []byte, format, source string) (string, error) {
	text, err := ld.extractor.ExtractBytes(data, format)
	if err != nil {
		return "", err
	}
	text = Preprocess(text)
	ld.logger.Debug("document extracted",
		zap.String("source", source),
		zap.String("format", format),
		zap.Int("bytes", len(data)),
		zap.Int("chars", len(text)))
	return text, nil
}
