// Package loader reads GeoJSON documents from disk, the network or memory
// and stages them as layers.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/joeblew999/plat-layers/internal/layer"
)

var (
	// ErrIO indicates the source could not be opened or fetched.
	ErrIO = errors.New("io error")
	// ErrDecode indicates the source is not valid GeoJSON.
	ErrDecode = errors.New("decode error")
)

// DefaultMaxBytes caps the size of a file or response body read by a Loader.
const DefaultMaxBytes int64 = 256 << 20

// Loader stages GeoJSON sources into unassigned layers.
type Loader struct {
	colors   *layer.ColorAllocator
	client   *http.Client
	logger   *slog.Logger
	maxBytes int64
}

// Option configures a Loader.
type Option func(*Loader)

// WithMaxBytes sets the largest document the loader will read. Values <= 0
// keep DefaultMaxBytes.
func WithMaxBytes(n int64) Option {
	return func(l *Loader) {
		if n > 0 {
			l.maxBytes = n
		}
	}
}

// New creates a loader drawing colors from colors. A nil client uses a
// client with a 30s timeout; a nil logger uses slog.Default.
func New(colors *layer.ColorAllocator, client *http.Client, logger *slog.Logger, opts ...Option) *Loader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loader{colors: colors, client: client, logger: logger, maxBytes: DefaultMaxBytes}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// FromPath loads a GeoJSON file. The layer is named after the file.
func (l *Loader) FromPath(ctx context.Context, path, source, target string) ([]*layer.UnassignedLayer, error) {
	start := time.Now()
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrIO, path, err)
	}
	defer f.Close()
	l.logger.Debug("opened file", "path", path, "elapsed", time.Since(start))

	return l.FromReader(ctx, f, filepath.Base(path), source, target)
}

// FromNetwork fetches a GeoJSON document over HTTP(S).
func (l *Loader) FromNetwork(ctx context.Context, name, url, source, target string) ([]*layer.UnassignedLayer, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request for %s: %w", ErrIO, url, err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	start := time.Now()
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %w", ErrIO, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: fetch %s: status %s", ErrIO, url, resp.Status)
	}
	l.logger.Debug("fetched url", "url", url, "status", resp.StatusCode, "elapsed", time.Since(start))

	return l.FromReader(ctx, resp.Body, name, source, target)
}

// FromBytes stages an in-memory GeoJSON document.
func (l *Loader) FromBytes(ctx context.Context, name string, data []byte, source, target string) ([]*layer.UnassignedLayer, error) {
	return l.stage(ctx, data, name, source, target)
}

// FromReader reads r to the end and stages it. Documents larger than the
// loader's maximum fail with ErrIO.
func (l *Loader) FromReader(ctx context.Context, r io.Reader, name, source, target string) ([]*layer.UnassignedLayer, error) {
	data, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrIO, name, err)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrIO, name, l.maxBytes)
	}
	return l.stage(ctx, data, name, source, target)
}

func (l *Loader) stage(ctx context.Context, data []byte, name, source, target string) ([]*layer.UnassignedLayer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	doc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	l.logger.Debug("parsed geojson", "name", name, "type", doc.Type, "elapsed", time.Since(start))

	start = time.Now()
	staged, err := layer.FromGeometry(doc.Geometry, name, doc.Metadata, source, target, l.colors)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("staged layer", "name", name, "source", source, "target", target, "elapsed", time.Since(start))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []*layer.UnassignedLayer{staged}, nil
}
