// Package brotli provides cooperative, resumable source-reading,
// sink-writing and stream adapters over raw Brotli (RFC 7932), backed by
// the pure-Go github.com/andybalholm/brotli, preferred over a cgo
// binding so this module stays cgo-free.
package brotli

import (
	"io"

	"github.com/andybalholm/brotli"

	"github.com/streamadapt/streamadapt/codecio"
)

// Option configures an adapter; see codecio.Option for the shared set
// (WithLogger, WithScratchCapacity).
type Option = codecio.Option

// WithLogger attaches a *zap.Logger to the adapter.
var WithLogger = codecio.WithLogger

// WithScratchCapacity sets the adapter's produced-byte scratch buffer
// capacity.
var WithScratchCapacity = codecio.WithScratchCapacity

const (
	minLevel = brotli.BestSpeed
	maxLevel = brotli.BestCompression
)

func backendLevel(l codecio.Level) (int, error) {
	switch l {
	case codecio.LevelDefault:
		return brotli.DefaultCompression, nil
	case codecio.LevelFastest:
		return brotli.BestSpeed, nil
	case codecio.LevelBest:
		return brotli.BestCompression, nil
	}
	v, ok := l.Numeric()
	if !ok || v < minLevel || v > maxLevel {
		return 0, codecio.ErrInvalidLevel
	}
	return v, nil
}

func newEncodeCodec(level codecio.Level) (codecio.Codec, error) {
	lvl, err := backendLevel(level)
	if err != nil {
		return nil, err
	}
	return codecio.NewBlockingEncodeCodec(func(w io.Writer) (codecio.BackendEncoder, error) {
		return brotli.NewWriterLevel(w, lvl), nil
	})
}

func newDecodeCodec() codecio.Codec {
	return codecio.NewBlockingDecodeCodec(func(r io.Reader) (io.Reader, error) {
		return brotli.NewReader(r), nil
	})
}

// NewEncodeReader returns a ReadAdapter that reads plaintext from
// upstream and produces Brotli-compressed bytes.
func NewEncodeReader(upstream codecio.Upstream, level codecio.Level, opts ...Option) (*codecio.ReadAdapter, error) {
	c, err := newEncodeCodec(level)
	if err != nil {
		return nil, err
	}
	return codecio.NewEncodeReadAdapter(c, upstream, opts...), nil
}

// NewDecodeReader returns a ReadAdapter that reads Brotli-compressed
// bytes from upstream and produces plaintext.
func NewDecodeReader(upstream codecio.Upstream, opts ...Option) (*codecio.ReadAdapter, error) {
	return codecio.NewDecodeReadAdapter(newDecodeCodec(), upstream, opts...), nil
}

// NewEncodeWriter returns a WriteAdapter that accepts plaintext and
// forwards Brotli-compressed bytes downstream.
func NewEncodeWriter(downstream codecio.Downstream, level codecio.Level, opts ...Option) (*codecio.WriteAdapter, error) {
	c, err := newEncodeCodec(level)
	if err != nil {
		return nil, err
	}
	return codecio.NewEncodeWriteAdapter(c, downstream, opts...), nil
}

// NewDecodeWriter returns a WriteAdapter that accepts Brotli-compressed
// bytes and forwards plaintext downstream.
func NewDecodeWriter(downstream codecio.Downstream, opts ...Option) (*codecio.WriteAdapter, error) {
	return codecio.NewDecodeWriteAdapter(newDecodeCodec(), downstream, opts...), nil
}

// NewEncodeStream returns a StreamAdapter mapping plaintext chunks to
// Brotli-compressed chunks.
func NewEncodeStream(upstream codecio.ChunkSource, level codecio.Level, opts ...Option) (*codecio.StreamAdapter, error) {
	c, err := newEncodeCodec(level)
	if err != nil {
		return nil, err
	}
	return codecio.NewEncodeStreamAdapter(c, upstream, opts...), nil
}

// NewDecodeStream returns a StreamAdapter mapping Brotli-compressed
// chunks to plaintext chunks.
func NewDecodeStream(upstream codecio.ChunkSource, opts ...Option) (*codecio.StreamAdapter, error) {
	return codecio.NewDecodeStreamAdapter(newDecodeCodec(), upstream, opts...), nil
}
