// Package zstd provides cooperative, resumable source-reading,
// sink-writing and stream adapters over Zstandard frames (RFC 8878),
// backed by github.com/klauspost/compress/zstd.
package zstd

import (
	"io"

	"github.com/klauspost/compress/zstd"

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

// zstd has no continuous level scale; it exposes four named speed
// presets. Numeric levels map directly onto zstd.EncoderLevel's own
// 1..4 range.
const (
	minLevel = int(zstd.SpeedFastest)
	maxLevel = int(zstd.SpeedBestCompression)
)

func backendLevel(l codecio.Level) (zstd.EncoderLevel, error) {
	switch l {
	case codecio.LevelDefault:
		return zstd.SpeedDefault, nil
	case codecio.LevelFastest:
		return zstd.SpeedFastest, nil
	case codecio.LevelBest:
		return zstd.SpeedBestCompression, nil
	}
	v, _ := l.Numeric()
	if v < minLevel || v > maxLevel {
		return 0, codecio.ErrInvalidLevel
	}
	return zstd.EncoderLevel(v), nil
}

func newEncodeCodec(level codecio.Level) (codecio.Codec, error) {
	lvl, err := backendLevel(level)
	if err != nil {
		return nil, err
	}
	return codecio.NewBlockingEncodeCodec(func(w io.Writer) (codecio.BackendEncoder, error) {
		return zstd.NewWriter(w, zstd.WithEncoderLevel(lvl))
	})
}

func newDecodeCodec() codecio.Codec {
	return codecio.NewBlockingDecodeCodec(func(r io.Reader) (io.Reader, error) {
		return zstd.NewReader(r)
	})
}

// NewEncodeReader returns a ReadAdapter that reads plaintext from
// upstream and produces Zstandard-compressed bytes.
func NewEncodeReader(upstream codecio.Upstream, level codecio.Level, opts ...Option) (*codecio.ReadAdapter, error) {
	c, err := newEncodeCodec(level)
	if err != nil {
		return nil, err
	}
	return codecio.NewEncodeReadAdapter(c, upstream, opts...), nil
}

// NewDecodeReader returns a ReadAdapter that reads Zstandard-compressed
// bytes from upstream and produces plaintext.
func NewDecodeReader(upstream codecio.Upstream, opts ...Option) (*codecio.ReadAdapter, error) {
	return codecio.NewDecodeReadAdapter(newDecodeCodec(), upstream, opts...), nil
}

// NewEncodeWriter returns a WriteAdapter that accepts plaintext and
// forwards Zstandard-compressed bytes downstream.
func NewEncodeWriter(downstream codecio.Downstream, level codecio.Level, opts ...Option) (*codecio.WriteAdapter, error) {
	c, err := newEncodeCodec(level)
	if err != nil {
		return nil, err
	}
	return codecio.NewEncodeWriteAdapter(c, downstream, opts...), nil
}

// NewDecodeWriter returns a WriteAdapter that accepts Zstandard
// -compressed bytes and forwards plaintext downstream.
func NewDecodeWriter(downstream codecio.Downstream, opts ...Option) (*codecio.WriteAdapter, error) {
	return codecio.NewDecodeWriteAdapter(newDecodeCodec(), downstream, opts...), nil
}

// NewEncodeStream returns a StreamAdapter mapping plaintext chunks to
// Zstandard-compressed chunks.
func NewEncodeStream(upstream codecio.ChunkSource, level codecio.Level, opts ...Option) (*codecio.StreamAdapter, error) {
	c, err := newEncodeCodec(level)
	if err != nil {
		return nil, err
	}
	return codecio.NewEncodeStreamAdapter(c, upstream, opts...), nil
}

// NewDecodeStream returns a StreamAdapter mapping Zstandard-compressed
// chunks to plaintext chunks.
func NewDecodeStream(upstream codecio.ChunkSource, opts ...Option) (*codecio.StreamAdapter, error) {
	return codecio.NewDecodeStreamAdapter(newDecodeCodec(), upstream, opts...), nil
}
