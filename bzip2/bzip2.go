// Package bzip2 provides cooperative, resumable source-reading,
// sink-writing and stream adapters over the standard bzip2 container,
// backed by github.com/dsnet/compress/bzip2. The standard library's
// compress/bzip2 is decode-only; dsnet/compress supplies the encoder.
package bzip2

import (
	"io"

	"github.com/dsnet/compress/bzip2"

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

// Level range accepted by dsnet/compress/bzip2: 1 (fastest) to 9 (best),
// matching bzip2's block-size-in-100KiB convention. Numeric levels outside
// 1-9, including 0, are rejected with ErrInvalidLevel; LevelDefault maps
// to the backend's DefaultCompression.
const (
	minLevel = bzip2.BestSpeed
	maxLevel = bzip2.BestCompression
)

func backendLevel(l codecio.Level) (int, error) {
	switch l {
	case codecio.LevelDefault:
		return bzip2.DefaultCompression, nil
	case codecio.LevelFastest:
		return bzip2.BestSpeed, nil
	case codecio.LevelBest:
		return bzip2.BestCompression, nil
	}
	v, _ := l.Numeric()
	if v < minLevel || v > maxLevel {
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
		return bzip2.NewWriter(w, &bzip2.WriterConfig{Level: lvl})
	})
}

func newDecodeCodec() codecio.Codec {
	return codecio.NewBlockingDecodeCodec(func(r io.Reader) (io.Reader, error) {
		return bzip2.NewReader(r, nil)
	})
}

// NewEncodeReader returns a ReadAdapter that reads plaintext from
// upstream and produces bzip2-compressed bytes.
func NewEncodeReader(upstream codecio.Upstream, level codecio.Level, opts ...Option) (*codecio.ReadAdapter, error) {
	c, err := newEncodeCodec(level)
	if err != nil {
		return nil, err
	}
	return codecio.NewEncodeReadAdapter(c, upstream, opts...), nil
}

// NewDecodeReader returns a ReadAdapter that reads bzip2-compressed
// bytes from upstream and produces plaintext.
func NewDecodeReader(upstream codecio.Upstream, opts ...Option) (*codecio.ReadAdapter, error) {
	return codecio.NewDecodeReadAdapter(newDecodeCodec(), upstream, opts...), nil
}

// NewEncodeWriter returns a WriteAdapter that accepts plaintext and
// forwards bzip2-compressed bytes downstream.
func NewEncodeWriter(downstream codecio.Downstream, level codecio.Level, opts ...Option) (*codecio.WriteAdapter, error) {
	c, err := newEncodeCodec(level)
	if err != nil {
		return nil, err
	}
	return codecio.NewEncodeWriteAdapter(c, downstream, opts...), nil
}

// NewDecodeWriter returns a WriteAdapter that accepts bzip2-compressed
// bytes and forwards plaintext downstream.
func NewDecodeWriter(downstream codecio.Downstream, opts ...Option) (*codecio.WriteAdapter, error) {
	return codecio.NewDecodeWriteAdapter(newDecodeCodec(), downstream, opts...), nil
}

// NewEncodeStream returns a StreamAdapter mapping plaintext chunks to
// bzip2-compressed chunks.
func NewEncodeStream(upstream codecio.ChunkSource, level codecio.Level, opts ...Option) (*codecio.StreamAdapter, error) {
	c, err := newEncodeCodec(level)
	if err != nil {
		return nil, err
	}
	return codecio.NewEncodeStreamAdapter(c, upstream, opts...), nil
}

// NewDecodeStream returns a StreamAdapter mapping bzip2-compressed
// chunks to plaintext chunks.
func NewDecodeStream(upstream codecio.ChunkSource, opts ...Option) (*codecio.StreamAdapter, error) {
	return codecio.NewDecodeStreamAdapter(newDecodeCodec(), upstream, opts...), nil
}
