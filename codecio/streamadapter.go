package codecio

import (
	"io"
	"runtime"

	"go.uber.org/atomic"
)

// ChunkSource is a source of whole byte-buffer chunks, the shape
// StreamAdapter's upstream and a chunk consumer's pull loop both use.
type ChunkSource interface {
	// NextChunk returns the next chunk, or ErrPending, or io.EOF once no
	// further chunks will ever arrive.
	NextChunk() ([]byte, error)
}

// SliceChunkSource is a ChunkSource over a fixed list of chunks, useful
// for tests and for sync-encode/decode call sites.
type SliceChunkSource struct {
	chunks [][]byte
	i      int
}

func NewSliceChunkSource(chunks [][]byte) *SliceChunkSource {
	return &SliceChunkSource{chunks: chunks}
}

func (s *SliceChunkSource) NextChunk() ([]byte, error) {
	if s.i >= len(s.chunks) {
		return nil, io.EOF
	}
	c := s.chunks[s.i]
	s.i++
	return c, nil
}

// StreamAdapter maps a ChunkSource of input chunks to a pull-based
// sequence of codec-transformed output chunks.
type StreamAdapter struct {
	upstream ChunkSource
	drv      driver
	opts     AdapterOptions

	pending     []byte
	pendingPos  int
	upstreamEOF bool

	output []byte

	poisoned  atomic.Bool
	poisonErr error
}

func newStreamAdapter(upstream ChunkSource, drv driver, opts AdapterOptions) *StreamAdapter {
	return &StreamAdapter{upstream: upstream, drv: drv, opts: opts, output: make([]byte, opts.ScratchCap)}
}

// NewEncodeStreamAdapter drives codec in encode mode over chunked input.
func NewEncodeStreamAdapter(codec Codec, upstream ChunkSource, opts ...Option) *StreamAdapter {
	return newStreamAdapter(upstream, encoderDriver{NewCoreEncoder(codec)}, buildOptions(opts...))
}

// NewDecodeStreamAdapter drives codec in decode mode over chunked input.
func NewDecodeStreamAdapter(codec Codec, upstream ChunkSource, opts ...Option) *StreamAdapter {
	return newStreamAdapter(upstream, decoderDriver{NewCoreDecoder(codec)}, buildOptions(opts...))
}

func (s *StreamAdapter) poison(err error) error {
	s.poisonErr = err
	s.poisoned.Store(true)
	return err
}

// Pull returns the next non-empty output chunk, or ErrPending, or io.EOF
// once the stream is fully drained. The returned slice is owned by the
// caller.
func (s *StreamAdapter) Pull() ([]byte, error) {
	if s.poisoned.Load() {
		return nil, s.poisonErr
	}

	for {
		if s.pendingPos >= len(s.pending) && !s.upstreamEOF {
			chunk, err := s.upstream.NextChunk()
			switch {
			case err == nil:
				s.pending = chunk
				s.pendingPos = 0
			case err == ErrPending:
				return nil, ErrPending
			case err == io.EOF:
				s.upstreamEOF = true
				s.pending = nil
				s.pendingPos = 0
			default:
				return nil, s.poison(&UpstreamError{Err: err})
			}
		}

		var input []byte
		if s.pendingPos < len(s.pending) {
			input = s.pending[s.pendingPos:]
		}

		res, err := s.drv.step(input, s.output, s.upstreamEOF)
		if err != nil {
			return nil, s.poison(err)
		}
		s.pendingPos += res.Consumed

		if res.Produced > 0 {
			out := make([]byte, res.Produced)
			copy(out, s.output[:res.Produced])
			return out, nil
		}
		if res.Status == StatusStreamEnd {
			return nil, io.EOF
		}
		if res.Consumed == 0 {
			runtime.Gosched()
		}
	}
}
