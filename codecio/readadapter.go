package codecio

import (
	"io"
	"runtime"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// ReadAdapter presents a Codec-transformed view of an Upstream source:
// it pulls from upstream and produces codec-transformed bytes on demand,
// handing produced bytes to the caller before more codec work is
// attempted.
type ReadAdapter struct {
	upstream Upstream
	drv      driver
	opts     AdapterOptions

	scratch    []byte
	scratchPos int
	scratchLen int

	upstreamEOF bool
	poisoned    atomic.Bool
	poisonErr   error
}

func newReadAdapter(upstream Upstream, drv driver, opts AdapterOptions) *ReadAdapter {
	return &ReadAdapter{
		upstream: upstream,
		drv:      drv,
		opts:     opts,
		scratch:  make([]byte, opts.ScratchCap),
	}
}

// NewEncodeReadAdapter drives codec in encode mode, reading plaintext
// from upstream and producing compressed bytes.
func NewEncodeReadAdapter(codec Codec, upstream Upstream, opts ...Option) *ReadAdapter {
	return newReadAdapter(upstream, encoderDriver{NewCoreEncoder(codec)}, buildOptions(opts...))
}

// NewDecodeReadAdapter drives codec in decode mode, reading compressed
// bytes from upstream and producing plaintext.
func NewDecodeReadAdapter(codec Codec, upstream Upstream, opts ...Option) *ReadAdapter {
	return newReadAdapter(upstream, decoderDriver{NewCoreDecoder(codec)}, buildOptions(opts...))
}

// FillBuffer ensures the internal scratch buffer has at least one
// unconsumed produced byte and returns it, or reports ErrPending (no
// state mutated) or io.EOF (stream fully drained).
func (a *ReadAdapter) FillBuffer() ([]byte, error) {
	if a.scratchPos < a.scratchLen {
		return a.scratch[a.scratchPos:a.scratchLen], nil
	}
	if a.poisoned.Load() {
		return nil, a.poisonErr
	}

	for {
		var input []byte
		if !a.upstreamEOF {
			p, err := a.upstream.Fill()
			switch {
			case err == nil:
				input = p
			case err == ErrPending:
				return nil, ErrPending
			case err == io.EOF:
				a.upstreamEOF = true
			default:
				return nil, a.poison(&UpstreamError{Err: err})
			}
		}

		res, err := a.drv.step(input, a.scratch, a.upstreamEOF)
		if err != nil {
			return nil, a.poison(err)
		}
		if res.Consumed > 0 {
			a.upstream.Advance(res.Consumed)
		}

		a.opts.Logger.Debug("read adapter step",
			zap.Int("consumed", res.Consumed),
			zap.Int("produced", res.Produced),
			zap.Stringer("status", res.Status),
			zap.Bool("upstreamEOF", a.upstreamEOF))

		if res.Produced > 0 {
			a.scratchPos = 0
			a.scratchLen = res.Produced
			return a.scratch[:a.scratchLen], nil
		}
		if res.Status == StatusStreamEnd {
			return nil, io.EOF
		}
		if res.Consumed == 0 && res.Produced == 0 {
			// The decode backend's worker goroutine hasn't been
			// scheduled yet; yield instead of hot-spinning while it
			// catches up.
			runtime.Gosched()
		}
	}
}

// Consume marks the first n bytes of the slice most recently returned by
// FillBuffer as consumed.
func (a *ReadAdapter) Consume(n int) {
	a.scratchPos += n
	if a.scratchPos > a.scratchLen {
		a.scratchPos = a.scratchLen
	}
}

func (a *ReadAdapter) poison(err error) error {
	a.poisonErr = err
	a.poisoned.Store(true)
	return err
}

// Read implements a best-effort io.Reader on top of FillBuffer/Consume,
// for callers whose Upstream is blocking (e.g. ReaderUpstream) and so
// never actually returns ErrPending. A genuinely cooperative Upstream
// should drive FillBuffer/Consume directly instead of Read, since Read
// busy-loops on ErrPending.
func (a *ReadAdapter) Read(p []byte) (int, error) {
	for {
		b, err := a.FillBuffer()
		if err == ErrPending {
			continue
		}
		if len(b) > 0 {
			n := copy(p, b)
			a.Consume(n)
			return n, nil
		}
		return 0, err
	}
}
