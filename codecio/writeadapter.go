package codecio

import (
	"runtime"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// WriteAdapter presents a Codec-transformed view of a Downstream sink:
// it accepts caller bytes, drives the core, and forwards produced bytes
// downstream with back-pressure.
type WriteAdapter struct {
	downstream Downstream
	drv        driver
	opts       AdapterOptions

	scratch    []byte
	scratchPos int
	scratchLen int

	closed    atomic.Bool
	poisoned  atomic.Bool
	poisonErr error
}

func newWriteAdapter(downstream Downstream, drv driver, opts AdapterOptions) *WriteAdapter {
	return &WriteAdapter{
		downstream: downstream,
		drv:        drv,
		opts:       opts,
		scratch:    make([]byte, opts.ScratchCap),
	}
}

// NewEncodeWriteAdapter drives codec in encode mode, accepting plaintext
// from the caller and forwarding compressed bytes downstream.
func NewEncodeWriteAdapter(codec Codec, downstream Downstream, opts ...Option) *WriteAdapter {
	return newWriteAdapter(downstream, encoderDriver{NewCoreEncoder(codec)}, buildOptions(opts...))
}

// NewDecodeWriteAdapter drives codec in decode mode, accepting compressed
// bytes from the caller and forwarding plaintext downstream.
func NewDecodeWriteAdapter(codec Codec, downstream Downstream, opts ...Option) *WriteAdapter {
	return newWriteAdapter(downstream, decoderDriver{NewCoreDecoder(codec)}, buildOptions(opts...))
}

func (a *WriteAdapter) poison(err error) error {
	a.poisonErr = err
	a.poisoned.Store(true)
	return err
}

// drainScratch attempts to forward the unconsumed portion of a.scratch to
// downstream. It returns ErrPending if nothing further could be sent.
func (a *WriteAdapter) drainScratch() error {
	for a.scratchPos < a.scratchLen {
		n, err := a.downstream.Write(a.scratch[a.scratchPos:a.scratchLen])
		if n > 0 {
			a.scratchPos += n
		}
		if err != nil {
			if err == ErrPending {
				return ErrPending
			}
			return a.poison(&DownstreamError{Err: err})
		}
		if n == 0 {
			return ErrPending
		}
	}
	return nil
}

// Write accepts a prefix of p, driving it through the codec and
// forwarding produced bytes downstream. consumed bytes are considered
// written; the caller should re-invoke with p[consumed:] to write the
// rest.
func (a *WriteAdapter) Write(p []byte) (consumed int, err error) {
	if a.poisoned.Load() {
		return 0, a.poisonErr
	}
	if a.closed.Load() {
		return 0, ErrWriteAfterClose
	}

	if err := a.drainScratch(); err != nil {
		return 0, err
	}

	res, err := a.drv.step(p, a.scratch, false)
	if err != nil {
		return 0, a.poison(err)
	}
	a.scratchPos = 0
	a.scratchLen = res.Produced

	a.opts.Logger.Debug("write adapter step",
		zap.Int("consumed", res.Consumed),
		zap.Int("produced", res.Produced))

	if err := a.drainScratch(); err != nil && err != ErrPending {
		return res.Consumed, err
	}
	return res.Consumed, nil
}

// Flush drains the scratch buffer, then repeatedly polls the codec with
// empty input until it stops producing bytes, then flushes downstream.
// Repeated calls after a full drain are a no-op.
func (a *WriteAdapter) Flush() error {
	if a.poisoned.Load() {
		return a.poisonErr
	}
	if a.closed.Load() {
		return ErrWriteAfterClose
	}
	if err := a.drainScratch(); err != nil {
		return err
	}
	for {
		res, err := a.drv.step(nil, a.scratch, false)
		if err != nil {
			return a.poison(err)
		}
		a.scratchPos = 0
		a.scratchLen = res.Produced
		if err := a.drainScratch(); err != nil {
			return err
		}
		if res.Produced == 0 {
			break
		}
	}
	if err := a.downstream.Flush(); err != nil {
		if err == ErrPending {
			return ErrPending
		}
		return a.poison(&DownstreamError{Err: err})
	}
	return nil
}

// Close transitions the codec to its finishing phase, drains every
// produced byte downstream, and closes downstream. It is idempotent: the
// second and later calls are a no-op returning nil (unless the adapter
// was already poisoned).
func (a *WriteAdapter) Close() (err error) {
	if a.poisoned.Load() {
		return a.poisonErr
	}
	if a.closed.Load() {
		return nil
	}

	// Bytes left in scratch by an earlier Write must reach downstream
	// before the next step reuses the buffer.
	derr := a.drainScratch()
	for derr == ErrPending {
		runtime.Gosched()
		derr = a.drainScratch()
	}
	if derr != nil {
		err = multierr.Append(err, derr)
	}

	for {
		res, serr := a.drv.step(nil, a.scratch, true)
		if serr != nil {
			err = multierr.Append(err, a.poison(serr))
			break
		}
		a.scratchPos = 0
		a.scratchLen = res.Produced

		if derr := a.drainScratch(); derr != nil {
			if derr == ErrPending {
				// Downstream can't take it all right now; spin until
				// it can, since Close must run to completion.
				for derr == ErrPending {
					runtime.Gosched()
					derr = a.drainScratch()
				}
			}
			if derr != nil {
				err = multierr.Append(err, derr)
				break
			}
		}
		if res.Status == StatusStreamEnd && a.scratchPos == a.scratchLen {
			break
		}
		if res.Produced == 0 {
			// Decode codecs finish on their own goroutine; yield
			// instead of hot-spinning while that happens.
			runtime.Gosched()
		}
	}

	a.closed.Store(true)
	if cerr := a.downstream.Close(); cerr != nil {
		err = multierr.Append(err, a.poison(&DownstreamError{Err: cerr}))
	}
	return err
}
