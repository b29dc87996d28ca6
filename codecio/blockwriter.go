package codecio

import (
	"bytes"
	"io"
)

// BackendEncoder is the shape every encode backend (flate.Writer,
// zlib.Writer, gzip.Writer, bzip2.Writer, brotli.Writer, zstd.Encoder)
// already satisfies.
type BackendEncoder interface {
	Write(p []byte) (int, error)
	Close() error
}

type encoderFlusher interface {
	Flush() error
}

// blockingEncodeCodec adapts a synchronous, Write/Close-based backend
// encoder to the Codec contract. No goroutine is needed here: every
// supported backend encoder accepts all the bytes it is given in one
// Write call without blocking and appends whatever output it emits to
// its underlying io.Writer synchronously (it may hold some bytes back
// until Flush or Close), so Transform can drive it directly.
type blockingEncodeCodec struct {
	out    bytes.Buffer
	w      BackendEncoder
	closed bool
	// dirty is set when bytes have been written since the last backend
	// flush. Gates the flush path: flate-family Flush emits a sync
	// marker on every call, so flushing an already-flushed backend
	// would produce bytes forever and stall "drain until produced==0"
	// callers.
	dirty bool
}

// NewBlockingEncodeCodec builds a Codec whose backend is constructed by
// newWriter over an internal sink; newWriter typically closes over a
// compression level option.
func NewBlockingEncodeCodec(newWriter func(io.Writer) (BackendEncoder, error)) (Codec, error) {
	c := &blockingEncodeCodec{}
	w, err := newWriter(&c.out)
	if err != nil {
		return nil, err
	}
	c.w = w
	return c, nil
}

func (c *blockingEncodeCodec) Transform(input, output []byte, finishHint bool) (Result, error) {
	var consumed int

	switch {
	case finishHint:
		if !c.closed {
			if err := c.w.Close(); err != nil {
				return Result{}, err
			}
			c.closed = true
		}
	case len(input) > 0:
		n, err := c.w.Write(input)
		consumed = n
		if n > 0 {
			c.dirty = true
		}
		if err != nil {
			return Result{Consumed: consumed}, err
		}
	case c.out.Len() == 0 && c.dirty:
		// No new input and nothing queued: give a buffering backend a
		// chance to surface bytes it has been holding onto, without
		// finalizing the stream. Used by WriteAdapter.Flush.
		if f, ok := c.w.(encoderFlusher); ok {
			if err := f.Flush(); err != nil {
				return Result{}, err
			}
		}
		c.dirty = false
	}

	produced := copy(output, c.out.Bytes())
	c.out.Next(produced)

	status := StatusProgress
	if c.closed && c.out.Len() == 0 {
		status = StatusStreamEnd
	}
	return Result{Consumed: consumed, Produced: produced, Status: status}, nil
}
