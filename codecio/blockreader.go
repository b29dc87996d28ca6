package codecio

import (
	"errors"
	"io"
	"runtime"
	"sync"
)

// BackendDecoder is the shape every decode backend (flate.Reader,
// zlib.Reader, gzip.Reader, bzip2.Reader, brotli.Reader, zstd.Decoder)
// already satisfies.
type BackendDecoder = io.Reader

// feeder is a blocking io.Reader backed by a growable byte queue. Push
// never blocks; Read blocks until bytes are available or the feeder has
// been closed. It is the bridge that lets a backend decoder's blocking
// Read loop run on its own goroutine while Transform only ever appends
// to the queue.
type feeder struct {
	mu   sync.Mutex
	cond *sync.Cond
	buf  []byte
	eof  bool
}

func newFeeder() *feeder {
	f := &feeder{}
	f.cond = sync.NewCond(&f.mu)
	return f
}

func (f *feeder) push(p []byte) {
	if len(p) == 0 {
		return
	}
	f.mu.Lock()
	f.buf = append(f.buf, p...)
	f.cond.Broadcast()
	f.mu.Unlock()
}

func (f *feeder) closeInput() {
	f.mu.Lock()
	f.eof = true
	f.cond.Broadcast()
	f.mu.Unlock()
}

// pending reports the number of bytes pushed but not yet read by the
// backend goroutine. Used to recover trailing (post-stream) bytes.
func (f *feeder) pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.buf)
}

func (f *feeder) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.buf) == 0 && !f.eof {
		f.cond.Wait()
	}
	if len(f.buf) == 0 {
		return 0, io.EOF
	}
	n := copy(p, f.buf)
	f.buf = f.buf[n:]
	return n, nil
}

// drainQueue accumulates decompressed bytes produced by the backend
// goroutine until Transform polls them out. Write never blocks its
// caller (the backend goroutine); it just grows the buffer.
type drainQueue struct {
	mu   sync.Mutex
	buf  []byte
	done bool
	err  error // nil once done with a clean end-of-stream
}

func (q *drainQueue) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	q.mu.Lock()
	q.buf = append(q.buf, p...)
	q.mu.Unlock()
	return len(p), nil
}

func (q *drainQueue) finish(err error) {
	q.mu.Lock()
	q.done = true
	q.err = err
	q.mu.Unlock()
}

// drain copies up to len(output) queued bytes into output and reports
// how many it took.
func (q *drainQueue) drain(output []byte) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := copy(output, q.buf)
	q.buf = q.buf[n:]
	return n
}

func (q *drainQueue) state() (remaining int, done bool, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf), q.done, q.err
}

const decodeReadChunk = 32 * 1024

// blockingDecodeCodec adapts a blocking, io.Reader-based backend decoder
// (the idiomatic shape of every supported backend) to the non-blocking
// Codec contract. The backend's own Read loop runs on a dedicated
// goroutine so it may block waiting for more compressed bytes without
// blocking Transform's caller; input and output cross the goroutine
// boundary through mutex-guarded queues (feeder, drainQueue) rather than
// channels.
type blockingDecodeCodec struct {
	in  *feeder
	out *drainQueue
}

// NewBlockingDecodeCodec builds a Codec whose backend decoder is
// constructed by newReader, wrapping the feeder as its source, on the
// backend goroutine that NewBlockingDecodeCodec starts. Constructing it
// there lets per-backend constructors that themselves read a header
// up-front (gzip, zstd) participate in the same non-blocking contract as
// everything else: that header read simply blocks the backend goroutine,
// not the caller.
func NewBlockingDecodeCodec(newReader func(io.Reader) (BackendDecoder, error)) Codec {
	c := &blockingDecodeCodec{in: newFeeder(), out: &drainQueue{}}
	// The goroutine captures the two queues, never c itself, so a
	// dropped adapter makes c unreachable; the finalizer then closes
	// the feeder, the pending backend Read observes io.EOF, and the
	// goroutine exits instead of leaking.
	in, out := c.in, c.out
	go func() {
		r, err := newReader(in)
		if err != nil {
			out.finish(translateDecodeError(err))
			return
		}
		buf := make([]byte, decodeReadChunk)
		for {
			n, rerr := r.Read(buf)
			if n > 0 {
				_, _ = out.Write(buf[:n])
			}
			if rerr != nil {
				releaseBackend(r)
				if rerr == io.EOF {
					out.finish(nil)
				} else {
					out.finish(translateDecodeError(rerr))
				}
				return
			}
		}
	}()
	runtime.SetFinalizer(c, func(c *blockingDecodeCodec) { c.in.closeInput() })
	return c
}

func translateDecodeError(err error) error {
	// A bare io.EOF here means the input ran out before the backend saw
	// a complete stream (e.g. a framed decoder's header read over empty
	// or truncated input); a clean end-of-stream never reaches this path.
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return ErrUnexpectedEOF
	}
	return errCorrupt{err}
}

// releaseBackend frees whatever resources a backend decoder holds once
// its read loop has ended. zstd.Decoder keeps worker goroutines alive
// until Close; the flate-family ReadClosers only verify their error
// state. Both shapes are safe to close after a terminal Read.
func releaseBackend(r BackendDecoder) {
	switch c := r.(type) {
	case io.Closer:
		_ = c.Close()
	case interface{ Close() }:
		c.Close()
	}
}

// errCorrupt wraps a backend-specific decode error so callers can still
// inspect it via errors.Unwrap while errors.Is(err, ErrCorruptInput)
// reports true.
type errCorrupt struct{ err error }

func (e errCorrupt) Error() string { return "codecio: corrupt input: " + e.err.Error() }
func (e errCorrupt) Unwrap() error { return e.err }

func (e errCorrupt) Is(target error) bool { return target == ErrCorruptInput }

// Transform must not be called again by the core driver once it has
// returned StatusStreamEnd or a non-nil error; both are terminal.
func (c *blockingDecodeCodec) Transform(input, output []byte, finishHint bool) (Result, error) {
	c.in.push(input)
	if finishHint {
		c.in.closeInput()
	}
	consumed := len(input)

	produced := c.out.drain(output)
	remaining, done, err := c.out.state()
	if err != nil {
		if produced > 0 {
			// Hand over bytes decoded before the failure; the error
			// surfaces on the next call, once the queue is empty.
			return Result{Consumed: consumed, Produced: produced}, nil
		}
		return Result{Consumed: consumed}, err
	}
	if done && remaining == 0 {
		return Result{Consumed: consumed, Produced: produced, Status: StatusStreamEnd}, nil
	}
	return Result{Consumed: consumed, Produced: produced, Status: StatusProgress}, nil
}

// trailingBytes reports how many input bytes were pushed into the
// backend but never consumed by it, once Transform has reported
// StatusStreamEnd. This is a best-effort count: a backend that wraps its
// source in its own internal buffered reader (as stdlib-shaped gzip/zlib
// readers do) may have pulled ahead past the true end of the compressed
// stream; those bytes are not recoverable from here. See DESIGN.md.
func (c *blockingDecodeCodec) trailingBytes() int {
	return c.in.pending()
}
