// Package testsuite is a conformance suite shared by every codec
// package's tests: round-trip, chunking invariance, suspension
// invariance, idempotent flush/close and a set of boundary scenarios,
// run once against each codec's own constructors. It lives
// outside _test.go files (like stretchr/testify itself) so every codec
// package's test file can import it.
package testsuite

import (
	"bytes"
	"errors"
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamadapt/streamadapt/codecio"
)

// Factories collects one codec package's six constructors. Every codec
// package exposes the identical shape, so a single struct can drive the
// suite against any of them.
type Factories struct {
	Name string

	NewEncodeReader func(codecio.Upstream, codecio.Level, ...codecio.Option) (*codecio.ReadAdapter, error)
	NewDecodeReader func(codecio.Upstream, ...codecio.Option) (*codecio.ReadAdapter, error)
	NewEncodeWriter func(codecio.Downstream, codecio.Level, ...codecio.Option) (*codecio.WriteAdapter, error)
	NewDecodeWriter func(codecio.Downstream, ...codecio.Option) (*codecio.WriteAdapter, error)
	NewEncodeStream func(codecio.ChunkSource, codecio.Level, ...codecio.Option) (*codecio.StreamAdapter, error)
	NewDecodeStream func(codecio.ChunkSource, ...codecio.Option) (*codecio.StreamAdapter, error)
}

// drainReader pulls every produced byte from a ReadAdapter, retrying on
// ErrPending, until io.EOF.
func drainReader(t *testing.T, ra *codecio.ReadAdapter) []byte {
	t.Helper()
	var out []byte
	for {
		b, err := ra.FillBuffer()
		if err == codecio.ErrPending {
			continue
		}
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, b...)
		ra.Consume(len(b))
	}
}

// writeAllAndClose pushes input through a WriteAdapter, retrying on
// ErrPending, then closes it.
func writeAllAndClose(t *testing.T, wa *codecio.WriteAdapter, input []byte) {
	t.Helper()
	for len(input) > 0 {
		n, err := wa.Write(input)
		if err == codecio.ErrPending {
			continue
		}
		require.NoError(t, err)
		input = input[n:]
	}
	require.NoError(t, wa.Close())
}

// drainStream pulls every chunk from a StreamAdapter, retrying on
// ErrPending, until io.EOF.
func drainStream(t *testing.T, sa *codecio.StreamAdapter) [][]byte {
	t.Helper()
	var chunks [][]byte
	for {
		c, err := sa.Pull()
		if err == codecio.ErrPending {
			continue
		}
		if err == io.EOF {
			return chunks
		}
		require.NoError(t, err)
		chunks = append(chunks, c)
	}
}

func concat(chunks [][]byte) []byte {
	var out []byte
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

// encodeViaStream runs f's encoder over chunks via StreamAdapter and
// returns the concatenated compressed bytes.
func (f Factories) encodeViaStream(t *testing.T, chunks [][]byte, injectPending bool) []byte {
	t.Helper()
	var src codecio.ChunkSource = codecio.NewSliceChunkSource(chunks)
	if injectPending {
		src = codecio.NewPendingChunkSource(src)
	}
	sa, err := f.NewEncodeStream(src, codecio.LevelDefault)
	require.NoError(t, err)
	return concat(drainStream(t, sa))
}

// decodeViaReader runs f's decoder over compressed bytes, possibly
// delivered in bursts with ErrPending interleaved, via ReadAdapter.
func (f Factories) decodeViaReader(t *testing.T, compressed []byte, chunkSize int, injectPending bool) []byte {
	t.Helper()
	var chunks [][]byte
	if chunkSize <= 0 || chunkSize >= len(compressed) {
		chunks = [][]byte{compressed}
	} else {
		for i := 0; i < len(compressed); i += chunkSize {
			end := i + chunkSize
			if end > len(compressed) {
				end = len(compressed)
			}
			chunks = append(chunks, compressed[i:end])
		}
	}
	up := codecio.NewChunkUpstream(chunks, injectPending)
	ra, err := f.NewDecodeReader(up)
	require.NoError(t, err)
	return drainReader(t, ra)
}

func randomBytes(n int, seed int64) []byte {
	r := rand.New(rand.NewSource(seed))
	b := make([]byte, n)
	r.Read(b)
	return b
}

// Run exercises the full conformance suite against one codec's
// constructors.
func Run(t *testing.T, f Factories) {
	t.Run("RoundTrip", func(t *testing.T) { testRoundTrip(t, f) })
	t.Run("ChunkingInvariance", func(t *testing.T) { testChunkingInvariance(t, f) })
	t.Run("SuspensionInvariance", func(t *testing.T) { testSuspensionInvariance(t, f) })
	t.Run("WriteAdapterBackpressure", func(t *testing.T) { testWriteAdapterBackpressure(t, f) })
	t.Run("IdempotentFlushAndClose", func(t *testing.T) { testIdempotentFlushAndClose(t, f) })
	t.Run("BoundaryScenarios", func(t *testing.T) { testBoundaryScenarios(t, f) })
	t.Run("TruncatedStream", func(t *testing.T) { testTruncatedStream(t, f) })
	t.Run("DecodeViaWriteAdapter", func(t *testing.T) { testDecodeViaWriteAdapter(t, f) })
}

// testDecodeViaWriteAdapter pushes compressed bytes through the decode
// WriteAdapter against a downstream that accepts only small slices,
// exercising scratch draining on the decode side.
func testDecodeViaWriteAdapter(t *testing.T, f Factories) {
	payload := randomBytes(10000, 6)
	compressed := f.encodeViaStream(t, chunkEvery(payload, 512), false)

	var buf bytes.Buffer
	down := codecio.NewLimitedWriterDownstream(&buf, 333)
	wa, err := f.NewDecodeWriter(down)
	require.NoError(t, err)
	writeAllAndClose(t, wa, compressed)
	assert.Equal(t, payload, buf.Bytes())
}

// testTruncatedStream: upstream EOF before the codec's end-of-stream
// marker is fatal and terminal. Which fatal kind
// surfaces depends on where the backend notices (mid-block truncation
// reads as corruption to some backends), so either is accepted; what
// must hold for every codec is that an error surfaces at all and that
// the adapter stays poisoned with that same error.
func testTruncatedStream(t *testing.T, f Factories) {
	payload := randomBytes(4096, 5)
	compressed := f.encodeViaStream(t, [][]byte{payload}, false)
	truncated := compressed[:len(compressed)/2]

	ra, err := f.NewDecodeReader(codecio.NewBufferUpstream(truncated))
	require.NoError(t, err)

	var ferr error
	for {
		b, err := ra.FillBuffer()
		if err == codecio.ErrPending {
			continue
		}
		if err != nil {
			ferr = err
			break
		}
		ra.Consume(len(b))
	}
	require.Error(t, ferr)
	require.NotErrorIs(t, ferr, io.EOF)
	assert.True(t,
		errors.Is(ferr, codecio.ErrUnexpectedEOF) || errors.Is(ferr, codecio.ErrCorruptInput),
		"truncation must surface as UnexpectedEOF or CorruptInput, got %v", ferr)

	_, again := ra.FillBuffer()
	assert.Equal(t, ferr, again, "a fatal decode error must poison the adapter")
}

// testRoundTrip: chunked input through the ReadAdapter
// encode path, decoded back via the StreamAdapter decode path, compared
// against the concatenation of the original chunks.
func testRoundTrip(t *testing.T, f Factories) {
	cases := []struct {
		name   string
		chunks [][]byte
	}{
		{"single-chunk-65536", [][]byte{randomBytes(65536, 1)}},
		{"64x1024-chunks", chunkEvery(randomBytes(65536, 2), 1024)},
		{"small", [][]byte{[]byte("hello, "), []byte("world!")}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			up := codecio.NewChunkUpstream(c.chunks, false)
			ra, err := f.NewEncodeReader(up, codecio.LevelDefault)
			require.NoError(t, err)
			compressed := drainReader(t, ra)

			var dup codecio.ChunkSource = codecio.NewSliceChunkSource(chunkEvery(compressed, 97))
			sa, err := f.NewDecodeStream(dup)
			require.NoError(t, err)
			decoded := concat(drainStream(t, sa))

			assert.Equal(t, concat(c.chunks), decoded)
		})
	}
}

func chunkEvery(b []byte, size int) [][]byte {
	if size <= 0 {
		return [][]byte{b}
	}
	var out [][]byte
	for i := 0; i < len(b); i += size {
		end := i + size
		if end > len(b) {
			end = len(b)
		}
		out = append(out, b[i:end])
	}
	if len(out) == 0 {
		out = [][]byte{{}}
	}
	return out
}

// testChunkingInvariance: two different,
// arbitrary chunkings of the same payload must decode to the same
// plaintext, even though the compressed bytes need not match.
func testChunkingInvariance(t *testing.T, f Factories) {
	payload := randomBytes(20000, 3)

	compressedA := f.encodeViaStream(t, chunkEvery(payload, 7), false)
	compressedB := f.encodeViaStream(t, chunkEvery(payload, 4096), false)

	decodedA := f.decodeViaReader(t, compressedA, 0, false)
	decodedB := f.decodeViaReader(t, compressedB, 0, false)

	assert.Equal(t, payload, decodedA)
	assert.Equal(t, payload, decodedB)
}

// testSuspensionInvariance: interleaving
// ErrPending between every chunk at both the encode StreamAdapter's chunk
// source and the decode ReadAdapter's upstream must not change the final
// decoded bytes.
func testSuspensionInvariance(t *testing.T, f Factories) {
	payload := randomBytes(8192, 4)
	chunks := chunkEvery(payload, 37)

	compressed := f.encodeViaStream(t, chunks, true)
	decoded := f.decodeViaReader(t, compressed, 53, true)

	assert.Equal(t, payload, decoded)
}

// testWriteAdapterBackpressure: encoding via WriteAdapter with
// a downstream that accepts at most 2 bytes per Write call, forcing
// per-byte draining.
func testWriteAdapterBackpressure(t *testing.T, f Factories) {
	payload := []byte{1, 2, 3, 4, 5, 6}
	var buf bytes.Buffer
	down := codecio.NewLimitedWriterDownstream(&buf, 2)

	wa, err := f.NewEncodeWriter(down, codecio.LevelDefault)
	require.NoError(t, err)
	writeAllAndClose(t, wa, payload)

	decoded := f.decodeViaReader(t, buf.Bytes(), 0, false)
	assert.Equal(t, payload, decoded)
}

// closeCountingDownstream counts Close calls so the suite can verify a
// WriteAdapter never closes its downstream more than once even across
// repeated WriteAdapter.Close calls.
type closeCountingDownstream struct {
	*codecio.WriterDownstream
	closes int
}

func (d *closeCountingDownstream) Close() error {
	d.closes++
	return d.WriterDownstream.Close()
}

// testIdempotentFlushAndClose: a
// second Flush after a full drain is a no-op, a second Close is a no-op,
// and the downstream is closed exactly once.
func testIdempotentFlushAndClose(t *testing.T, f Factories) {
	var buf bytes.Buffer
	wd := codecio.NewWriterDownstream(&buf)
	down := &closeCountingDownstream{WriterDownstream: wd}

	wa, err := f.NewEncodeWriter(down, codecio.LevelDefault)
	require.NoError(t, err)

	n, err := wa.Write([]byte("exactly one finish"))
	require.NoError(t, err)
	assert.Equal(t, len("exactly one finish"), n)

	require.NoError(t, wa.Flush())
	lenAfterFirstFlush := buf.Len()
	require.NoError(t, wa.Flush())
	assert.Equal(t, lenAfterFirstFlush, buf.Len(), "second Flush after a full drain must be a no-op")

	require.NoError(t, wa.Close())
	require.NoError(t, wa.Close(), "second Close must be a no-op, not an error")
	assert.Equal(t, 1, down.closes, "downstream must be closed exactly once")

	_, err = wa.Write([]byte("x"))
	assert.ErrorIs(t, err, codecio.ErrWriteAfterClose)

	decoded := f.decodeViaReader(t, buf.Bytes(), 0, false)
	assert.Equal(t, []byte("exactly one finish"), decoded)
}

// FuzzDecodeNeverPanics feeds arbitrary bytes into a codec's decode
// ReadAdapter and drives it until it returns any error (io.EOF included),
// for any malformed, truncated, or random input. It checks only that
// decoding does not panic; the drive loop stops after 1<<20 FillBuffer
// calls without failing the test.
func FuzzDecodeNeverPanics(f *testing.F, newDecodeReader func(codecio.Upstream, ...codecio.Option) (*codecio.ReadAdapter, error), validCompressed []byte) {
	f.Add(validCompressed)
	f.Add([]byte{})
	f.Add([]byte{0x00, 0x01, 0x02, 0x03})
	f.Fuzz(func(t *testing.T, data []byte) {
		up := codecio.NewBufferUpstream(data)
		ra, err := newDecodeReader(up)
		if err != nil {
			return
		}
		for i := 0; i < 1<<20; i++ {
			b, err := ra.FillBuffer()
			if err == codecio.ErrPending {
				continue
			}
			if len(b) > 0 {
				ra.Consume(len(b))
			}
			if err != nil {
				return
			}
		}
	})
}

// testBoundaryScenarios covers empty-input and empty-chunk boundary cases.
func testBoundaryScenarios(t *testing.T, f Factories) {
	cases := []struct {
		name   string
		chunks [][]byte
	}{
		{"no-chunks", nil},
		{"single-empty-chunk", [][]byte{{}}},
		{"many-empty-chunks", [][]byte{{}, {}, {}, []byte("x"), {}, {}}},
		{"single-byte-chunks", [][]byte{{1}, {2}, {3}, {4}, {5}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			compressed := f.encodeViaStream(t, c.chunks, false)
			decoded := f.decodeViaReader(t, compressed, 0, false)
			assert.Equal(t, concat(c.chunks), decoded)
		})
	}
}
