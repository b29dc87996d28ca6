package codecio

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadAdapterPendingDoesNotLoseBytes(t *testing.T) {
	chunks := [][]byte{[]byte("abc"), []byte("def"), []byte("ghi")}
	up := NewChunkUpstream(chunks, true)
	ra := NewEncodeReadAdapter(&copyCodec{}, up)

	var out []byte
	pendings := 0
	for {
		b, err := ra.FillBuffer()
		if err == ErrPending {
			pendings++
			continue
		}
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		out = append(out, b...)
		ra.Consume(len(b))
	}
	assert.Equal(t, []byte("abcdefghi"), out)
	assert.NotZero(t, pendings, "harness upstream must have injected at least one suspension")
}

func TestReadAdapterPartialConsume(t *testing.T) {
	up := NewBufferUpstream([]byte("abcdef"))
	ra := NewEncodeReadAdapter(&copyCodec{}, up)

	b, err := ra.FillBuffer()
	require.NoError(t, err)
	require.Equal(t, []byte("abcdef"), b)
	ra.Consume(2)

	b, err = ra.FillBuffer()
	require.NoError(t, err)
	assert.Equal(t, []byte("cdef"), b, "unconsumed scratch must be re-offered before more codec work")
}

func TestReadAdapterReadConvenience(t *testing.T) {
	ra := NewEncodeReadAdapter(&copyCodec{}, NewBufferUpstream([]byte("hello")))
	out, err := io.ReadAll(ra)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), out)
}

type failingUpstream struct{ err error }

func (u *failingUpstream) Fill() ([]byte, error) { return nil, u.err }
func (u *failingUpstream) Advance(int)           {}

func TestReadAdapterUpstreamErrorPoisons(t *testing.T) {
	boom := errors.New("boom")
	ra := NewEncodeReadAdapter(&copyCodec{}, &failingUpstream{err: boom})

	_, err := ra.FillBuffer()
	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	require.ErrorIs(t, err, boom)

	_, again := ra.FillBuffer()
	assert.Equal(t, err, again, "upstream failure must poison the adapter")
}

func TestWriteAdapterPendingDownstreamConsumesNothing(t *testing.T) {
	var buf bytes.Buffer
	down := NewPendingDownstream(NewWriterDownstream(&buf))
	wa := NewEncodeWriteAdapter(&copyCodec{}, down)

	// First Write makes codec progress and parks the produced bytes in
	// scratch; the pending downstream swallows nothing on its owed turn.
	n, err := wa.Write([]byte("abc"))
	require.NoError(t, err)
	require.Equal(t, 3, n)

	// Scratch is still non-empty, so the next Write must drain first;
	// the drain alternates pending/progress until done.
	for {
		n, err = wa.Write([]byte("def"))
		if err == ErrPending {
			assert.Zero(t, n, "a pending Write must not consume caller bytes")
			continue
		}
		require.NoError(t, err)
		break
	}
	require.Equal(t, 3, n)

	for err = wa.Close(); err == ErrPending; err = wa.Close() {
	}
	require.NoError(t, err)
	assert.Equal(t, []byte("abcdef"), buf.Bytes())
}

type failingDownstream struct{ err error }

func (d *failingDownstream) Write(p []byte) (int, error) { return 0, d.err }
func (d *failingDownstream) Flush() error                { return d.err }
func (d *failingDownstream) Close() error                { return d.err }

func TestWriteAdapterDownstreamErrorPoisons(t *testing.T) {
	boom := errors.New("disk full")
	wa := NewEncodeWriteAdapter(&copyCodec{}, &failingDownstream{err: boom})

	n, err := wa.Write([]byte("abc"))
	var de *DownstreamError
	require.ErrorAs(t, err, &de)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 3, n, "codec-consumed bytes are reported even when the forward fails")

	_, again := wa.Write([]byte("x"))
	assert.Equal(t, err, again)
	assert.Equal(t, err, wa.Flush())
	assert.Equal(t, err, wa.Close(), "Close on a poisoned adapter reports the poisoning error")
}

func TestWriteAdapterWriteAfterClose(t *testing.T) {
	var buf bytes.Buffer
	wa := NewEncodeWriteAdapter(&copyCodec{}, NewWriterDownstream(&buf))

	require.NoError(t, wa.Close())
	_, err := wa.Write([]byte("late"))
	assert.ErrorIs(t, err, ErrWriteAfterClose)
	assert.ErrorIs(t, wa.Flush(), ErrWriteAfterClose)
	assert.NoError(t, wa.Close())
}

func TestStreamAdapterPendingPropagates(t *testing.T) {
	src := NewPendingChunkSource(NewSliceChunkSource([][]byte{[]byte("abc"), []byte("def")}))
	sa := NewEncodeStreamAdapter(&copyCodec{}, src)

	var out []byte
	pendings := 0
	for {
		c, err := sa.Pull()
		if err == ErrPending {
			pendings++
			continue
		}
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		out = append(out, c...)
	}
	assert.Equal(t, []byte("abcdef"), out)
	assert.NotZero(t, pendings)
}

type failingChunkSource struct{ err error }

func (s *failingChunkSource) NextChunk() ([]byte, error) { return nil, s.err }

func TestStreamAdapterUpstreamErrorPoisons(t *testing.T) {
	boom := errors.New("socket reset")
	sa := NewEncodeStreamAdapter(&copyCodec{}, &failingChunkSource{err: boom})

	_, err := sa.Pull()
	require.ErrorIs(t, err, boom)

	_, again := sa.Pull()
	assert.Equal(t, err, again)
}
