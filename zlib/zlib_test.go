package zlib

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamadapt/streamadapt/codecio"
	"github.com/streamadapt/streamadapt/internal/testsuite"
)

func factories() testsuite.Factories {
	return testsuite.Factories{
		Name:            "zlib",
		NewEncodeReader: NewEncodeReader,
		NewDecodeReader: NewDecodeReader,
		NewEncodeWriter: NewEncodeWriter,
		NewDecodeWriter: NewDecodeWriter,
		NewEncodeStream: NewEncodeStream,
		NewDecodeStream: NewDecodeStream,
	}
}

func TestZlibSuite(t *testing.T) {
	testsuite.Run(t, factories())
}

func TestZlibInvalidLevel(t *testing.T) {
	_, err := NewEncodeReader(codecio.NewBufferUpstream(nil), codecio.CustomLevel(100))
	assert.ErrorIs(t, err, codecio.ErrInvalidLevel)
}

func TestZlibEncodeWriterProducesValidStream(t *testing.T) {
	var buf bytes.Buffer
	wa, err := NewEncodeWriter(codecio.NewWriterDownstream(&buf), codecio.LevelBest)
	require.NoError(t, err)
	_, err = wa.Write([]byte("stream adapters over zlib"))
	require.NoError(t, err)
	require.NoError(t, wa.Close())
	assert.NotEmpty(t, buf.Bytes())
	// zlib's 2-byte header always starts with a CMF/FLG pair whose
	// 16-bit value is a multiple of 31 (RFC 1950 §2.2).
	assert.Zero(t, (int(buf.Bytes()[0])<<8+int(buf.Bytes()[1]))%31)
}

func FuzzDecode(f *testing.F) {
	var buf bytes.Buffer
	wa, err := NewEncodeWriter(codecio.NewWriterDownstream(&buf), codecio.LevelDefault)
	require.NoError(f, err)
	_, err = wa.Write([]byte("seed corpus payload"))
	require.NoError(f, err)
	require.NoError(f, wa.Close())

	testsuite.FuzzDecodeNeverPanics(f, NewDecodeReader, buf.Bytes())
}
