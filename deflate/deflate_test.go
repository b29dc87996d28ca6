package deflate

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
		Name:            "deflate",
		NewEncodeReader: NewEncodeReader,
		NewDecodeReader: NewDecodeReader,
		NewEncodeWriter: NewEncodeWriter,
		NewDecodeWriter: NewDecodeWriter,
		NewEncodeStream: NewEncodeStream,
		NewDecodeStream: NewDecodeStream,
	}
}

func TestDeflateSuite(t *testing.T) {
	testsuite.Run(t, factories())
}

func TestDeflateInvalidLevel(t *testing.T) {
	_, err := NewEncodeReader(codecio.NewBufferUpstream(nil), codecio.CustomLevel(100))
	assert.ErrorIs(t, err, codecio.ErrInvalidLevel)
}

func TestDeflateEncodeWriterProducesValidStream(t *testing.T) {
	var buf bytes.Buffer
	wa, err := NewEncodeWriter(codecio.NewWriterDownstream(&buf), codecio.LevelBest)
	require.NoError(t, err)
	_, err = wa.Write([]byte("stream adapters over raw deflate"))
	require.NoError(t, err)
	require.NoError(t, wa.Close())
	assert.NotEmpty(t, buf.Bytes())
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
