package codecio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoreDecoderZeroLengthOutputIsNoOp(t *testing.T) {
	c := &copyCodec{}
	d := NewCoreDecoder(c)

	res, err := d.Step([]byte("hello"), nil, false)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
	assert.Zero(t, c.calls)
	assert.Equal(t, PhaseDecoding, d.Phase())
}

func TestCoreDecoderReachesDoneOnUpstreamEOF(t *testing.T) {
	c := &copyCodec{}
	d := NewCoreDecoder(c)
	out := make([]byte, 64)

	res, err := d.Step([]byte("abc"), out, false)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Produced)
	assert.Equal(t, PhaseDecoding, d.Phase())

	res, err = d.Step(nil, out, true)
	require.NoError(t, err)
	assert.Equal(t, StatusStreamEnd, res.Status)
	assert.Equal(t, PhaseDecodeDone, d.Phase())
}

func TestCoreDecoderDiscardsTrailingAfterDone(t *testing.T) {
	c := &copyCodec{finished: true}
	d := NewCoreDecoder(c)
	out := make([]byte, 16)

	res, err := d.Step(nil, out, true)
	require.NoError(t, err)
	assert.Equal(t, PhaseDecodeDone, d.Phase())

	res, err = d.Step([]byte("extra member"), out, false)
	require.NoError(t, err)
	assert.Equal(t, StatusStreamEnd, res.Status)
	assert.Equal(t, len("extra member"), res.Consumed, "bytes offered after Done are accepted but discarded, not decoded")
	assert.Zero(t, res.Produced)
}
