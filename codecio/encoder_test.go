package codecio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoreEncoderZeroLengthOutputIsNoOp(t *testing.T) {
	c := &copyCodec{}
	e := NewCoreEncoder(c)

	res, err := e.Step([]byte("hello"), nil)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
	assert.Zero(t, c.calls, "Transform must not be invoked for a zero-length output buffer")
	assert.Equal(t, PhaseEncoding, e.Phase())
}

func TestCoreEncoderEncodingThenFlushThenDone(t *testing.T) {
	c := &copyCodec{}
	e := NewCoreEncoder(c)
	out := make([]byte, 64)

	res, err := e.Step([]byte("abc"), out)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Consumed)
	assert.Equal(t, 3, res.Produced)
	assert.Equal(t, PhaseEncoding, e.Phase())

	e.NoMoreInput()
	assert.Equal(t, PhaseFlushing, e.Phase())

	res, err = e.Step(nil, out)
	require.NoError(t, err)
	assert.Equal(t, StatusStreamEnd, res.Status)
	assert.Equal(t, PhaseDone, e.Phase())
}

func TestCoreEncoderDoneRejectsFurtherInput(t *testing.T) {
	c := &copyCodec{finished: true}
	e := NewCoreEncoder(c)
	e.NoMoreInput()
	out := make([]byte, 16)

	res, err := e.Step(nil, out)
	require.NoError(t, err)
	assert.Equal(t, PhaseDone, e.Phase())

	res, err = e.Step([]byte("ignored"), out)
	require.NoError(t, err)
	assert.Equal(t, StatusStreamEnd, res.Status)
	assert.Zero(t, res.Consumed, "input offered after Done must not be consumed")
}

func TestCoreEncoderNoMoreInputIsIdempotent(t *testing.T) {
	c := &copyCodec{}
	e := NewCoreEncoder(c)
	e.NoMoreInput()
	e.NoMoreInput()
	assert.Equal(t, PhaseFlushing, e.Phase())
}
