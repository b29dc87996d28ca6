package codecio

// EncodePhase is the drive state of a CoreEncoder.
type EncodePhase int

const (
	PhaseEncoding EncodePhase = iota
	PhaseFlushing
	PhaseDone
)

// CoreEncoder pumps bytes through a Codec in encode mode: Encoding while
// the caller still has input, Flushing once it doesn't, Done once the
// codec's finish marker has been fully emitted.
type CoreEncoder struct {
	codec Codec
	phase EncodePhase
}

// NewCoreEncoder returns a CoreEncoder in the Encoding phase.
func NewCoreEncoder(codec Codec) *CoreEncoder {
	return &CoreEncoder{codec: codec}
}

func (e *CoreEncoder) Phase() EncodePhase { return e.phase }

// NoMoreInput transitions Encoding -> Flushing. It is idempotent.
func (e *CoreEncoder) NoMoreInput() {
	if e.phase == PhaseEncoding {
		e.phase = PhaseFlushing
	}
}

// Step feeds input (ignored once Flushing/Done) and output to the
// underlying Codec and advances the phase as needed.
//
// A zero-length output buffer always returns a no-op Result without
// invoking the Codec, avoiding a pathological spin on an unready sink.
func (e *CoreEncoder) Step(input, output []byte) (Result, error) {
	if len(output) == 0 {
		return Result{}, nil
	}
	if e.phase == PhaseDone {
		return Result{Status: StatusStreamEnd}, nil
	}

	finish := e.phase == PhaseFlushing
	if finish {
		input = nil
	}

	res, err := e.codec.Transform(input, output, finish)
	if err != nil {
		return res, err
	}
	if finish && res.Status == StatusStreamEnd {
		e.phase = PhaseDone
	}
	return res, nil
}
