// Package codecio implements the adapter state machine shared by every
// codec package in this module: the Codec contract, the CoreEncoder and
// CoreDecoder drivers, and the three I/O-shaped adapters (ReadAdapter,
// WriteAdapter, StreamAdapter) that drive them against an upstream source
// or downstream sink that may only make partial progress at a time.
package codecio

import "errors"

// Sentinel errors returned by Upstream.Fill and Downstream.Write/Flush to
// signal that no progress is currently possible. It is not a failure and
// carries no state change; the caller is expected to retry later.
var ErrPending = errors.New("codecio: not ready, try again")

// Caller-visible error taxonomy. ErrCorruptInput and ErrUnexpectedEOF make
// the owning adapter terminal: every later operation returns the same
// error. ErrWriteAfterClose reports misuse of an already-closed
// WriteAdapter, and ErrInvalidLevel is returned by constructors, before
// any adapter exists.
var (
	// ErrCorruptInput is returned when a decoder recognizes malformed,
	// truncated, or checksum-mismatched compressed data.
	ErrCorruptInput = errors.New("codecio: corrupt input")

	// ErrUnexpectedEOF is returned when the upstream source reaches EOF
	// before the codec reported its end-of-stream marker.
	ErrUnexpectedEOF = errors.New("codecio: unexpected EOF before end of stream")

	// ErrWriteAfterClose is returned by WriteAdapter.Write/Flush once the
	// adapter has been closed.
	ErrWriteAfterClose = errors.New("codecio: write after close")

	// ErrInvalidLevel is returned at construction time when a requested
	// compression level falls outside a backend's accepted range.
	ErrInvalidLevel = errors.New("codecio: invalid compression level")
)

// UpstreamError wraps a failure reported by an Upstream source. It is
// surfaced to the caller verbatim, per the adapter's "propagate I/O
// failures unchanged" contract.
type UpstreamError struct{ Err error }

func (e *UpstreamError) Error() string { return "codecio: upstream: " + e.Err.Error() }
func (e *UpstreamError) Unwrap() error { return e.Err }

// DownstreamError wraps a failure reported by a Downstream sink. Once
// returned from a WriteAdapter, the adapter is poisoned: subsequent
// Write/Flush/Close calls return the same error.
type DownstreamError struct{ Err error }

func (e *DownstreamError) Error() string { return "codecio: downstream: " + e.Err.Error() }
func (e *DownstreamError) Unwrap() error { return e.Err }
