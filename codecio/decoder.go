package codecio

// DecodePhase is the drive state of a CoreDecoder.
type DecodePhase int

const (
	PhaseDecoding DecodePhase = iota
	PhaseDecodeDone
)

// trailingByteReporter is implemented by Codecs that can report how many
// already-consumed input bytes were never needed to reach end-of-stream.
type trailingByteReporter interface {
	trailingBytes() int
}

// CoreDecoder pumps bytes through a Codec in decode mode: Decoding until
// the codec recognizes its end-of-stream marker, then Done. Bytes
// offered after Done are discarded rather than starting a new stream
// member.
type CoreDecoder struct {
	codec    Codec
	phase    DecodePhase
	trailing int
}

// NewCoreDecoder returns a CoreDecoder in the Decoding phase.
func NewCoreDecoder(codec Codec) *CoreDecoder {
	return &CoreDecoder{codec: codec}
}

func (d *CoreDecoder) Phase() DecodePhase { return d.phase }

// TrailingBytes reports how many bytes offered to the decoder were never
// part of the compressed stream, once Done has been reached. It is
// best-effort: a backend that over-reads into its own internal buffer
// may undercount. See DESIGN.md.
func (d *CoreDecoder) TrailingBytes() int { return d.trailing }

// Step feeds input and output to the underlying Codec. upstreamEOF tells
// the decoder that no further input bytes will ever arrive and is passed
// to the Codec as its finishHint; a Codec that has not reached its
// end-of-stream marker by then reports ErrUnexpectedEOF (possibly on a
// later call), and Step returns that error. Step does not check for
// truncation itself: whenever the Codec reports StatusStreamEnd, the
// decoder moves to Done.
//
// A zero-length output buffer always returns a no-op Result without
// invoking the Codec.
func (d *CoreDecoder) Step(input, output []byte, upstreamEOF bool) (Result, error) {
	if len(output) == 0 {
		return Result{}, nil
	}
	if d.phase == PhaseDecodeDone {
		// Default policy: trailing/extra bytes offered after the stream
		// has ended are silently discarded, not treated as a new member.
		return Result{Consumed: len(input), Status: StatusStreamEnd}, nil
	}

	// finishHint doubles as "no more input will ever arrive" for decode:
	// it tells the Codec to stop waiting for bytes that aren't coming and
	// either recognize end-of-stream or report truncation, rather than
	// hanging forever on a backend that wants more.
	res, err := d.codec.Transform(input, output, upstreamEOF)
	if err != nil {
		return res, err
	}

	if res.Status == StatusStreamEnd {
		d.phase = PhaseDecodeDone
		if tr, ok := d.codec.(trailingByteReporter); ok {
			d.trailing = tr.trailingBytes()
		}
	}
	return res, nil
}
