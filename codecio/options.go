package codecio

import "go.uber.org/zap"

// AdapterOptions are the options common to every adapter family. Codec
// packages re-export Option as a type alias rather than defining their
// own.
type AdapterOptions struct {
	Logger     *zap.Logger
	ScratchCap int
}

func (o *AdapterOptions) setDefault() {
	o.Logger = zap.NewNop()
	o.ScratchCap = 32 * 1024
}

// Option mutates AdapterOptions; codec packages re-export constructors
// built on top of it (e.g. WithLogger).
type Option func(*AdapterOptions)

// WithLogger attaches a logger to the adapter; it defaults to a no-op
// logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *AdapterOptions) { o.Logger = l }
}

// WithScratchCapacity sets the initial capacity of the adapter's produced
// -byte scratch buffer.
func WithScratchCapacity(n int) Option {
	return func(o *AdapterOptions) {
		if n > 0 {
			o.ScratchCap = n
		}
	}
}

func buildOptions(opts ...Option) AdapterOptions {
	var o AdapterOptions
	o.setDefault()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
