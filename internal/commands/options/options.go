package options

import (
	"io"

	log "github.com/rs/zerolog"
)

type CommonOptions struct {
	Debug  bool
	Logger log.Logger
	// Out receives the command output. Logs never go there.
	Out io.Writer
}

type Option func(o *CommonOptions)

func NewCommonOptions(opts ...Option) *CommonOptions {
	o := new(CommonOptions)
	o.Logger = log.Nop()
	o.Out = io.Discard
	for _, f := range opts {
		f(o)
	}

	return o
}

func WithDebug(debug bool) Option {
	return func(o *CommonOptions) {
		o.Debug = debug
	}
}

func WithLogger(logger log.Logger) Option {
	return func(o *CommonOptions) {
		o.Logger = logger
	}
}

func WithOutput(out io.Writer) Option {
	return func(o *CommonOptions) {
		o.Out = out
	}
}
