package resolve

import (
	log "github.com/rs/zerolog"
)

type Option func(r *Resolver)

func WithLogger(logger log.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func WithDemangle(demangle bool) Option {
	return func(r *Resolver) {
		r.demangle = demangle
	}
}
