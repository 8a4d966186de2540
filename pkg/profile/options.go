package profile

import (
	log "github.com/rs/zerolog"
)

type ReaderOption func(r *Reader)

func WithLogger(logger log.Logger) ReaderOption {
	return func(r *Reader) {
		r.logger = logger
	}
}

func WithFlavor(flavor Flavor) ReaderOption {
	return func(r *Reader) {
		r.flavor = flavor
	}
}
