package rediscache

type Option func(*options)

type options struct {
	keyPrefix string
}

func WithKeyPrefix(p string) Option {
	return func(o *options) {
		o.keyPrefix = p
	}
}
