package limiter

import "time"

type Option func(*Options)

type PeriodLimit struct {
	Period time.Duration
	Times  int
}

type Options struct {
	// 请求次数限制
	WsConnect     PeriodLimit
	CreateOrder   PeriodLimit
	CancelOrder   PeriodLimit
	NormalRequest PeriodLimit
}

func WithWsConnect(p PeriodLimit) Option {
	return func(o *Options) {
		o.WsConnect = p
	}
}

func WithCreateOrder(p PeriodLimit) Option {
	return func(o *Options) {
		o.CreateOrder = p
	}
}

func WithCancelOrder(p PeriodLimit) Option {
	return func(o *Options) {
		o.CancelOrder = p
	}
}

func WithNormalRequest(p PeriodLimit) Option {
	return func(o *Options) {
		o.NormalRequest = p
	}
}
