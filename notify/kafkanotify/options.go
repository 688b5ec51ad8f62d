package kafkanotify

import (
	kafkaGo "github.com/segmentio/kafka-go"
)

type Option func(*options)

type options struct {
	tickerTopic string
	candleTopic string
	balancer    kafkaGo.Balancer
}

func WithTickerTopic(t string) Option {
	return func(o *options) {
		o.tickerTopic = t
	}
}

func WithCandleTopic(t string) Option {
	return func(o *options) {
		o.candleTopic = t
	}
}

func WithBalancer(b kafkaGo.Balancer) Option {
	return func(o *options) {
		o.balancer = b
	}
}
