package kafkanotify

import (
	"context"

	"github.com/go-gotop/okconn/exchange"
	jsoniter "github.com/json-iterator/go"
	kafkaGo "github.com/segmentio/kafka-go"
)

var Json = jsoniter.ConfigCompatibleWithStandardLibrary

func NewKafkaNotify(brokers []string, ops ...Option) *KafkaNotify {
	opts := &options{
		tickerTopic: "okconn.tickers",
		candleTopic: "okconn.candles",
		balancer:    &kafkaGo.LeastBytes{},
	}
	for _, o := range ops {
		o(opts)
	}
	return &KafkaNotify{
		tickers: &kafkaGo.Writer{
			Addr:     kafkaGo.TCP(brokers...),
			Topic:    opts.tickerTopic,
			Balancer: opts.balancer,
		},
		candles: &kafkaGo.Writer{
			Addr:     kafkaGo.TCP(brokers...),
			Topic:    opts.candleTopic,
			Balancer: opts.balancer,
		},
	}
}

type KafkaNotify struct {
	tickers *kafkaGo.Writer
	candles *kafkaGo.Writer
}

func (k *KafkaNotify) OnTicker(ctx context.Context, t *exchange.Ticker) error {
	data, err := Json.Marshal(t)
	if err != nil {
		return err
	}
	return k.tickers.WriteMessages(ctx, kafkaGo.Message{
		Key:   []byte(t.Symbol),
		Value: data,
	})
}

func (k *KafkaNotify) OnCandle(ctx context.Context, instID string, c *exchange.Candlestick) error {
	data, err := Json.Marshal(c)
	if err != nil {
		return err
	}
	return k.candles.WriteMessages(ctx, kafkaGo.Message{
		Key:   []byte(instID),
		Value: data,
	})
}

func (k *KafkaNotify) Close() error {
	if err := k.tickers.Close(); err != nil {
		return err
	}
	return k.candles.Close()
}
