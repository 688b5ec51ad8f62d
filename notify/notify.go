package notify

import (
	"context"

	"github.com/go-gotop/okconn/exchange"
)

// PriceObserver 行情推送观察者,收到最新行情后对外发布
type PriceObserver interface {
	OnTicker(ctx context.Context, t *exchange.Ticker) error
	OnCandle(ctx context.Context, instID string, c *exchange.Candlestick) error
	Close() error
}
