package persist

import (
	"github.com/go-gotop/okconn/exchange"
)

// OrderRecorder 订单落盘
type OrderRecorder interface {
	SaveOrderRow(order *exchange.Order) error
	Close() error
}
