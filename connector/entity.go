package connector

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"github.com/go-gotop/okconn/exchange"
)

// PlaceOrderRequest 下单请求。
// Amount 为计价货币金额，Quantity 为交易货币数量，二者必填其一；
// 限价单不给价格时回落到最新缓存价。
type PlaceOrderRequest struct {
	Symbol        string
	Side          exchange.SideType
	Type          exchange.OrderType
	Amount        decimal.Decimal
	Quantity      decimal.Decimal
	Price         decimal.Decimal
	ClientOrderID string
	StrategyID    string
	Simulated     bool
}

// restResponse REST接口的统一响应包装
type restResponse struct {
	Code string              `json:"code"`
	Msg  string              `json:"msg"`
	Data jsoniter.RawMessage `json:"data"`
}

// Stats 连接器运行计数
type Stats struct {
	MalformedFrames uint64
	DroppedFrames   uint64
	PendingPublic   int
	PendingPrivate  int
}
