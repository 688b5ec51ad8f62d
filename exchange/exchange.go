package exchange

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SideType BUY, SELL
type SideType string

// OrderType LIMIT, MARKET
type OrderType string

// OrderStatus NEW, PARTIALLY_FILLED, FILLED, CANCELED, CANCELING
type OrderStatus string

const (
	OkxExchange = "OKX"

	SideTypeBuy  SideType = "BUY"
	SideTypeSell SideType = "SELL"

	OrderTypeLimit  OrderType = "LIMIT"
	OrderTypeMarket OrderType = "MARKET"

	OrderStatusNew             OrderStatus = "NEW"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCanceled        OrderStatus = "CANCELED"
	OrderStatusCanceling       OrderStatus = "CANCELING"
)

// Loc OKX推送的时间戳为毫秒，统一换算成东八区时间
var Loc = time.FixedZone("UTC+8", 8*60*60)

// MillisToTime 毫秒时间戳转时间
func MillisToTime(ms int64) time.Time {
	return time.UnixMilli(ms).In(Loc)
}

// BaseAsset 从交易对中取出交易货币，如 BTC-USDT -> BTC
func BaseAsset(instID string) string {
	i := strings.Index(instID, "-")
	if i <= 0 {
		return instID
	}
	return instID[:i]
}

// QuoteAsset 从交易对中取出计价货币，如 BTC-USDT -> USDT
func QuoteAsset(instID string) string {
	i := strings.Index(instID, "-")
	if i < 0 || i+1 >= len(instID) {
		return ""
	}
	return instID[i+1:]
}

// Ticker 实时行情
type Ticker struct {
	Symbol             string
	Channel            string
	LastPrice          decimal.Decimal
	BidPrice           decimal.Decimal
	BidQty             decimal.Decimal
	AskPrice           decimal.Decimal
	AskQty             decimal.Decimal
	HighPrice          decimal.Decimal // 24小时最高价
	LowPrice           decimal.Decimal // 24小时最低价
	Volume             decimal.Decimal // 24小时成交量，交易货币
	QuoteVolume        decimal.Decimal // 24小时成交量，计价货币
	Open24h            decimal.Decimal
	PriceChange        decimal.Decimal
	PriceChangePercent decimal.Decimal
	Timestamp          time.Time
}

// Candlestick K线
type Candlestick struct {
	Symbol      string
	Interval    string
	OpenTime    time.Time
	CloseTime   time.Time // 根据interval推算
	Open        decimal.Decimal
	High        decimal.Decimal
	Low         decimal.Decimal
	Close       decimal.Decimal
	Volume      decimal.Decimal // 交易货币数量
	VolCcy      decimal.Decimal
	QuoteVolume decimal.Decimal
	Confirmed   bool // 0未走完 1已走完
}

// AssetBalance 单币种余额
type AssetBalance struct {
	Asset     string
	Available decimal.Decimal
	Frozen    decimal.Decimal
	Total     decimal.Decimal
	UsdValue  decimal.Decimal
}

// AccountBalance 账户余额
type AccountBalance struct {
	TotalEquity      decimal.Decimal
	AvailableBalance decimal.Decimal
	FrozenBalance    decimal.Decimal
	AssetBalances    []AssetBalance
}

// Order 订单
type Order struct {
	OrderID            string
	ClientOrderID      string
	Symbol             string
	Side               SideType
	Type               OrderType
	OrigQty            decimal.Decimal
	ExecutedQty        decimal.Decimal // 扣除手续费后的实际成交数量
	Price              decimal.Decimal // 成交价格
	CumulativeQuoteQty decimal.Decimal
	Status             OrderStatus
	Fee                decimal.Decimal // 统一换算成计价货币
	FeeCurrency        string
	SCode              int    // 交易所状态码，0为正常
	SMsg               string // 交易所返回的错误信息
	CreateTime         time.Time
	UpdateTime         time.Time
}

// VenueError 交易所拒单错误
type VenueError struct {
	Code int
	Msg  string
}

func (e *VenueError) Error() string {
	return fmt.Sprintf("venue error, code: %d, message: %s", e.Code, e.Msg)
}

// IsVenueError check if e is a VenueError
func IsVenueError(e error) bool {
	_, ok := e.(*VenueError)
	return ok
}
