package norm

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/go-gotop/okconn/codec"
	"github.com/go-gotop/okconn/exchange"
)

var hundred = decimal.NewFromInt(100)

// dec 宽松转换，空串或非法值按0处理
func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func millis(s string) time.Time {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return exchange.MillisToTime(ms)
}

// ToTicker 把 tickers/mark-price 推送转成行情记录
func ToTicker(symbol, channel string, d codec.TickerData) *exchange.Ticker {
	t := &exchange.Ticker{
		Symbol:      symbol,
		Channel:     channel,
		LastPrice:   dec(d.Last),
		BidPrice:    dec(d.BidPx),
		BidQty:      dec(d.BidSz),
		AskPrice:    dec(d.AskPx),
		AskQty:      dec(d.AskSz),
		HighPrice:   dec(d.High24h),
		LowPrice:    dec(d.Low24h),
		Volume:      dec(d.Vol24h),
		QuoteVolume: dec(d.VolCcy24h),
		Open24h:     dec(d.Open24h),
		Timestamp:   millis(d.Timestamp),
	}

	t.PriceChange = t.LastPrice.Sub(t.Open24h)
	// open24h 为0时涨跌幅按0处理，不做除零
	if t.Open24h.IsPositive() {
		t.PriceChangePercent = t.PriceChange.Mul(hundred).DivRound(t.Open24h, 4)
	} else {
		t.PriceChangePercent = decimal.Zero
	}
	return t
}

// ToCandle 解析单行K线，标准格式 [ts,o,h,l,c,vol,volCcy,volCcyQuote,confirm]。
// REST历史K线只有7列，默认已走完。
func ToCandle(symbol, interval string, row []string) (*exchange.Candlestick, error) {
	if len(row) < 7 {
		return nil, codec.ErrMalformed
	}

	ms, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return nil, codec.ErrMalformed
	}
	openTime := exchange.MillisToTime(ms)

	c := &exchange.Candlestick{
		Symbol:    symbol,
		Interval:  interval,
		OpenTime:  openTime,
		CloseTime: CloseTime(openTime, interval),
		Open:      dec(row[1]),
		High:      dec(row[2]),
		Low:       dec(row[3]),
		Close:     dec(row[4]),
		Volume:    dec(row[5]),
		VolCcy:    dec(row[6]),
	}

	if len(row) >= 9 {
		c.QuoteVolume = dec(row[7])
		// 最后一位是走完标记，0未走完 1已走完
		c.Confirmed = row[len(row)-1] == "1"
	} else {
		c.QuoteVolume = dec(row[6])
		c.Confirmed = true
	}
	return c, nil
}

// ToCandles 批量解析K线行
func ToCandles(symbol, interval string, rows [][]string) ([]*exchange.Candlestick, error) {
	out := make([]*exchange.Candlestick, 0, len(rows))
	for _, row := range rows {
		c, err := ToCandle(symbol, interval, row)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// CloseTime 根据开盘时间和周期推算收盘时间
func CloseTime(openTime time.Time, interval string) time.Time {
	if interval == "" {
		return openTime.Add(time.Minute)
	}
	unit := interval[len(interval)-1:]
	amount, err := strconv.Atoi(interval[:len(interval)-1])
	if err != nil {
		amount = 1
	}
	switch unit {
	case "m":
		return openTime.Add(time.Duration(amount) * time.Minute)
	case "H":
		return openTime.Add(time.Duration(amount) * time.Hour)
	case "D":
		return openTime.AddDate(0, 0, amount)
	case "W":
		return openTime.AddDate(0, 0, 7*amount)
	case "M":
		return openTime.AddDate(0, amount, 0)
	default:
		return openTime.Add(time.Minute)
	}
}

// ToBalance 把 account 推送转成账户余额。
// 可用余额按每个币种 可用/总额*美元估值 求和，冻结为总权益减可用。
func ToBalance(d codec.BalanceData) *exchange.AccountBalance {
	b := &exchange.AccountBalance{
		TotalEquity: dec(d.TotalEq),
	}

	available := decimal.Zero
	for _, detail := range d.Details {
		ab := exchange.AssetBalance{
			Asset:     detail.Ccy,
			Available: dec(detail.AvailEq),
			Frozen:    dec(detail.FrozenBal),
			Total:     dec(detail.Eq),
			UsdValue:  dec(detail.EqUsd),
		}
		b.AssetBalances = append(b.AssetBalances, ab)

		if ab.Total.IsPositive() {
			available = available.Add(ab.Available.DivRound(ab.Total, 8).Mul(ab.UsdValue))
		}
	}

	b.AvailableBalance = available
	b.FrozenBalance = b.TotalEquity.Sub(available)
	return b
}

// ToOrder 把订单数据转成订单记录。
// 成交数量要扣掉手续费：手续费币种是交易货币时直接减，否则按成交价折算后
// 向下取整到12位再减；上报的手续费统一换算成计价货币。
func ToOrder(d codec.OrderData) *exchange.Order {
	o := &exchange.Order{
		OrderID:       d.OrderID,
		ClientOrderID: d.ClientOrderID,
		Symbol:        d.InstID,
		Side:          exchange.SideType(strings.ToUpper(d.Side)),
		Type:          MapOrderType(d.OrderType),
		OrigQty:       dec(d.Sz),
		Price:         dec(d.FillPx),
		Status:        MapOrderStatus(d.State),
		FeeCurrency:   d.FeeCcy,
		SMsg:          d.SMsg,
		CreateTime:    millis(d.CreateTime),
		UpdateTime:    millis(d.UpdateTime),
	}

	if d.SCode != "" {
		if code, err := strconv.Atoi(d.SCode); err == nil {
			o.SCode = code
		}
	}

	fee := dec(d.Fee).Abs()
	fillPx := dec(d.FillPx)
	accFillSz := dec(d.AccFillSz)

	if d.FeeCcy != "" && d.FeeCcy == exchange.BaseAsset(d.InstID) {
		o.ExecutedQty = accFillSz.Sub(fee)
		o.Fee = fee.Mul(fillPx)
	} else {
		feeSz := decimal.Zero
		if fillPx.IsPositive() {
			feeSz = fee.DivRound(fillPx, 16).Truncate(12)
		}
		o.ExecutedQty = accFillSz.Sub(feeSz)
		o.Fee = fee
	}

	o.CumulativeQuoteQty = o.ExecutedQty.Mul(fillPx)
	return o
}

// MapOrderStatus OKX订单状态映射到标准状态，未知值大写透传
func MapOrderStatus(state string) exchange.OrderStatus {
	switch state {
	case "live":
		return exchange.OrderStatusNew
	case "partially_filled":
		return exchange.OrderStatusPartiallyFilled
	case "filled":
		return exchange.OrderStatusFilled
	case "canceled":
		return exchange.OrderStatusCanceled
	case "canceling":
		return exchange.OrderStatusCanceling
	default:
		return exchange.OrderStatus(strings.ToUpper(state))
	}
}

// MapOrderType OKX订单类型映射到标准类型
func MapOrderType(t string) exchange.OrderType {
	switch t {
	case "limit":
		return exchange.OrderTypeLimit
	case "market":
		return exchange.OrderTypeMarket
	default:
		return exchange.OrderType(strings.ToUpper(t))
	}
}

// MapToOkxOrderType 标准类型映射回OKX类型
func MapToOkxOrderType(t string) string {
	return strings.ToLower(t)
}
