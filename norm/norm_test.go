package norm

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-gotop/okconn/codec"
	"github.com/go-gotop/okconn/exchange"
)

func TestToTicker(t *testing.T) {
	d := codec.TickerData{
		Last:      "100",
		Open24h:   "80",
		BidPx:     "99",
		AskPx:     "101",
		High24h:   "110",
		Low24h:    "70",
		Vol24h:    "5",
		VolCcy24h: "500",
		Timestamp: "1700000000000",
	}

	ticker := ToTicker("BTC-USDT", "tickers", d)

	assert.Equal(t, "BTC-USDT", ticker.Symbol)
	assert.True(t, ticker.LastPrice.Equal(decimal.RequireFromString("100")))
	assert.True(t, ticker.PriceChange.Equal(decimal.RequireFromString("20")))
	assert.True(t, ticker.PriceChangePercent.Equal(decimal.RequireFromString("25")))
	assert.True(t, ticker.BidPrice.Equal(decimal.RequireFromString("99")))
	assert.True(t, ticker.AskPrice.Equal(decimal.RequireFromString("101")))
	assert.True(t, ticker.HighPrice.Equal(decimal.RequireFromString("110")))
	assert.True(t, ticker.LowPrice.Equal(decimal.RequireFromString("70")))
	assert.Equal(t, int64(1700000000000), ticker.Timestamp.UnixMilli())
}

func TestToTickerZeroOpen(t *testing.T) {
	// open24h为0时涨跌幅按0处理
	d := codec.TickerData{Last: "100", Open24h: "0", Timestamp: "1700000000000"}

	ticker := ToTicker("BTC-USDT", "tickers", d)

	assert.True(t, ticker.PriceChangePercent.IsZero())
	assert.True(t, ticker.PriceChange.Equal(decimal.RequireFromString("100")))
}

func TestToOrderFeeInBaseAsset(t *testing.T) {
	d := codec.OrderData{
		InstID:    "BNB-USDT",
		Side:      "buy",
		Sz:        "2",
		AccFillSz: "0.003112",
		FillPx:    "642.5",
		Fee:       "-0.000003112",
		FeeCcy:    "BNB",
		State:     "filled",
	}

	o := ToOrder(d)

	assert.Equal(t, exchange.SideTypeBuy, o.Side)
	assert.Equal(t, exchange.OrderStatusFilled, o.Status)
	assert.True(t, o.ExecutedQty.Equal(decimal.RequireFromString("0.003108888")), o.ExecutedQty.String())
	assert.True(t, o.Fee.Equal(decimal.RequireFromString("0.00199946")), o.Fee.String())
}

func TestToOrderFeeInQuoteAsset(t *testing.T) {
	d := codec.OrderData{
		InstID:    "BTC-USDT",
		Side:      "sell",
		AccFillSz: "0.00004324",
		FillPx:    "100000",
		Fee:       "-0.004593758",
		FeeCcy:    "USDT",
		State:     "filled",
	}

	o := ToOrder(d)

	// 手续费按成交价折算后向下取整到12位再从成交量里扣掉
	assert.True(t, o.ExecutedQty.Equal(decimal.RequireFromString("0.000043194063")), o.ExecutedQty.String())
	assert.True(t, o.Fee.Equal(decimal.RequireFromString("0.004593758")), o.Fee.String())
	assert.True(t, o.CumulativeQuoteQty.Equal(decimal.RequireFromString("4.3194063")), o.CumulativeQuoteQty.String())
}

func TestToOrderVenueCode(t *testing.T) {
	d := codec.OrderData{
		InstID:        "BTC-USDT",
		ClientOrderID: "1700000000000abcd1234",
		SCode:         "51008",
		SMsg:          "insufficient balance",
	}

	o := ToOrder(d)

	assert.Equal(t, 51008, o.SCode)
	assert.Equal(t, "insufficient balance", o.SMsg)
}

func TestToCandle(t *testing.T) {
	row := []string{"1700000000000", "1", "2", "0.5", "1.5", "10", "15", "20", "0"}

	c, err := ToCandle("BTC-USDT", "1m", row)
	require.NoError(t, err)

	assert.Equal(t, int64(1700000000000), c.OpenTime.UnixMilli())
	assert.Equal(t, c.OpenTime.Add(time.Minute), c.CloseTime)
	assert.True(t, c.Open.Equal(decimal.RequireFromString("1")))
	assert.True(t, c.QuoteVolume.Equal(decimal.RequireFromString("20")))
	assert.False(t, c.Confirmed)

	row[8] = "1"
	c, err = ToCandle("BTC-USDT", "1m", row)
	require.NoError(t, err)
	assert.True(t, c.Confirmed)
}

func TestToCandleRestRow(t *testing.T) {
	// REST历史K线只有7列，默认已走完
	row := []string{"1700000000000", "1", "2", "0.5", "1.5", "10", "15"}

	c, err := ToCandle("BTC-USDT", "1H", row)
	require.NoError(t, err)
	assert.True(t, c.Confirmed)
	assert.Equal(t, c.OpenTime.Add(time.Hour), c.CloseTime)
}

func TestToCandleMalformed(t *testing.T) {
	_, err := ToCandle("BTC-USDT", "1m", []string{"1700000000000", "1"})
	assert.ErrorIs(t, err, codec.ErrMalformed)

	_, err = ToCandle("BTC-USDT", "1m", []string{"bad-ts", "1", "2", "0.5", "1.5", "10", "15"})
	assert.ErrorIs(t, err, codec.ErrMalformed)
}

func TestCloseTime(t *testing.T) {
	open := time.Date(2023, 11, 14, 22, 13, 20, 0, exchange.Loc)

	assert.Equal(t, open.Add(30*time.Minute), CloseTime(open, "30m"))
	assert.Equal(t, open.Add(4*time.Hour), CloseTime(open, "4H"))
	assert.Equal(t, open.AddDate(0, 0, 1), CloseTime(open, "1D"))
	assert.Equal(t, open.AddDate(0, 0, 7), CloseTime(open, "1W"))
	assert.Equal(t, open.AddDate(0, 3, 0), CloseTime(open, "3M"))
}

func TestToBalance(t *testing.T) {
	d := codec.BalanceData{
		TotalEq: "1000",
		Details: []codec.BalanceDetail{
			{Ccy: "USDT", AvailEq: "500", Eq: "500", EqUsd: "500"},
			{Ccy: "BTC", AvailEq: "0.005", Eq: "0.01", EqUsd: "400"},
		},
	}

	b := ToBalance(d)

	// 可用余额按每币种 可用/总额*美元估值 求和：500 + 0.5*400
	assert.True(t, b.AvailableBalance.Equal(decimal.RequireFromString("700")), b.AvailableBalance.String())
	assert.True(t, b.FrozenBalance.Equal(decimal.RequireFromString("300")), b.FrozenBalance.String())
	require.Len(t, b.AssetBalances, 2)
	assert.Equal(t, "USDT", b.AssetBalances[0].Asset)
}

func TestMapOrderStatus(t *testing.T) {
	assert.Equal(t, exchange.OrderStatusNew, MapOrderStatus("live"))
	assert.Equal(t, exchange.OrderStatusPartiallyFilled, MapOrderStatus("partially_filled"))
	assert.Equal(t, exchange.OrderStatusFilled, MapOrderStatus("filled"))
	assert.Equal(t, exchange.OrderStatusCanceled, MapOrderStatus("canceled"))
	assert.Equal(t, exchange.OrderStatusCanceling, MapOrderStatus("canceling"))
	// 未知状态大写透传
	assert.Equal(t, exchange.OrderStatus("MMP_CANCELED"), MapOrderStatus("mmp_canceled"))
}

func TestPureDecoding(t *testing.T) {
	row := []string{"1700000000000", "1", "2", "0.5", "1.5", "10", "15", "20", "1"}

	first, err := ToCandle("BTC-USDT", "1m", row)
	require.NoError(t, err)
	second, err := ToCandle("BTC-USDT", "1m", row)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
