package router

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/go-gotop/okconn/codec"
)

func TestSplitChannel(t *testing.T) {
	cases := []struct {
		channel  string
		prefix   string
		interval string
	}{
		{"tickers", "tickers", ""},
		{"account", "account", ""},
		{"candle1m", "candle", "1m"},
		{"candle1M", "candle", "1M"},
		{"candle12H", "candle", "12H"},
		{"mark-price", "mark-price", ""},
		{"mark-price-candle1H", "mark-price-candle", "1H"},
		// 后缀撞上周期但前缀不是K线频道，按原名处理
		{"custom1m", "custom1m", ""},
	}
	for _, c := range cases {
		prefix, interval, ok := SplitChannel(c.channel)
		assert.True(t, ok)
		assert.Equal(t, c.prefix, prefix, c.channel)
		assert.Equal(t, c.interval, interval, c.channel)
	}
}

func TestDispatch(t *testing.T) {
	r := NewRouter()

	var got []string
	r.Register("tickers", func(f *codec.Frame) {
		got = append(got, "tickers:"+f.Arg.InstID)
	})
	r.Register("candle", func(f *codec.Frame) {
		got = append(got, "candle:"+f.Arg.Channel)
	})

	r.Dispatch(&codec.Frame{Arg: &codec.Arg{Channel: "tickers", InstID: "BTC-USDT"}})
	r.Dispatch(&codec.Frame{Arg: &codec.Arg{Channel: "candle1m", InstID: "BTC-USDT"}})
	r.Dispatch(&codec.Frame{Arg: &codec.Arg{Channel: "candle4H", InstID: "ETH-USDT"}})

	assert.Equal(t, []string{"tickers:BTC-USDT", "candle:candle1m", "candle:candle4H"}, got)
	assert.Equal(t, uint64(0), r.Dropped())
}

func TestDispatchUnknownChannel(t *testing.T) {
	r := NewRouter()
	r.Register("tickers", func(f *codec.Frame) {
		t.Fatal("unexpected dispatch")
	})

	r.Dispatch(&codec.Frame{Arg: &codec.Arg{Channel: "books5", InstID: "BTC-USDT"}})
	r.Dispatch(&codec.Frame{Arg: &codec.Arg{}})
	r.Dispatch(nil)

	assert.Equal(t, uint64(3), r.Dropped())
}

func TestValidInterval(t *testing.T) {
	assert.True(t, ValidInterval("1m"))
	assert.True(t, ValidInterval("1M"))
	assert.True(t, ValidInterval("12H"))
	assert.False(t, ValidInterval("2m"))
	assert.False(t, ValidInterval("1d"))
	assert.False(t, ValidInterval(""))
	assert.Len(t, Intervals(), 14)
}
