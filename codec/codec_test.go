package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePushFrame(t *testing.T) {
	raw := `{"arg":{"channel":"tickers","instId":"BTC-USDT"},"data":[{"last":"100","open24h":"80"}]}`

	f, err := Parse([]byte(raw))
	require.NoError(t, err)
	require.NotNil(t, f.Arg)
	assert.Equal(t, "tickers", f.Arg.Channel)
	assert.Equal(t, "BTC-USDT", f.Arg.InstID)

	ds, err := f.Tickers()
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Equal(t, "100", ds[0].Last)
}

func TestParseEventFrame(t *testing.T) {
	f, err := Parse([]byte(`{"event":"subscribe","arg":{"channel":"tickers","instId":"BTC-USDT"}}`))
	require.NoError(t, err)
	assert.Equal(t, "subscribe", f.Event)

	f, err = Parse([]byte(`{"event":"error","code":"60012","msg":"Illegal request"}`))
	require.NoError(t, err)
	assert.Equal(t, "error", f.Event)
	assert.Equal(t, "60012", f.Code)
}

func TestParseMalformed(t *testing.T) {
	cases := []string{
		`not json`,
		`{}`,
		`{"arg":{"instId":"BTC-USDT"},"data":[{}]}`,
		`{"arg":{"channel":"tickers","instId":"BTC-USDT"}}`,
	}
	for _, raw := range cases {
		_, err := Parse([]byte(raw))
		assert.ErrorIs(t, err, ErrMalformed, raw)
	}
}

func TestRows(t *testing.T) {
	raw := `{"arg":{"channel":"candle1m","instId":"BTC-USDT"},"data":[["1700000000000","1","2","0.5","1.5","10","15","20","1"]]}`

	f, err := Parse([]byte(raw))
	require.NoError(t, err)

	rows, err := f.Rows()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1700000000000", rows[0][0])
	assert.Equal(t, "1", rows[0][8])
}

func TestSubscribeFrame(t *testing.T) {
	frame, err := Subscribe(Arg{Channel: "candle1m", InstID: "BTC-USDT"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"op":"subscribe","args":[{"channel":"candle1m","instId":"BTC-USDT"}]}`, string(frame))

	frame, err = Unsubscribe(Arg{Channel: "tickers", InstID: "ETH-USDT"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"op":"unsubscribe","args":[{"channel":"tickers","instId":"ETH-USDT"}]}`, string(frame))
}

func TestLoginFrame(t *testing.T) {
	frame, err := Login("key", "pass", "1538054050", "c2lnbg==")
	require.NoError(t, err)
	assert.JSONEq(t, `{"op":"login","args":[{"apiKey":"key","passphrase":"pass","timestamp":"1538054050","sign":"c2lnbg=="}]}`, string(frame))
}

func TestRequestFrame(t *testing.T) {
	frame, err := Request("1", "order", Params{"instId": "BTC-USDT", "tdMode": "cash"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1","op":"order","args":[{"instId":"BTC-USDT","tdMode":"cash"}]}`, string(frame))
}
