package subs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transcript struct {
	frames []string
}

func (tr *transcript) send(frame []byte) error {
	tr.frames = append(tr.frames, string(frame))
	return nil
}

func TestSubscribeRefCounting(t *testing.T) {
	tr := &transcript{}
	r := NewRegistry(tr.send, nil)

	topic := Topic{Channel: "candle1m", InstID: "BTC-USDT", Interval: "1m"}

	// 两次订阅只发一个协议帧
	require.NoError(t, r.Subscribe(topic))
	require.NoError(t, r.Subscribe(topic))
	assert.Len(t, tr.frames, 1)
	assert.Contains(t, tr.frames[0], `"op":"subscribe"`)

	// 第一次退订只减引用计数
	require.NoError(t, r.Unsubscribe(topic))
	assert.Len(t, tr.frames, 1)
	assert.True(t, r.Contains(topic))

	// 最后一个持有者退订才发取消帧
	require.NoError(t, r.Unsubscribe(topic))
	require.Len(t, tr.frames, 2)
	assert.Contains(t, tr.frames[1], `"op":"unsubscribe"`)
	assert.False(t, r.Contains(topic))

	// 没人持有时退订不发帧
	require.NoError(t, r.Unsubscribe(topic))
	assert.Len(t, tr.frames, 2)
}

func TestSubscribeSendError(t *testing.T) {
	sendErr := errors.New("write failed")
	r := NewRegistry(func([]byte) error { return sendErr }, nil)

	topic := Topic{Channel: "tickers", InstID: "BTC-USDT"}
	assert.ErrorIs(t, r.Subscribe(topic), sendErr)
	// 发送失败不落账
	assert.False(t, r.Contains(topic))
}

func TestSubscribeCarriesInstType(t *testing.T) {
	tr := &transcript{}
	r := NewRegistry(tr.send, nil)

	require.NoError(t, r.Subscribe(Topic{Channel: "orders", InstType: "SPOT"}))
	require.Len(t, tr.frames, 1)
	assert.Contains(t, tr.frames[0], `"channel":"orders"`)
	assert.Contains(t, tr.frames[0], `"instType":"SPOT"`)

	// 带instId的同频道订阅是另一个主题
	require.NoError(t, r.Subscribe(Topic{Channel: "orders", InstType: "SPOT", InstID: "BTC-USDT"}))
	require.Len(t, tr.frames, 2)
	assert.Contains(t, tr.frames[1], `"instId":"BTC-USDT"`)
	assert.Len(t, r.Topics(), 2)
}

func TestReplayDeterministicOrder(t *testing.T) {
	tr := &transcript{}
	r := NewRegistry(tr.send, nil)

	require.NoError(t, r.Subscribe(Topic{Channel: "tickers", InstID: "ETH-USDT"}))
	require.NoError(t, r.Subscribe(Topic{Channel: "candle1m", InstID: "BTC-USDT", Interval: "1m"}))
	require.NoError(t, r.Subscribe(Topic{Channel: "tickers", InstID: "BTC-USDT"}))

	tr.frames = nil
	require.NoError(t, r.Replay())

	// 按 (instId, channel, interval) 排序重放
	require.Len(t, tr.frames, 3)
	assert.Contains(t, tr.frames[0], `"channel":"candle1m"`)
	assert.Contains(t, tr.frames[0], `"instId":"BTC-USDT"`)
	assert.Contains(t, tr.frames[1], `"channel":"tickers"`)
	assert.Contains(t, tr.frames[1], `"instId":"BTC-USDT"`)
	assert.Contains(t, tr.frames[2], `"instId":"ETH-USDT"`)

	// 重放不改订阅集
	assert.Len(t, r.Topics(), 3)
}

func TestTopicsSnapshot(t *testing.T) {
	r := NewRegistry(func([]byte) error { return nil }, nil)

	require.NoError(t, r.Subscribe(Topic{Channel: "tickers", InstID: "BTC-USDT"}))
	require.NoError(t, r.Subscribe(Topic{Channel: "account"}))

	topics := r.Topics()
	require.Len(t, topics, 2)
	assert.Equal(t, "account", topics[0].Channel)

	r.Clear()
	assert.Empty(t, r.Topics())
}
