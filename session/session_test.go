package session

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-gotop/okconn/websocket"
	"github.com/go-gotop/okconn/websocket/wstest"
)

func waitState(t *testing.T, s *Session, want State) {
	t.Helper()
	require.Eventually(t, func() bool {
		return s.State() == want
	}, 2*time.Second, 5*time.Millisecond, "state is %s, want %s", s.State(), want)
}

func factoryOf(conns ...*wstest.Conn) func() websocket.WebSocketConn {
	var mu sync.Mutex
	i := 0
	return func() websocket.WebSocketConn {
		mu.Lock()
		defer mu.Unlock()
		c := conns[i]
		if i < len(conns)-1 {
			i++
		}
		return c
	}
}

type recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recorder) handle(message []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, string(message))
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

func TestPublicSessionReady(t *testing.T) {
	conn := wstest.NewConn()
	rec := &recorder{}
	s := New("wss://example/public", rec.handle, WithConnFactory(factoryOf(conn)))
	defer s.Close()

	require.NoError(t, s.Start())
	waitState(t, s, StateReady)

	require.NoError(t, s.Send([]byte(`{"op":"subscribe"}`)))
	require.Eventually(t, func() bool {
		return len(conn.Sent()) == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, `{"op":"subscribe"}`, conn.Sent()[0])

	// pong只刷新流量时间，不进业务回调
	conn.Push("pong")
	conn.Push(`{"arg":{"channel":"tickers","instId":"BTC-USDT"},"data":[]}`)
	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Contains(t, rec.snapshot()[0], "tickers")
}

func TestSendBeforeReady(t *testing.T) {
	s := New("wss://example/public", nil, WithConnFactory(factoryOf(wstest.NewConn())))

	assert.ErrorIs(t, s.Send([]byte("x")), ErrNotReady)
}

func TestStartDialError(t *testing.T) {
	conn := wstest.NewConn()
	conn.DialErr = errors.New("connection refused")
	s := New("wss://example/public", nil, WithConnFactory(factoryOf(conn)))

	require.Error(t, s.Start())
	assert.Equal(t, StateDisconnected, s.State())
}

func TestPrivateLogin(t *testing.T) {
	conn := wstest.NewConn()
	conn.OnWrite = func(c *wstest.Conn, data []byte) {
		if strings.Contains(string(data), `"op":"login"`) {
			c.Push(`{"event":"login","code":"0","msg":""}`)
		}
	}
	creds := Credentials{APIKey: "key", SecretKey: "secret", Passphrase: "pass"}
	s := NewPrivate("wss://example/private", creds, nil, WithConnFactory(factoryOf(conn)))
	defer s.Close()

	require.NoError(t, s.Start())
	waitState(t, s, StateReady)

	sent := conn.Sent()
	require.NotEmpty(t, sent)
	assert.Contains(t, sent[0], `"op":"login"`)
	assert.Contains(t, sent[0], `"apiKey":"key"`)
}

func TestPrivateLoginRejected(t *testing.T) {
	conn := wstest.NewConn()
	conn.OnWrite = func(c *wstest.Conn, data []byte) {
		if strings.Contains(string(data), `"op":"login"`) {
			c.Push(`{"event":"login","code":"60009","msg":"Login failed"}`)
		}
	}
	creds := Credentials{APIKey: "key", SecretKey: "secret", Passphrase: "pass"}
	s := NewPrivate("wss://example/private", creds, nil,
		WithConnFactory(factoryOf(conn)),
		WithLoginTimeout(time.Second))
	defer s.Close()

	err := s.Start()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoginFailed)
	assert.NotEqual(t, StateReady, s.State())
}

func TestReconnectReplaysBeforeReady(t *testing.T) {
	conn1 := wstest.NewConn()
	conn2 := wstest.NewConn()
	s := New("wss://example/public", nil,
		WithConnFactory(factoryOf(conn1, conn2)),
		WithBackoff(5*time.Millisecond, 20*time.Millisecond))
	defer s.Close()

	var downReason error
	var downMu sync.Mutex
	s.OnDown(func(reason error) {
		downMu.Lock()
		downReason = reason
		downMu.Unlock()
	})
	s.OnReady(func() error {
		if err := s.Write([]byte(`{"op":"subscribe","args":[{"channel":"candle1m","instId":"BTC-USDT"}]}`)); err != nil {
			return err
		}
		return s.Write([]byte(`{"op":"subscribe","args":[{"channel":"tickers","instId":"BTC-USDT"}]}`))
	})

	require.NoError(t, s.Start())
	waitState(t, s, StateReady)

	conn1.FailRead(errors.New("unexpected EOF"))
	waitState(t, s, StateReady)

	// 重连成功后先重放订阅集再就绪
	require.Eventually(t, func() bool {
		return len(conn2.Sent()) >= 2
	}, 2*time.Second, 5*time.Millisecond)
	sent := conn2.Sent()
	assert.Contains(t, sent[0], "candle1m")
	assert.Contains(t, sent[1], "tickers")

	downMu.Lock()
	defer downMu.Unlock()
	assert.ErrorIs(t, downReason, ErrDisconnected)
}

func TestWritesSerialized(t *testing.T) {
	conn := wstest.NewConn()
	var inFlight atomic.Int32
	var overlapped atomic.Bool
	conn.OnWrite = func(c *wstest.Conn, data []byte) {
		if inFlight.Add(1) > 1 {
			overlapped.Store(true)
		}
		if string(data) == "ping" {
			c.Push("pong")
		}
		time.Sleep(time.Millisecond)
		inFlight.Add(-1)
	}
	s := New("wss://example/public", nil,
		WithConnFactory(factoryOf(conn)),
		WithHeartbeatInterval(10*time.Millisecond))
	defer s.Close()

	require.NoError(t, s.Start())
	waitState(t, s, StateReady)

	// 心跳、队列写和直写同时跑，底层连接任何时刻只能有一个写者
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				s.Send([]byte(`{"op":"subscribe"}`))
				s.Write([]byte(`{"op":"subscribe"}`))
				time.Sleep(time.Millisecond)
			}
		}()
	}
	wg.Wait()
	assert.False(t, overlapped.Load())
}

func TestStaleConnectionReconnects(t *testing.T) {
	// conn1对ping不回声，conn2正常应答
	conn1 := wstest.NewConn()
	conn2 := wstest.NewConn()
	conn2.OnWrite = func(c *wstest.Conn, data []byte) {
		if string(data) == "ping" {
			c.Push("pong")
		}
	}
	s := New("wss://example/public", nil,
		WithConnFactory(factoryOf(conn1, conn2)),
		WithHeartbeatInterval(10*time.Millisecond),
		WithBackoff(5*time.Millisecond, 20*time.Millisecond))
	defer s.Close()

	var downReason error
	var downMu sync.Mutex
	s.OnDown(func(reason error) {
		downMu.Lock()
		downReason = reason
		downMu.Unlock()
	})
	s.OnReady(func() error {
		return s.Write([]byte(`{"op":"subscribe","args":[{"channel":"tickers","instId":"BTC-USDT"}]}`))
	})

	require.NoError(t, s.Start())
	waitState(t, s, StateReady)

	// conn1上两个心跳周期内没有任何入站流量，判定僵死，换连接重连并重放
	require.Eventually(t, func() bool {
		for _, f := range conn2.Sent() {
			if strings.Contains(f, "tickers") {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)
	waitState(t, s, StateReady)

	downMu.Lock()
	defer downMu.Unlock()
	assert.ErrorIs(t, downReason, ErrDisconnected)
}

func TestSendBackpressure(t *testing.T) {
	conn := wstest.NewConn()
	entered := make(chan struct{})
	gate := make(chan struct{})
	var once sync.Once
	conn.OnWrite = func(c *wstest.Conn, data []byte) {
		once.Do(func() { close(entered) })
		<-gate
	}
	s := New("wss://example/public", nil,
		WithConnFactory(factoryOf(conn)),
		WithWriteBuffer(1))
	defer func() {
		close(gate)
		s.Close()
	}()

	require.NoError(t, s.Start())
	waitState(t, s, StateReady)

	// 第一帧被写协程取走后卡在传输层，第二帧占满队列
	require.NoError(t, s.Send([]byte("f1")))
	<-entered
	require.NoError(t, s.Send([]byte("f2")))
	assert.ErrorIs(t, s.Send([]byte("f3")), ErrBackpressure)
}

func TestCloseAborts(t *testing.T) {
	conn := wstest.NewConn()
	s := New("wss://example/public", nil, WithConnFactory(factoryOf(conn)))

	var downReason error
	var downMu sync.Mutex
	s.OnDown(func(reason error) {
		downMu.Lock()
		downReason = reason
		downMu.Unlock()
	})

	require.NoError(t, s.Start())
	waitState(t, s, StateReady)

	require.NoError(t, s.Close())
	assert.Equal(t, StateClosed, s.State())
	assert.ErrorIs(t, s.Send([]byte("x")), ErrNotReady)

	downMu.Lock()
	defer downMu.Unlock()
	assert.ErrorIs(t, downReason, ErrAborted)

	// 关闭后 Start 不再拉起
	assert.ErrorIs(t, s.Start(), ErrAborted)
}
