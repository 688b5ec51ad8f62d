package wstest

import (
	"errors"
	"net/http"
	"sync"

	gwebsocket "github.com/gorilla/websocket"
)

var errConnClosed = errors.New("wstest: connection closed")

// Conn 测试用假连接。入站消息通过 Push 注入，出站帧记录下来供断言，
// OnWrite 回调可以按脚本应答出站帧。
type Conn struct {
	mu      sync.Mutex
	sent    [][]byte
	readErr error

	inbox     chan []byte
	closed    chan struct{}
	closeOnce sync.Once

	// DialErr 不为空时 Dial 直接失败
	DialErr error
	// WriteErr 不为空时 WriteMessage 直接失败
	WriteErr error
	// OnWrite 每次写出站帧后同步调用
	OnWrite func(c *Conn, data []byte)
}

func NewConn() *Conn {
	return &Conn{
		inbox:  make(chan []byte, 64),
		closed: make(chan struct{}),
	}
}

func (c *Conn) Dial(endpoint string, requestHeader http.Header) error {
	return c.DialErr
}

func (c *Conn) ReadMessage() (int, []byte, error) {
	select {
	case m := <-c.inbox:
		return gwebsocket.TextMessage, m, nil
	case <-c.closed:
		c.mu.Lock()
		err := c.readErr
		c.mu.Unlock()
		if err == nil {
			err = errConnClosed
		}
		return 0, nil, err
	}
}

func (c *Conn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	if c.WriteErr != nil {
		err := c.WriteErr
		c.mu.Unlock()
		return err
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	c.sent = append(c.sent, buf)
	onWrite := c.OnWrite
	c.mu.Unlock()

	if onWrite != nil {
		onWrite(c, data)
	}
	return nil
}

func (c *Conn) SetPingHandler(h func(appData string) error) {}

func (c *Conn) SetPongHandler(h func(appData string) error) {}

func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
	return nil
}

// Push 注入一条入站消息
func (c *Conn) Push(frame string) {
	select {
	case c.inbox <- []byte(frame):
	case <-c.closed:
	}
}

// FailRead 模拟传输层故障，读协程拿到err退出
func (c *Conn) FailRead(err error) {
	c.mu.Lock()
	c.readErr = err
	c.mu.Unlock()
	c.closeOnce.Do(func() {
		close(c.closed)
	})
}

// Sent 出站帧快照
func (c *Conn) Sent() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.sent))
	for _, b := range c.sent {
		out = append(out, string(b))
	}
	return out
}
