package session

import (
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/go-gotop/okconn/websocket"
	"github.com/go-gotop/okconn/websocket/gorilla"
)

type Option func(*options)

type options struct {
	logger            *log.Helper
	heartbeatInterval time.Duration // ping发送间隔
	loginTimeout      time.Duration
	writeBuffer       int           // 出站队列长度
	backoffInitial    time.Duration // 重连退避起始值
	backoffMax        time.Duration // 重连退避上限
	connFactory       func() websocket.WebSocketConn
}

func defaultOptions() *options {
	return &options{
		logger:            log.NewHelper(log.DefaultLogger),
		heartbeatInterval: 20 * time.Second,
		loginTimeout:      10 * time.Second,
		writeBuffer:       64,
		backoffInitial:    time.Second,
		backoffMax:        30 * time.Second,
		connFactory: func() websocket.WebSocketConn {
			return gorilla.NewGorillaWebSocketConn()
		},
	}
}

func WithLogger(logger *log.Helper) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithHeartbeatInterval(d time.Duration) Option {
	return func(o *options) {
		o.heartbeatInterval = d
	}
}

func WithLoginTimeout(d time.Duration) Option {
	return func(o *options) {
		o.loginTimeout = d
	}
}

func WithWriteBuffer(n int) Option {
	return func(o *options) {
		o.writeBuffer = n
	}
}

func WithBackoff(initial, max time.Duration) Option {
	return func(o *options) {
		o.backoffInitial = initial
		o.backoffMax = max
	}
}

// WithConnFactory 注入底层连接的构造函数，测试用假连接替换
func WithConnFactory(f func() websocket.WebSocketConn) Option {
	return func(o *options) {
		o.connFactory = f
	}
}
