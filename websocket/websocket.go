package websocket

import (
	"net/http"
	"time"
)

type WebSocketConn interface {
	Dial(endpoint string, requestHeader http.Header) error
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetPingHandler(h func(appData string) error)
	SetPongHandler(h func(appData string) error)
	Close() error
}

// WebsocketConfig 结构体定义了WebSocket实例的配置选项
type WebsocketConfig struct {
	PingHandler func(appData string) error
	PongHandler func(appData string) error
}

type WebsocketRequest struct {
	// Endpoint 是Websocket服务器的地址
	Endpoint string

	// ID 是Websocket连接的唯一标识符
	ID string

	// MessageHandler 是Websocket消息处理函数
	MessageHandler func([]byte)

	// ErrorHandler 是Websocket错误处理函数
	ErrorHandler func(err error)

	// ConnectedHandler 连接建立后的回调，私有连接在这里发登录帧
	ConnectedHandler func(id string, conn WebSocketConn)
}

// Websocket 接口定义了基本的连接管理操作
type Websocket interface {
	// Connect 方法用于建立Websocket连接
	Connect(req *WebsocketRequest) error

	// Disconnect 方法用于关闭Websocket连接
	Disconnect() error

	// IsConnected 方法用于检查Websocket连接是否处于活跃状态
	IsConnected() bool

	// WriteMessage 方法用于向连接写入一条消息
	WriteMessage(messageType int, data []byte) error

	// ConnectionDuration 方法用于获取当前连接的持续时间
	ConnectionDuration() time.Duration
}
