package session

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	gwebsocket "github.com/gorilla/websocket"

	"github.com/go-gotop/okconn/codec"
	"github.com/go-gotop/okconn/signer"
	"github.com/go-gotop/okconn/websocket"
	"github.com/go-gotop/okconn/websocket/gorilla"
)

// State 会话状态
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateAuthenticating // 仅私有连接
	StateReady
	StateReconnecting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateAuthenticating:
		return "AUTHENTICATING"
	case StateReady:
		return "READY"
	case StateReconnecting:
		return "RECONNECTING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

var (
	// ErrNotReady 会话还没就绪
	ErrNotReady = errors.New("session not ready")
	// ErrBackpressure 出站队列已满
	ErrBackpressure = errors.New("outbound queue full")
	// ErrDisconnected 会话在请求完成前断开
	ErrDisconnected = errors.New("session disconnected")
	// ErrAborted 会话已关闭
	ErrAborted = errors.New("session aborted")
	// ErrNotConnected 底层连接不存在
	ErrNotConnected = errors.New("websocket not connected")
	// ErrLoginFailed 登录被拒绝
	ErrLoginFailed = errors.New("login rejected")
	// errStale 心跳超时，连接已僵死
	errStale = errors.New("connection stale, no traffic within heartbeat window")
)

// Credentials 私有连接的登录凭证
type Credentials struct {
	APIKey     string
	SecretKey  string
	Passphrase string
}

// Session 一条全双工连接的生命周期：连接、登录(私有)、心跳、重连、关闭。
// 重连成功后先重放订阅集(onReady)再对外就绪，断开前挂起的请求统一以
// ErrDisconnected 失败，由调用方决定是否重发。
type Session struct {
	opts     *options
	id       string
	private  bool
	creds    Credentials
	endpoint string

	state     atomic.Int32
	mu        sync.Mutex // 保护 ws 指针
	writeMu   sync.Mutex // 底层连接同一时刻只允许一个写者
	ws        *gorilla.GorillaWebsocket
	writeCh   chan []byte
	exitCh    chan struct{}
	loginCh   chan error
	started   atomic.Bool
	closeOnce sync.Once

	lastTraffic atomic.Int64 // unix nano，收到任何入站字节就刷新

	// handler 收到业务帧后的回调，按到达顺序串行调用
	handler func(message []byte)
	// onReady 连接(重连)成功后、对外就绪前执行，用于重放订阅集
	onReady func() error
	// onDown 会话断开或关闭时执行，用于让挂起的请求失败
	onDown func(reason error)
}

// New 创建一个公有会话
func New(endpoint string, handler func([]byte), opts ...Option) *Session {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Session{
		opts:     o,
		id:       uuid.New().String(),
		endpoint: endpoint,
		handler:  handler,
		writeCh:  make(chan []byte, o.writeBuffer),
		exitCh:   make(chan struct{}),
		loginCh:  make(chan error, 1),
	}
}

// NewPrivate 创建一个私有会话，Start 时会先登录
func NewPrivate(endpoint string, creds Credentials, handler func([]byte), opts ...Option) *Session {
	s := New(endpoint, handler, opts...)
	s.private = true
	s.creds = creds
	return s
}

// OnReady 注册就绪前的重放回调
func (s *Session) OnReady(f func() error) {
	s.onReady = f
}

// OnDown 注册断开回调
func (s *Session) OnDown(f func(reason error)) {
	s.onDown = f
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() State {
	return State(s.state.Load())
}

// Start 打开连接，私有会话先登录，然后启动写协程和心跳
func (s *Session) Start() error {
	if s.State() == StateClosed {
		return ErrAborted
	}
	if err := s.connect(); err != nil {
		s.state.Store(int32(StateDisconnected))
		return err
	}
	if s.started.CompareAndSwap(false, true) {
		go s.writeLoop()
		go s.heartbeatLoop()
	}
	return nil
}

// Send 把帧排进出站队列。会话不在就绪态时立刻失败，队列满时返回 ErrBackpressure。
func (s *Session) Send(frame []byte) error {
	if s.State() != StateReady {
		return ErrNotReady
	}
	select {
	case s.writeCh <- frame:
		return nil
	default:
		return ErrBackpressure
	}
}

// Write 绕过队列直接写，登录、心跳和订阅重放走这里。
// 写协程、心跳协程和重连协程都会进来，writeMu把写串行化。
func (s *Session) Write(frame []byte) error {
	s.mu.Lock()
	ws := s.ws
	s.mu.Unlock()
	if ws == nil {
		return ErrNotConnected
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return ws.WriteMessage(gwebsocket.TextMessage, frame)
}

// Close 关闭会话，挂起的请求以 ErrAborted 失败
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.state.Store(int32(StateClosed))
		close(s.exitCh)
		s.mu.Lock()
		ws := s.ws
		s.ws = nil
		s.mu.Unlock()
		if ws != nil {
			ws.Disconnect()
		}
		if s.onDown != nil {
			s.onDown(ErrAborted)
		}
	})
	return nil
}

func (s *Session) connect() error {
	s.state.Store(int32(StateConnecting))

	ws := gorilla.NewGorillaWebsocket(s.opts.connFactory(), &websocket.WebsocketConfig{})
	err := ws.Connect(&websocket.WebsocketRequest{
		Endpoint:       s.endpoint,
		ID:             s.id,
		MessageHandler: s.onMessage,
		ErrorHandler:   s.onConnError,
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.ws = ws
	s.mu.Unlock()
	s.touch()

	if s.private {
		if err := s.login(); err != nil {
			s.dropConn()
			return err
		}
	}

	// 对外就绪前先重放订阅集
	if s.onReady != nil {
		if err := s.onReady(); err != nil {
			s.dropConn()
			return err
		}
	}

	s.state.Store(int32(StateReady))
	s.opts.logger.Infof("session %s ready, endpoint: %s", s.id, s.endpoint)
	return nil
}

func (s *Session) login() error {
	s.state.Store(int32(StateAuthenticating))

	// 登录签名用秒级时间戳
	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	sign, err := signer.Sign(timestamp, "GET", "/users/self/verify", "", s.creds.SecretKey)
	if err != nil {
		return err
	}
	frame, err := codec.Login(s.creds.APIKey, s.creds.Passphrase, timestamp, sign)
	if err != nil {
		return err
	}

	// 清掉上一轮可能残留的登录结果
	select {
	case <-s.loginCh:
	default:
	}

	if err := s.Write(frame); err != nil {
		return err
	}

	select {
	case err := <-s.loginCh:
		return err
	case <-time.After(s.opts.loginTimeout):
		return ErrLoginFailed
	case <-s.exitCh:
		return ErrAborted
	}
}

func (s *Session) onMessage(message []byte) {
	s.touch()

	if string(message) == "pong" {
		// 心跳应答，只刷新流量时间
		return
	}

	j, err := codec.NewJSON(message)
	if err != nil {
		s.opts.logger.Error("new json error", err)
		return
	}

	event := j.Get("event").MustString()

	if event == "login" {
		if j.Get("code").MustString() == "0" {
			s.signalLogin(nil)
		} else {
			s.signalLogin(fmt.Errorf("%w: %s", ErrLoginFailed, j.Get("msg").MustString()))
		}
		return
	}

	if event == "error" && s.State() == StateAuthenticating {
		s.signalLogin(fmt.Errorf("%w: %s", ErrLoginFailed, j.Get("msg").MustString()))
		return
	}

	if s.handler != nil {
		s.handler(message)
	}
}

func (s *Session) signalLogin(err error) {
	select {
	case s.loginCh <- err:
	default:
	}
}

func (s *Session) onConnError(err error) {
	// 读协程里触发，另起协程避免 Disconnect 等待读协程退出时互相卡住
	go s.triggerReconnect(err)
}

// triggerReconnect 把会话切到重连态，只允许一个重连循环在跑
func (s *Session) triggerReconnect(cause error) {
	for {
		st := s.State()
		if st == StateClosed || st == StateReconnecting || st == StateConnecting || st == StateAuthenticating {
			return
		}
		if s.state.CompareAndSwap(int32(st), int32(StateReconnecting)) {
			break
		}
	}

	s.opts.logger.Warnf("session %s down: %v, reconnecting", s.id, cause)
	s.dropConn()

	// 断开前挂起的请求不重放，统一失败，让调用方决定是否重发
	if s.onDown != nil {
		s.onDown(ErrDisconnected)
	}

	go s.reconnectLoop()
}

func (s *Session) reconnectLoop() {
	backoff := s.opts.backoffInitial
	for {
		select {
		case <-s.exitCh:
			return
		case <-time.After(jitter(backoff)):
		}

		if s.State() == StateClosed {
			return
		}

		if err := s.connect(); err == nil {
			return
		} else {
			s.opts.logger.Warnf("session %s reconnect failed: %v", s.id, err)
		}

		s.state.Store(int32(StateReconnecting))
		backoff *= 2
		if backoff > s.opts.backoffMax {
			backoff = s.opts.backoffMax
		}
	}
}

// jitter 指数退避加随机抖动，最多多睡半个周期
func jitter(d time.Duration) time.Duration {
	return d + time.Duration(rand.Int63n(int64(d)/2+1))
}

func (s *Session) writeLoop() {
	for {
		select {
		case <-s.exitCh:
			// 关闭时把队列排干
			for {
				select {
				case frame := <-s.writeCh:
					s.Write(frame)
				default:
					return
				}
			}
		case frame := <-s.writeCh:
			if err := s.Write(frame); err != nil {
				s.opts.logger.Error("write frame error", err)
			}
		}
	}
}

func (s *Session) heartbeatLoop() {
	ticker := time.NewTicker(s.opts.heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.exitCh:
			return
		case <-ticker.C:
			if s.State() != StateReady {
				continue
			}
			// 两个心跳周期内没有任何入站流量，判定连接僵死
			if time.Since(time.Unix(0, s.lastTraffic.Load())) > 2*s.opts.heartbeatInterval {
				s.triggerReconnect(errStale)
				continue
			}
			if err := s.Write([]byte("ping")); err != nil {
				s.opts.logger.Error("write ping message error", err)
				s.triggerReconnect(err)
			}
		}
	}
}

func (s *Session) touch() {
	s.lastTraffic.Store(time.Now().UnixNano())
}

func (s *Session) dropConn() {
	s.mu.Lock()
	ws := s.ws
	s.ws = nil
	s.mu.Unlock()
	if ws != nil {
		ws.Disconnect()
	}
}
