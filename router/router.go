package router

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-gotop/okconn/codec"
)

// intervals OKX支持的K线周期，频道名后缀固定为这个集合
var intervals = []string{
	"1m", "3m", "5m", "15m", "30m",
	"1H", "2H", "4H", "6H", "12H",
	"1D", "1W", "1M", "3M",
}

// Handler 单个频道的处理函数
type Handler func(f *codec.Frame)

// Router 按频道前缀分发入站帧
type Router struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	dropped  atomic.Uint64
}

func NewRouter() *Router {
	return &Router{
		handlers: make(map[string]Handler),
	}
}

// Register 注册频道前缀处理函数，candle频道只注册一次 "candle" 前缀
func (r *Router) Register(prefix string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[prefix] = h
}

// Dispatch 把帧分发给对应的处理函数，未知频道丢弃并计数
func (r *Router) Dispatch(f *codec.Frame) {
	if f == nil || f.Arg == nil || f.Arg.Channel == "" {
		r.dropped.Add(1)
		return
	}
	prefix, _, ok := SplitChannel(f.Arg.Channel)
	if !ok {
		r.dropped.Add(1)
		return
	}

	r.mu.RLock()
	h := r.handlers[prefix]
	r.mu.RUnlock()

	if h == nil {
		r.dropped.Add(1)
		return
	}
	h(f)
}

// Dropped 被丢弃的帧数量
func (r *Router) Dropped() uint64 {
	return r.dropped.Load()
}

// SplitChannel 把频道名拆成前缀和周期。
// candle1m -> (candle, 1m)，mark-price-candle1H -> (mark-price-candle, 1H)，
// 其他频道周期为空。后缀不在固定集合里的按原名处理。
func SplitChannel(channel string) (prefix, interval string, ok bool) {
	for _, iv := range intervals {
		if !strings.HasSuffix(channel, iv) {
			continue
		}
		head := channel[:len(channel)-len(iv)]
		if head == "candle" || head == "mark-price-candle" {
			return head, iv, true
		}
	}
	return channel, "", true
}

// Intervals 固定的K线周期集合
func Intervals() []string {
	out := make([]string, len(intervals))
	copy(out, intervals)
	return out
}

// ValidInterval 周期是否属于固定集合
func ValidInterval(interval string) bool {
	for _, iv := range intervals {
		if iv == interval {
			return true
		}
	}
	return false
}
