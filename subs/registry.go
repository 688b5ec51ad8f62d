package subs

import (
	"sort"
	"sync"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/go-gotop/okconn/codec"
)

// Topic 订阅主题，(channel, instType, instId, interval) 唯一
type Topic struct {
	Channel  string
	InstType string
	InstID   string
	Interval string
}

func (t Topic) arg() codec.Arg {
	return codec.Arg{Channel: t.Channel, InstType: t.InstType, InstID: t.InstID}
}

// Sender 把订阅/取消订阅帧发给会话
type Sender func(frame []byte) error

// Registry 订阅注册表，记录服务端应该给我们推什么。
// 引用计数，0到1才发订阅帧，1到0才发取消帧；重连后按固定顺序整体重放。
type Registry struct {
	mu     sync.Mutex
	topics map[Topic]uint
	send   Sender
	logger *log.Helper
}

func NewRegistry(send Sender, logger *log.Helper) *Registry {
	if logger == nil {
		logger = log.NewHelper(log.DefaultLogger)
	}
	return &Registry{
		topics: make(map[Topic]uint),
		send:   send,
		logger: logger,
	}
}

// Subscribe 引用计数加一，首个持有者触发协议订阅
func (r *Registry) Subscribe(t Topic) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.topics[t]
	if n > 0 {
		r.topics[t] = n + 1
		return nil
	}

	frame, err := codec.Subscribe(t.arg())
	if err != nil {
		return err
	}
	if err := r.send(frame); err != nil {
		return err
	}
	r.topics[t] = 1
	return nil
}

// Unsubscribe 引用计数减一，最后一个持有者触发协议取消订阅
func (r *Registry) Unsubscribe(t Topic) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.topics[t]
	if n == 0 {
		return nil
	}
	if n > 1 {
		r.topics[t] = n - 1
		return nil
	}

	frame, err := codec.Unsubscribe(t.arg())
	if err != nil {
		return err
	}
	if err := r.send(frame); err != nil {
		return err
	}
	delete(r.topics, t)
	return nil
}

// Contains 主题是否在订阅集里
func (r *Registry) Contains(t Topic) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.topics[t] > 0
}

// Topics 按 (instId, channel, interval) 排序后的订阅集快照
func (r *Registry) Topics() []Topic {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted()
}

// Replay 重连后把订阅集整体重放给服务端
func (r *Registry) Replay() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.sorted() {
		frame, err := codec.Subscribe(t.arg())
		if err != nil {
			return err
		}
		if err := r.send(frame); err != nil {
			return err
		}
		r.logger.Infof("resubscribed channel: %s, instId: %s", t.Channel, t.InstID)
	}
	return nil
}

// Clear 清空订阅集，不发任何帧
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = make(map[Topic]uint)
}

func (r *Registry) sorted() []Topic {
	out := make([]Topic, 0, len(r.topics))
	for t := range r.topics {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].InstID != out[j].InstID {
			return out[i].InstID < out[j].InstID
		}
		if out[i].Channel != out[j].Channel {
			return out[i].Channel < out[j].Channel
		}
		return out[i].Interval < out[j].Interval
	})
	return out
}
