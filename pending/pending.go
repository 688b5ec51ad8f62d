package pending

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Kind 等待结果的种类
type Kind string

const (
	KindTicker        Kind = "TICKER"
	KindKlineSnapshot Kind = "KLINE_SNAPSHOT"
	KindBalance       Kind = "BALANCE"
	KindOrders        Kind = "ORDERS"
	KindOrder         Kind = "ORDER"
	KindCancel        Kind = "CANCEL"
)

var (
	// ErrTimeout 截止时间内没有等到结果
	ErrTimeout = errors.New("request timeout")
	// ErrCanceled 调用方主动取消
	ErrCanceled = errors.New("request canceled")
	// ErrDuplicateKey 同一会话内关联键不允许重复
	ErrDuplicateKey = errors.New("duplicate correlation key")
)

type outcome struct {
	value interface{}
	err   error
}

type entry struct {
	kind      Kind
	createdAt time.Time
	timer     *time.Timer
	ch        chan outcome
	done      bool
}

// Table 关联表，把出站请求的键和入站应答对上。
// 每个键只允许完成一次，超时、出错、会话断开都会摘掉等待者。
type Table struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func NewTable() *Table {
	return &Table{
		entries: make(map[string]*entry),
	}
}

// Waiter 单个等待者，一次性
type Waiter struct {
	key string
	t   *Table
	ch  chan outcome
}

// Install 安装等待者并启动超时计时器
func (t *Table) Install(key string, kind Kind, timeout time.Duration) (*Waiter, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.entries[key]; ok {
		return nil, ErrDuplicateKey
	}

	e := &entry{
		kind:      kind,
		createdAt: time.Now(),
		ch:        make(chan outcome, 1),
	}
	e.timer = time.AfterFunc(timeout, func() {
		t.Fail(key, ErrTimeout)
	})
	t.entries[key] = e

	return &Waiter{key: key, t: t, ch: e.ch}, nil
}

// Await 阻塞等待结果。外部取消信号触发时摘掉等待者并返回 ErrCanceled。
func (w *Waiter) Await(ctx context.Context) (interface{}, error) {
	select {
	case o := <-w.ch:
		return o.value, o.err
	case <-ctx.Done():
		w.t.remove(w.key)
		return nil, ErrCanceled
	}
}

// Remove 手动摘掉等待者，不触发任何回调
func (w *Waiter) Remove() {
	w.t.remove(w.key)
}

// Complete 完成等待者，键不存在或已完成时不做任何事
func (t *Table) Complete(key string, value interface{}) bool {
	return t.settle(key, outcome{value: value})
}

// Fail 以错误完成等待者
func (t *Table) Fail(key string, err error) bool {
	return t.settle(key, outcome{err: err})
}

// AbortAll 会话拆除时让所有挂起的等待者失败
func (t *Table) AbortAll(reason error) {
	t.mu.Lock()
	keys := make([]string, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	t.mu.Unlock()

	for _, k := range keys {
		t.Fail(k, reason)
	}
}

// Pending 当前挂起的等待者数量
func (t *Table) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

func (t *Table) settle(key string, o outcome) bool {
	t.mu.Lock()
	e, ok := t.entries[key]
	if !ok || e.done {
		t.mu.Unlock()
		return false
	}
	e.done = true
	e.timer.Stop()
	delete(t.entries, key)
	t.mu.Unlock()

	e.ch <- o
	return true
}

func (t *Table) remove(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[key]; ok {
		e.timer.Stop()
		delete(t.entries, key)
	}
}
