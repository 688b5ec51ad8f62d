package connector

import (
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/go-gotop/okconn/cache"
	"github.com/go-gotop/okconn/notify"
	"github.com/go-gotop/okconn/persist"
	"github.com/go-gotop/okconn/requests/okhttp"
	"github.com/go-gotop/okconn/session"
)

type Option func(*options)

type options struct {
	logger      *log.Helper
	cache       cache.KeyValueCache
	observer    notify.PriceObserver
	strategy    StrategyEngine
	recorder    persist.OrderRecorder
	settleWait  time.Duration
	balanceTTL  time.Duration
	sessionOpts []session.Option
	rest        *okhttp.Client
}

func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = log.NewHelper(logger)
	}
}

func WithCache(c cache.KeyValueCache) Option {
	return func(o *options) {
		o.cache = c
	}
}

func WithPriceObserver(ob notify.PriceObserver) Option {
	return func(o *options) {
		o.observer = ob
	}
}

func WithStrategyEngine(s StrategyEngine) Option {
	return func(o *options) {
		o.strategy = s
	}
}

func WithOrderRecorder(r persist.OrderRecorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}

// WithSettleWait 下单后等待异步回报的时间，超过后走一次REST对账
func WithSettleWait(d time.Duration) Option {
	return func(o *options) {
		o.settleWait = d
	}
}

func WithBalanceTTL(d time.Duration) Option {
	return func(o *options) {
		o.balanceTTL = d
	}
}

// WithRestClient 替换默认REST客户端，测试时注入假传输层
func WithRestClient(c *okhttp.Client) Option {
	return func(o *options) {
		o.rest = c
	}
}

// WithSessionOptions 透传会话配置，测试时注入假连接
func WithSessionOptions(opts ...session.Option) Option {
	return func(o *options) {
		o.sessionOpts = append(o.sessionOpts, opts...)
	}
}
