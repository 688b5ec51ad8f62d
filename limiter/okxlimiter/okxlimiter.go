package okxlimiter

import (
	"time"

	"github.com/go-gotop/okconn/limiter"
	"golang.org/x/time/rate"
)

func NewOkxLimiter(opt ...limiter.Option) *OkxLimiter {
	o := &limiter.Options{
		WsConnect:     limiter.PeriodLimit{Period: time.Second, Times: 3},
		CreateOrder:   limiter.PeriodLimit{Period: 2 * time.Second, Times: 60},
		CancelOrder:   limiter.PeriodLimit{Period: 2 * time.Second, Times: 60},
		NormalRequest: limiter.PeriodLimit{Period: 2 * time.Second, Times: 20},
	}
	for _, v := range opt {
		v(o)
	}

	return &OkxLimiter{
		ws:      newLimiter(o.WsConnect),
		order:   newLimiter(o.CreateOrder),
		cancel:  newLimiter(o.CancelOrder),
		request: newLimiter(o.NormalRequest),
	}
}

type OkxLimiter struct {
	ws      *rate.Limiter
	order   *rate.Limiter
	cancel  *rate.Limiter
	request *rate.Limiter
}

func (o *OkxLimiter) WsAllow() bool {
	return o.ws.Allow()
}

func (o *OkxLimiter) OrderAllow() bool {
	return o.order.Allow()
}

func (o *OkxLimiter) CancelAllow() bool {
	return o.cancel.Allow()
}

func (o *OkxLimiter) RequestAllow() bool {
	return o.request.Allow()
}

func newLimiter(p limiter.PeriodLimit) *rate.Limiter {
	if p.Times <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(p.Period/time.Duration(p.Times)), p.Times)
}
