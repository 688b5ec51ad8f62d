package connector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/go-gotop/okconn/codec"
	"github.com/go-gotop/okconn/config"
	"github.com/go-gotop/okconn/exchange"
	"github.com/go-gotop/okconn/limiter"
	"github.com/go-gotop/okconn/norm"
	"github.com/go-gotop/okconn/pending"
	"github.com/go-gotop/okconn/requests/okhttp"
	"github.com/go-gotop/okconn/router"
	"github.com/go-gotop/okconn/session"
	"github.com/go-gotop/okconn/subs"
)

const (
	channelTickers   = "tickers"
	channelAccount   = "account"
	channelOrders    = "orders"
	channelMarkPrice = "mark-price"

	instTypeSpot = "SPOT"

	priceKeyPrefix   = "price_"
	balanceKeyPrefix = "balance_"

	balanceKeyReal      = "real"
	balanceKeySimulated = "simulated"
)

var (
	ErrLimitExceed     = errors.New("rate limit exceed")
	ErrInvalidInterval = errors.New("invalid candle interval")
	ErrMissingSize     = errors.New("order requires amount or quantity")
	ErrNoLastPrice     = errors.New("no cached price for limit order")
)

// StrategyEngine 策略引擎回调。K线推送逐条分发，
// 下单被拒时按客户端订单号把错误信息记回策略。
type StrategyEngine interface {
	OnCandle(instID, interval string, candle *exchange.Candlestick)
	MarkStrategyError(strategyID, message string)
}

// Connector OKX连接器对外接口
type Connector interface {
	Start() error
	Close() error

	GetTicker(ctx context.Context, instID string) (*exchange.Ticker, error)
	GetAllTickers(ctx context.Context) ([]*exchange.Ticker, error)
	GetKline(ctx context.Context, instID, interval string, limit int) ([]*exchange.Candlestick, error)
	GetHistoryKline(ctx context.Context, instID, interval string, startTime, endTime int64, limit int) ([]*exchange.Candlestick, error)

	SubscribeTicker(instID string) error
	UnsubscribeTicker(instID string) error
	SubscribeKline(instID, interval string) error
	UnsubscribeKline(instID, interval string) error
	SubscribeMarkPrice(instID string) error
	UnsubscribeMarkPrice(instID string) error

	GetBalance(ctx context.Context) (*exchange.AccountBalance, error)
	GetSimulatedBalance(ctx context.Context) (*exchange.AccountBalance, error)
	GetOrders(ctx context.Context, instID, status string, limit int) ([]*exchange.Order, error)
	PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*exchange.Order, error)
	CancelOrder(ctx context.Context, instID, orderID string) (*exchange.Order, error)

	Stats() Stats
}

func NewOkxConnector(cfg *config.Config, lim limiter.Limiter, opts ...Option) Connector {
	o := &options{
		logger:     log.NewHelper(log.DefaultLogger),
		settleWait: time.Second,
		balanceTTL: 10 * time.Minute,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.rest == nil {
		o.rest = okhttp.NewClient(
			okhttp.BaseUrl(cfg.BaseURL),
			okhttp.APIKey(cfg.Credentials.APIKey),
			okhttp.SecretKey(cfg.Credentials.SecretKey),
			okhttp.Passphrase(cfg.Credentials.Passphrase),
			okhttp.Simulated(cfg.Simulated),
		)
	}

	c := &OkxConnector{
		cfg:        cfg,
		opts:       o,
		limiter:    lim,
		rest:       o.rest,
		pubRouter:  router.NewRouter(),
		priRouter:  router.NewRouter(),
		pubPending: pending.NewTable(),
		priPending: pending.NewTable(),
	}
	c.registerHandlers()

	if cfg.Mode == config.ModeWS {
		sessOpts := append([]session.Option{
			session.WithLogger(o.logger),
			session.WithHeartbeatInterval(cfg.Heartbeat),
		}, o.sessionOpts...)

		c.public = session.New(cfg.PublicWsURL, c.onPublicMessage, sessOpts...)
		c.private = session.NewPrivate(cfg.PrivateWsURL, session.Credentials{
			APIKey:     cfg.Credentials.APIKey,
			SecretKey:  cfg.Credentials.SecretKey,
			Passphrase: cfg.Credentials.Passphrase,
		}, c.onPrivateMessage, sessOpts...)

		c.pubSubs = subs.NewRegistry(c.sender(c.public), o.logger)
		c.priSubs = subs.NewRegistry(c.sender(c.private), o.logger)

		c.public.OnReady(c.pubSubs.Replay)
		c.public.OnDown(c.pubPending.AbortAll)
		c.private.OnReady(c.priSubs.Replay)
		c.private.OnDown(c.priPending.AbortAll)
	}

	return c
}

type OkxConnector struct {
	cfg     *config.Config
	opts    *options
	limiter limiter.Limiter
	rest    *okhttp.Client

	public  *session.Session
	private *session.Session

	pubRouter  *router.Router
	priRouter  *router.Router
	pubPending *pending.Table
	priPending *pending.Table
	pubSubs    *subs.Registry
	priSubs    *subs.Registry

	// 客户端订单号到策略号的映射，用于把拒单错误记回策略
	strategies sync.Map
	msgID      atomic.Uint64
	malformed  atomic.Uint64
}

// Start 打开会话。纯REST模式下没有会话可开。
func (c *OkxConnector) Start() error {
	if c.cfg.Mode != config.ModeWS {
		return nil
	}
	if !c.limiter.WsAllow() {
		return ErrLimitExceed
	}
	if err := c.public.Start(); err != nil {
		return err
	}
	if !c.limiter.WsAllow() {
		return ErrLimitExceed
	}
	if err := c.private.Start(); err != nil {
		return err
	}
	// 常驻订阅orders频道，成交和撤单回报都从这里来，重连后随注册表重放
	return c.priSubs.Subscribe(subs.Topic{Channel: channelOrders, InstType: instTypeSpot})
}

func (c *OkxConnector) Close() error {
	var firstErr error
	if c.public != nil {
		if err := c.public.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.private != nil {
		if err := c.private.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.opts.observer != nil {
		if err := c.opts.observer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.opts.recorder != nil {
		if err := c.opts.recorder.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (c *OkxConnector) Stats() Stats {
	return Stats{
		MalformedFrames: c.malformed.Load(),
		DroppedFrames:   c.pubRouter.Dropped() + c.priRouter.Dropped(),
		PendingPublic:   c.pubPending.Pending(),
		PendingPrivate:  c.priPending.Pending(),
	}
}

// sender 就绪后走限流队列，重放阶段直写
func (c *OkxConnector) sender(s *session.Session) subs.Sender {
	return func(frame []byte) error {
		if s.State() == session.StateReady {
			return s.Send(frame)
		}
		return s.Write(frame)
	}
}

func (c *OkxConnector) registerHandlers() {
	c.pubRouter.Register(channelTickers, c.handleTickers)
	c.pubRouter.Register("candle", c.handleCandles)
	c.pubRouter.Register(channelMarkPrice, c.handleMarkPrice)
	c.pubRouter.Register("mark-price-candle", c.handleCandles)
	c.priRouter.Register(channelAccount, c.handleAccount)
	c.priRouter.Register(channelOrders, c.handleOrdersPush)
}

func (c *OkxConnector) onPublicMessage(message []byte) {
	f, err := codec.Parse(message)
	if err != nil {
		c.malformed.Add(1)
		c.opts.logger.Warnf("drop malformed public frame: %s", message)
		return
	}
	if f.Event != "" {
		c.handleEvent(f)
		return
	}
	c.pubRouter.Dispatch(f)
}

func (c *OkxConnector) onPrivateMessage(message []byte) {
	f, err := codec.Parse(message)
	if err != nil {
		c.malformed.Add(1)
		c.opts.logger.Warnf("drop malformed private frame: %s", message)
		return
	}
	if f.Event != "" {
		c.handleEvent(f)
		return
	}
	if f.Op == "order" || f.Op == "cancel-order" {
		c.handleOpResponse(f)
		return
	}
	c.priRouter.Dispatch(f)
}

func (c *OkxConnector) handleEvent(f *codec.Frame) {
	switch f.Event {
	case "error":
		c.opts.logger.Errorf("websocket error event, code: %s, msg: %s", f.Code, f.Msg)
	case "subscribe", "unsubscribe":
		if f.Arg != nil {
			c.opts.logger.Debugf("%s ack, channel: %s, instId: %s", f.Event, f.Arg.Channel, f.Arg.InstID)
		}
	}
}

// handleOpResponse 处理下单和撤单的即时应答。正常受理后等orders频道推送，
// 被拒时就地让等待者失败。
func (c *OkxConnector) handleOpResponse(f *codec.Frame) {
	ds, err := f.Orders()
	if err != nil {
		c.malformed.Add(1)
		return
	}

	for _, d := range ds {
		code, _ := strconv.Atoi(d.SCode)
		if code == 0 && (f.Code == "" || f.Code == "0") {
			continue
		}

		verr := &exchange.VenueError{Code: code, Msg: d.SMsg}
		if verr.Code == 0 {
			verr.Code, _ = strconv.Atoi(f.Code)
		}
		if verr.Msg == "" {
			verr.Msg = f.Msg
		}

		if f.Op == "order" && d.ClientOrderID != "" {
			c.attributeError(d.ClientOrderID, verr.Msg)
			c.priPending.Fail(d.ClientOrderID, verr)
		}
		if f.Op == "cancel-order" && d.OrderID != "" {
			c.priPending.Fail(d.OrderID, verr)
		}
	}
}

func (c *OkxConnector) handleTickers(f *codec.Frame) {
	ds, err := f.Tickers()
	if err != nil {
		c.malformed.Add(1)
		return
	}
	for _, d := range ds {
		symbol := d.InstID
		if symbol == "" {
			symbol = f.Arg.InstID
		}
		t := norm.ToTicker(symbol, f.Arg.Channel, d)
		c.pubPending.Complete(channelTickers+"_"+symbol, t)
		if c.cfg.PriceSource == config.PriceSourceTickers {
			c.cachePrice(symbol, t.LastPrice)
		}
		c.notifyTicker(t)
	}
}

func (c *OkxConnector) handleCandles(f *codec.Frame) {
	_, interval, _ := router.SplitChannel(f.Arg.Channel)
	rows, err := f.Rows()
	if err != nil {
		c.malformed.Add(1)
		return
	}
	candles, err := norm.ToCandles(f.Arg.InstID, interval, rows)
	if err != nil {
		c.malformed.Add(1)
		return
	}
	if len(candles) == 0 {
		return
	}

	key := f.Arg.Channel + "_" + f.Arg.InstID + "_" + interval
	c.pubPending.Complete(key, candles)

	fromMarkPrice := strings.HasPrefix(f.Arg.Channel, channelMarkPrice)
	for _, candle := range candles {
		if c.opts.strategy != nil {
			c.opts.strategy.OnCandle(f.Arg.InstID, interval, candle)
		}
		if fromMarkPrice && c.cfg.PriceSource == config.PriceSourceMarkPrice {
			c.cachePrice(f.Arg.InstID, candle.Close)
		}
		c.notifyCandle(f.Arg.InstID, candle)
	}
}

func (c *OkxConnector) handleMarkPrice(f *codec.Frame) {
	ds, err := f.MarkPrices()
	if err != nil {
		c.malformed.Add(1)
		return
	}
	if c.cfg.PriceSource != config.PriceSourceMarkPrice {
		return
	}
	for _, d := range ds {
		px, err := decimal.NewFromString(d.MarkPx)
		if err != nil {
			continue
		}
		c.cachePrice(d.InstID, px)
	}
}

func (c *OkxConnector) handleAccount(f *codec.Frame) {
	ds, err := f.Balances()
	if err != nil {
		c.malformed.Add(1)
		return
	}
	for _, d := range ds {
		b := norm.ToBalance(d)
		c.cacheBalances(b.AssetBalances)

		key := balanceKeyReal
		if f.Arg != nil && f.Arg.Simulated != "" {
			key = balanceKeySimulated
		}
		c.priPending.Complete(key, b)
	}
}

func (c *OkxConnector) handleOrdersPush(f *codec.Frame) {
	ds, err := f.Orders()
	if err != nil {
		c.malformed.Add(1)
		return
	}

	orders := make([]*exchange.Order, 0, len(ds))
	for _, d := range ds {
		o := norm.ToOrder(d)
		orders = append(orders, o)

		if o.SCode != 0 && o.SMsg != "" {
			c.attributeError(o.ClientOrderID, o.SMsg)
		}
		if o.ClientOrderID != "" {
			c.priPending.Complete(o.ClientOrderID, o)
		}
		// 撤单等待者以交易所订单号为键，推送到canceled时解除
		if o.Status == exchange.OrderStatusCanceled && o.OrderID != "" {
			c.priPending.Complete(o.OrderID, o)
		}
	}

	if f.Arg != nil && f.Arg.InstID != "" {
		c.priPending.Complete(f.Arg.InstID+"_orders", orders)
	}
}

func (c *OkxConnector) attributeError(clientOrderID, msg string) {
	if c.opts.strategy == nil || clientOrderID == "" {
		return
	}
	if v, ok := c.strategies.Load(clientOrderID); ok {
		c.opts.strategy.MarkStrategyError(v.(string), msg)
	}
}

// cachePrice 价格写缓存，不挡路由协程
func (c *OkxConnector) cachePrice(symbol string, price decimal.Decimal) {
	if c.opts.cache == nil || symbol == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := c.opts.cache.Set(ctx, priceKeyPrefix+symbol, price.String(), 0); err != nil {
			c.opts.logger.Warnf("cache price failed, symbol: %s, err: %v", symbol, err)
		}
	}()
}

func (c *OkxConnector) cacheBalances(balances []exchange.AssetBalance) {
	if c.opts.cache == nil || len(balances) == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		for _, b := range balances {
			if err := c.opts.cache.Set(ctx, balanceKeyPrefix+b.Asset, b.Available.String(), c.opts.balanceTTL); err != nil {
				c.opts.logger.Warnf("cache balance failed, asset: %s, err: %v", b.Asset, err)
				return
			}
		}
	}()
}

func (c *OkxConnector) notifyTicker(t *exchange.Ticker) {
	if c.opts.observer == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := c.opts.observer.OnTicker(ctx, t); err != nil {
			c.opts.logger.Warnf("notify ticker failed: %v", err)
		}
	}()
}

func (c *OkxConnector) notifyCandle(instID string, candle *exchange.Candlestick) {
	if c.opts.observer == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := c.opts.observer.OnCandle(ctx, instID, candle); err != nil {
			c.opts.logger.Warnf("notify candle failed: %v", err)
		}
	}()
}

// GetTicker 单个交易对行情。WS模式临时订阅tickers频道等第一次推送，
// REST模式直接查接口。
func (c *OkxConnector) GetTicker(ctx context.Context, instID string) (*exchange.Ticker, error) {
	if c.public == nil {
		return c.restTicker(ctx, instID)
	}

	key := channelTickers + "_" + instID
	w, err := c.pubPending.Install(key, pending.KindTicker, c.cfg.Timeout)
	if err != nil {
		return nil, err
	}

	topic := subs.Topic{Channel: channelTickers, InstID: instID}
	if err := c.pubSubs.Subscribe(topic); err != nil {
		w.Remove()
		return nil, err
	}
	defer func() {
		if err := c.pubSubs.Unsubscribe(topic); err != nil {
			c.opts.logger.Warnf("unsubscribe after ticker snapshot failed: %v", err)
		}
	}()

	v, err := w.Await(ctx)
	if err != nil {
		return nil, err
	}
	return v.(*exchange.Ticker), nil
}

func (c *OkxConnector) restTicker(ctx context.Context, instID string) (*exchange.Ticker, error) {
	if !c.limiter.RequestAllow() {
		return nil, ErrLimitExceed
	}
	r := &okhttp.Request{Method: http.MethodGet, Endpoint: "/api/v5/market/ticker"}
	r.SetParam("instId", instID)

	data, err := c.rest.CallAPI(ctx, r)
	if err != nil {
		return nil, err
	}
	raw, err := c.unwrapREST(data)
	if err != nil {
		return nil, err
	}

	var ds []codec.TickerData
	if err := codec.Json.Unmarshal(raw, &ds); err != nil || len(ds) == 0 {
		return nil, codec.ErrMalformed
	}

	t := norm.ToTicker(instID, channelTickers, ds[0])
	if c.cfg.PriceSource == config.PriceSourceTickers {
		c.cachePrice(instID, t.LastPrice)
	}
	return t, nil
}

// GetAllTickers 拉取全部现货行情，只保留USDT交易对
func (c *OkxConnector) GetAllTickers(ctx context.Context) ([]*exchange.Ticker, error) {
	if !c.limiter.RequestAllow() {
		return nil, ErrLimitExceed
	}
	r := &okhttp.Request{Method: http.MethodGet, Endpoint: "/api/v5/market/tickers"}
	r.SetParam("instType", instTypeSpot)

	data, err := c.rest.CallAPI(ctx, r)
	if err != nil {
		return nil, err
	}
	raw, err := c.unwrapREST(data)
	if err != nil {
		return nil, err
	}

	var ds []codec.TickerData
	if err := codec.Json.Unmarshal(raw, &ds); err != nil {
		return nil, codec.ErrMalformed
	}

	out := make([]*exchange.Ticker, 0, len(ds))
	for _, d := range ds {
		if !strings.HasSuffix(d.InstID, "-USDT") {
			continue
		}
		out = append(out, norm.ToTicker(d.InstID, channelTickers, d))
	}
	return out, nil
}

// GetKline 拿一段K线快照。WS模式下临时订阅频道等第一次推送，
// REST模式直接查接口。
func (c *OkxConnector) GetKline(ctx context.Context, instID, interval string, limit int) ([]*exchange.Candlestick, error) {
	if !router.ValidInterval(interval) {
		return nil, ErrInvalidInterval
	}
	if c.public == nil {
		return c.restKline(ctx, "/api/v5/market/candles", instID, interval, 0, 0, limit)
	}

	channel := "candle" + interval
	key := channel + "_" + instID + "_" + interval

	w, err := c.pubPending.Install(key, pending.KindKlineSnapshot, c.klineTimeout())
	if err != nil {
		return nil, err
	}

	topic := subs.Topic{Channel: channel, InstID: instID, Interval: interval}
	if err := c.pubSubs.Subscribe(topic); err != nil {
		w.Remove()
		return nil, err
	}
	defer func() {
		if err := c.pubSubs.Unsubscribe(topic); err != nil {
			c.opts.logger.Warnf("unsubscribe after kline snapshot failed: %v", err)
		}
	}()

	v, err := w.Await(ctx)
	if err != nil {
		return nil, err
	}
	candles := v.([]*exchange.Candlestick)
	if limit > 0 && limit < len(candles) {
		candles = candles[:limit]
	}
	return candles, nil
}

// GetHistoryKline 查历史K线，before/after为开区间，按原接口把窗口各放宽1毫秒
func (c *OkxConnector) GetHistoryKline(ctx context.Context, instID, interval string, startTime, endTime int64, limit int) ([]*exchange.Candlestick, error) {
	if !router.ValidInterval(interval) {
		return nil, ErrInvalidInterval
	}
	return c.restKline(ctx, "/api/v5/market/history-candles", instID, interval, startTime, endTime, limit)
}

func (c *OkxConnector) restKline(ctx context.Context, endpoint, instID, interval string, startTime, endTime int64, limit int) ([]*exchange.Candlestick, error) {
	if !c.limiter.RequestAllow() {
		return nil, ErrLimitExceed
	}
	r := &okhttp.Request{Method: http.MethodGet, Endpoint: endpoint}
	r.SetParam("instId", instID)
	r.SetParam("bar", interval)
	if startTime > 0 {
		r.SetParam("before", strconv.FormatInt(startTime-1, 10))
	}
	if endTime > 0 {
		r.SetParam("after", strconv.FormatInt(endTime+1, 10))
	}
	if limit > 0 {
		r.SetParam("limit", strconv.Itoa(limit))
	}

	data, err := c.rest.CallAPI(ctx, r)
	if err != nil {
		return nil, err
	}
	raw, err := c.unwrapREST(data)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	if err := codec.Json.Unmarshal(raw, &rows); err != nil {
		return nil, codec.ErrMalformed
	}
	return norm.ToCandles(instID, interval, rows)
}

func (c *OkxConnector) SubscribeTicker(instID string) error {
	return c.subscribe(subs.Topic{Channel: channelTickers, InstID: instID})
}

func (c *OkxConnector) UnsubscribeTicker(instID string) error {
	return c.unsubscribe(subs.Topic{Channel: channelTickers, InstID: instID})
}

func (c *OkxConnector) SubscribeKline(instID, interval string) error {
	if !router.ValidInterval(interval) {
		return ErrInvalidInterval
	}
	return c.subscribe(subs.Topic{Channel: "candle" + interval, InstID: instID, Interval: interval})
}

func (c *OkxConnector) UnsubscribeKline(instID, interval string) error {
	if !router.ValidInterval(interval) {
		return ErrInvalidInterval
	}
	return c.unsubscribe(subs.Topic{Channel: "candle" + interval, InstID: instID, Interval: interval})
}

func (c *OkxConnector) SubscribeMarkPrice(instID string) error {
	return c.subscribe(subs.Topic{Channel: channelMarkPrice, InstID: instID})
}

func (c *OkxConnector) UnsubscribeMarkPrice(instID string) error {
	return c.unsubscribe(subs.Topic{Channel: channelMarkPrice, InstID: instID})
}

func (c *OkxConnector) subscribe(t subs.Topic) error {
	if c.pubSubs == nil {
		return session.ErrNotReady
	}
	return c.pubSubs.Subscribe(t)
}

func (c *OkxConnector) unsubscribe(t subs.Topic) error {
	if c.pubSubs == nil {
		return session.ErrNotReady
	}
	return c.pubSubs.Unsubscribe(t)
}

// GetBalance 真实账户余额。缓存里有USDT余额就直接用，
// 没有再订阅account频道等推送。
func (c *OkxConnector) GetBalance(ctx context.Context) (*exchange.AccountBalance, error) {
	if c.opts.cache != nil {
		if v, err := c.opts.cache.Get(ctx, balanceKeyPrefix+"USDT"); err == nil && v != "" {
			available, err := decimal.NewFromString(v)
			if err == nil {
				return &exchange.AccountBalance{AvailableBalance: available}, nil
			}
		}
	}

	if c.private == nil {
		return nil, session.ErrNotReady
	}
	w, err := c.priPending.Install(balanceKeyReal, pending.KindBalance, c.cfg.Timeout)
	if err != nil {
		return nil, err
	}

	topic := subs.Topic{Channel: channelAccount}
	if !c.priSubs.Contains(topic) {
		if err := c.priSubs.Subscribe(topic); err != nil {
			w.Remove()
			return nil, err
		}
	}

	v, err := w.Await(ctx)
	if err != nil {
		return nil, err
	}
	return v.(*exchange.AccountBalance), nil
}

// GetSimulatedBalance 模拟盘余额走一次性request请求
func (c *OkxConnector) GetSimulatedBalance(ctx context.Context) (*exchange.AccountBalance, error) {
	if c.private == nil {
		return nil, session.ErrNotReady
	}
	w, err := c.priPending.Install(balanceKeySimulated, pending.KindBalance, c.cfg.Timeout)
	if err != nil {
		return nil, err
	}

	frame, err := codec.Request(c.nextID(), "request", codec.Params{
		"channel":   channelAccount,
		"simulated": "1",
	})
	if err != nil {
		w.Remove()
		return nil, err
	}
	if err := c.private.Send(frame); err != nil {
		w.Remove()
		return nil, err
	}

	v, err := w.Await(ctx)
	if err != nil {
		return nil, err
	}
	return v.(*exchange.AccountBalance), nil
}

// GetOrders 拉订单快照。带instId的orders订阅走注册表，等第一批推送，
// 状态和条数在本地过滤，拿完退订。
func (c *OkxConnector) GetOrders(ctx context.Context, instID, status string, limit int) ([]*exchange.Order, error) {
	if c.private == nil {
		return nil, session.ErrNotReady
	}
	key := instID + "_orders"
	w, err := c.priPending.Install(key, pending.KindOrders, c.cfg.Timeout)
	if err != nil {
		return nil, err
	}

	topic := subs.Topic{Channel: channelOrders, InstType: instTypeSpot, InstID: instID}
	if err := c.priSubs.Subscribe(topic); err != nil {
		w.Remove()
		return nil, err
	}
	defer func() {
		if err := c.priSubs.Unsubscribe(topic); err != nil {
			c.opts.logger.Warnf("unsubscribe after orders snapshot failed: %v", err)
		}
	}()

	v, err := w.Await(ctx)
	if err != nil {
		return nil, err
	}
	orders := v.([]*exchange.Order)
	if status != "" {
		want := exchange.OrderStatus(strings.ToUpper(status))
		kept := make([]*exchange.Order, 0, len(orders))
		for _, o := range orders {
			if o.Status == want {
				kept = append(kept, o)
			}
		}
		orders = kept
	}
	if limit > 0 && limit < len(orders) {
		orders = orders[:limit]
	}
	return orders, nil
}

// PlaceOrder 现货下单。私有会话发order请求，在settle窗口内等异步回报，
// 等不到就按客户端订单号走一次REST对账，对账结果同样落CSV。
func (c *OkxConnector) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*exchange.Order, error) {
	if c.private == nil {
		return nil, session.ErrNotReady
	}
	if !c.limiter.OrderAllow() {
		return nil, ErrLimitExceed
	}

	clientOrderID := req.ClientOrderID
	if clientOrderID == "" {
		clientOrderID = genClientOrderID()
	}
	if req.StrategyID != "" {
		c.strategies.Store(clientOrderID, req.StrategyID)
		defer c.strategies.Delete(clientOrderID)
	}

	params, err := c.orderParams(ctx, req, clientOrderID)
	if err != nil {
		return nil, err
	}

	w, err := c.priPending.Install(clientOrderID, pending.KindOrder, c.cfg.Timeout)
	if err != nil {
		return nil, err
	}

	frame, err := codec.Request(c.nextID(), "order", params)
	if err != nil {
		w.Remove()
		return nil, err
	}
	c.opts.logger.Infof("place order, symbol: %s, side: %s, clOrdId: %s", req.Symbol, req.Side, clientOrderID)
	if err := c.private.Send(frame); err != nil {
		w.Remove()
		return nil, err
	}

	settleCtx, cancel := context.WithTimeout(ctx, c.opts.settleWait)
	v, err := w.Await(settleCtx)
	cancel()

	var order *exchange.Order
	fromREST := false
	switch {
	case err == nil:
		order = v.(*exchange.Order)
	case errors.Is(err, pending.ErrCanceled) && ctx.Err() != nil:
		return nil, err
	case errors.Is(err, pending.ErrCanceled), errors.Is(err, pending.ErrTimeout):
		// settle窗口内没有回报，按客户端订单号补一次查询
		order, err = c.readOrderByClientID(ctx, req.Symbol, clientOrderID)
		if err != nil {
			return nil, err
		}
		fromREST = true
	default:
		return nil, err
	}

	if c.opts.recorder != nil {
		if err := c.opts.recorder.SaveOrderRow(order); err != nil {
			c.opts.logger.Warnf("save order row failed, clOrdId: %s, err: %v", clientOrderID, err)
		}
	}

	if order.SCode != 0 && order.SMsg != "" {
		if fromREST {
			c.attributeError(clientOrderID, order.SMsg)
		}
		return order, &exchange.VenueError{Code: order.SCode, Msg: order.SMsg}
	}
	return order, nil
}

func (c *OkxConnector) orderParams(ctx context.Context, req *PlaceOrderRequest, clientOrderID string) (codec.Params, error) {
	ordType := "market"
	if req.Type != "" {
		ordType = norm.MapToOkxOrderType(string(req.Type))
	}
	params := codec.Params{
		"instId":  req.Symbol,
		"tdMode":  "cash",
		"side":    strings.ToLower(string(req.Side)),
		"ordType": ordType,
		"clOrdId": clientOrderID,
	}

	switch {
	case req.Amount.IsPositive():
		// 指定金额，市价单sz按计价货币计
		params["sz"] = req.Amount.String()
		params["tgtCcy"] = "quote_ccy"
	case req.Quantity.IsPositive():
		params["sz"] = req.Quantity.String()
		params["tgtCcy"] = "base_ccy"
		if req.Type == exchange.OrderTypeLimit {
			px := req.Price
			if !px.IsPositive() {
				var err error
				px, err = c.lastPrice(ctx, req.Symbol)
				if err != nil {
					return nil, err
				}
			}
			params["px"] = px.String()
		}
	default:
		return nil, ErrMissingSize
	}

	if req.Simulated {
		params["simulated"] = "1"
	}
	return params, nil
}

func (c *OkxConnector) CancelOrder(ctx context.Context, instID, orderID string) (*exchange.Order, error) {
	if c.private == nil {
		return nil, session.ErrNotReady
	}
	if !c.limiter.CancelAllow() {
		return nil, ErrLimitExceed
	}

	w, err := c.priPending.Install(orderID, pending.KindCancel, c.cfg.Timeout)
	if err != nil {
		return nil, err
	}

	frame, err := codec.Request(c.nextID(), "cancel-order", codec.Params{
		"instId": instID,
		"ordId":  orderID,
	})
	if err != nil {
		w.Remove()
		return nil, err
	}
	if err := c.private.Send(frame); err != nil {
		w.Remove()
		return nil, err
	}

	v, err := w.Await(ctx)
	if err != nil {
		return nil, err
	}
	return v.(*exchange.Order), nil
}

// readOrderByClientID REST对账，一次下单至多查一次
func (c *OkxConnector) readOrderByClientID(ctx context.Context, instID, clientOrderID string) (*exchange.Order, error) {
	if !c.limiter.RequestAllow() {
		return nil, ErrLimitExceed
	}
	r := &okhttp.Request{Method: http.MethodGet, Endpoint: "/api/v5/trade/order", SecType: okhttp.SecTypeSigned}
	r.SetParam("instId", instID)
	r.SetParam("clOrdId", clientOrderID)

	data, err := c.rest.CallAPI(ctx, r)
	if err != nil {
		return nil, err
	}
	raw, err := c.unwrapREST(data)
	if err != nil {
		return nil, err
	}

	var ds []codec.OrderData
	if err := codec.Json.Unmarshal(raw, &ds); err != nil {
		return nil, codec.ErrMalformed
	}
	if len(ds) == 0 {
		return nil, fmt.Errorf("order not found, clOrdId: %s", clientOrderID)
	}
	return norm.ToOrder(ds[0]), nil
}

func (c *OkxConnector) lastPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if c.opts.cache == nil {
		return decimal.Zero, ErrNoLastPrice
	}
	v, err := c.opts.cache.Get(ctx, priceKeyPrefix+symbol)
	if err != nil {
		return decimal.Zero, ErrNoLastPrice
	}
	px, err := decimal.NewFromString(v)
	if err != nil || !px.IsPositive() {
		return decimal.Zero, ErrNoLastPrice
	}
	return px, nil
}

func (c *OkxConnector) unwrapREST(data []byte) ([]byte, error) {
	var resp restResponse
	if err := codec.Json.Unmarshal(data, &resp); err != nil {
		return nil, codec.ErrMalformed
	}
	if resp.Code != "0" {
		code, _ := strconv.Atoi(resp.Code)
		return nil, &exchange.VenueError{Code: code, Msg: resp.Msg}
	}
	return resp.Data, nil
}

// klineTimeout K线快照等第一次推送要更久，配置超时的1.5倍，至少15秒
func (c *OkxConnector) klineTimeout() time.Duration {
	t := c.cfg.Timeout * 3 / 2
	if t < 15*time.Second {
		t = 15 * time.Second
	}
	return t
}

func (c *OkxConnector) nextID() string {
	return strconv.FormatUint(c.msgID.Add(1), 10)
}

// genClientOrderID 毫秒时间戳加8位随机后缀
func genClientOrderID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10) + uuid.NewString()[:8]
}
