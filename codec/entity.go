package codec

import jsoniter "github.com/json-iterator/go"

// Arg 订阅参数，推送帧里原样带回
type Arg struct {
	Channel   string `json:"channel,omitempty"`
	InstID    string `json:"instId,omitempty"`
	InstType  string `json:"instType,omitempty"`
	Interval  string `json:"interval,omitempty"`
	Simulated string `json:"simulated,omitempty"`
	State     string `json:"state,omitempty"`
	Limit     string `json:"limit,omitempty"`
}

// Frame 文本帧的统一结构，op/event/arg/data/id/code/msg
type Frame struct {
	ID    string              `json:"id,omitempty"`
	Op    string              `json:"op,omitempty"`
	Event string              `json:"event,omitempty"`
	Code  string              `json:"code,omitempty"`
	Msg   string              `json:"msg,omitempty"`
	Arg   *Arg                `json:"arg,omitempty"`
	Data  jsoniter.RawMessage `json:"data,omitempty"`
}

type loginFrame struct {
	Op   string     `json:"op"`
	Args []loginArg `json:"args"`
}

type loginArg struct {
	APIKey     string `json:"apiKey"`
	Passphrase string `json:"passphrase"`
	Timestamp  string `json:"timestamp"`
	Sign       string `json:"sign"`
}

type subFrame struct {
	Op   string `json:"op"`
	Args []Arg  `json:"args"`
}

type requestFrame struct {
	ID   string   `json:"id"`
	Op   string   `json:"op"`
	Args []Params `json:"args"`
}

// TickerData tickers 频道推送的数据项
type TickerData struct {
	InstID    string `json:"instId"`
	Last      string `json:"last"`
	Open24h   string `json:"open24h"`
	BidPx     string `json:"bidPx"`
	BidSz     string `json:"bidSz"`
	AskPx     string `json:"askPx"`
	AskSz     string `json:"askSz"`
	High24h   string `json:"high24h"`
	Low24h    string `json:"low24h"`
	Vol24h    string `json:"vol24h"`
	VolCcy24h string `json:"volCcy24h"`
	Timestamp string `json:"ts"`
}

// MarkPriceData mark-price 频道推送的数据项
type MarkPriceData struct {
	InstID    string `json:"instId"`
	MarkPx    string `json:"markPx"`
	Timestamp string `json:"ts"`
}

// BalanceDetail 账户频道明细
type BalanceDetail struct {
	Ccy       string `json:"ccy"`
	AvailEq   string `json:"availEq"`
	FrozenBal string `json:"frozenBal"`
	Eq        string `json:"eq"`
	EqUsd     string `json:"eqUsd"`
}

// BalanceData account 频道推送的数据项
type BalanceData struct {
	TotalEq string          `json:"totalEq"`
	Details []BalanceDetail `json:"details"`
}

// OrderData order/orders 频道以及REST订单查询共用的数据项
type OrderData struct {
	InstID        string `json:"instId"`
	OrderID       string `json:"ordId"`
	ClientOrderID string `json:"clOrdId"`
	Px            string `json:"px"`        // 委托价格
	Sz            string `json:"sz"`        // 委托数量
	OrderType     string `json:"ordType"`
	Side          string `json:"side"`
	FillPx        string `json:"fillPx"`    // 成交价格
	FillSz        string `json:"fillSz"`    // 最新成交数量
	AccFillSz     string `json:"accFillSz"` // 累计成交数量
	AvgPx         string `json:"avgPx"`
	State         string `json:"state"`
	Fee           string `json:"fee"`    // 累计手续费，负数
	FeeCcy        string `json:"feeCcy"` // 手续费币种
	SCode         string `json:"sCode"`  // 错误码
	SMsg          string `json:"sMsg"`   // 错误信息
	CreateTime    string `json:"cTime"`
	UpdateTime    string `json:"uTime"`
}
