package codec

import (
	"errors"

	"github.com/bitly/go-simplejson"
	jsoniter "github.com/json-iterator/go"
)

// Redefining the standard package
var Json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrMalformed 帧缺少必要字段或无法解码
var ErrMalformed = errors.New("malformed frame")

type Params map[string]interface{}

func NewJSON(data []byte) (j *simplejson.Json, err error) {
	j, err = simplejson.NewJson(data)
	if err != nil {
		return nil, err
	}
	return j, nil
}

// Parse 解析入站文本帧。事件帧(event非空)和推送帧(arg+data)都合法，
// 其余情况返回 ErrMalformed。
func Parse(message []byte) (*Frame, error) {
	f := &Frame{}
	if err := Json.Unmarshal(message, f); err != nil {
		return nil, ErrMalformed
	}
	if f.Event == "" && f.Code == "" {
		if f.Arg == nil || f.Arg.Channel == "" || len(f.Data) == 0 {
			return nil, ErrMalformed
		}
	}
	return f, nil
}

// Rows 把 data 按数组的数组解出来，标准K线格式
func (f *Frame) Rows() ([][]string, error) {
	var rows [][]string
	if err := Json.Unmarshal(f.Data, &rows); err != nil {
		return nil, ErrMalformed
	}
	return rows, nil
}

// Tickers 把 data 按对象数组解成 ticker 数据
func (f *Frame) Tickers() ([]TickerData, error) {
	var out []TickerData
	if err := Json.Unmarshal(f.Data, &out); err != nil {
		return nil, ErrMalformed
	}
	return out, nil
}

// MarkPrices 把 data 解成标记价格数据
func (f *Frame) MarkPrices() ([]MarkPriceData, error) {
	var out []MarkPriceData
	if err := Json.Unmarshal(f.Data, &out); err != nil {
		return nil, ErrMalformed
	}
	return out, nil
}

// Balances 把 data 解成账户数据
func (f *Frame) Balances() ([]BalanceData, error) {
	var out []BalanceData
	if err := Json.Unmarshal(f.Data, &out); err != nil {
		return nil, ErrMalformed
	}
	return out, nil
}

// Orders 把 data 解成订单数据
func (f *Frame) Orders() ([]OrderData, error) {
	var out []OrderData
	if err := Json.Unmarshal(f.Data, &out); err != nil {
		return nil, ErrMalformed
	}
	return out, nil
}

// Subscribe 构造订阅帧
func Subscribe(args ...Arg) ([]byte, error) {
	return Json.Marshal(&subFrame{Op: "subscribe", Args: args})
}

// Unsubscribe 构造取消订阅帧
func Unsubscribe(args ...Arg) ([]byte, error) {
	return Json.Marshal(&subFrame{Op: "unsubscribe", Args: args})
}

// Login 构造私有连接的登录帧
func Login(apiKey, passphrase, timestamp, sign string) ([]byte, error) {
	return Json.Marshal(&loginFrame{
		Op: "login",
		Args: []loginArg{
			{
				APIKey:     apiKey,
				Passphrase: passphrase,
				Timestamp:  timestamp,
				Sign:       sign,
			},
		},
	})
}

// Request 构造请求帧，op 为 request/order/cancel-order/subscribe
func Request(id, op string, args ...Params) ([]byte, error) {
	return Json.Marshal(&requestFrame{ID: id, Op: op, Args: args})
}
