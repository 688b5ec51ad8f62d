package limiter

type LimitType string

const (
	WsConnectLimit     LimitType = "WS_CONNECT"     // ws连接限制
	CreateOrderLimit   LimitType = "CREATE_ORDER"   // 创建订单
	CancelOrderLimit   LimitType = "CANCEL_ORDER"   // 取消订单
	NormalRequestLimit LimitType = "NORMAL_REQUEST" // 普通请求
)

type Limiter interface {
	WsAllow() bool
	OrderAllow() bool
	CancelAllow() bool
	RequestAllow() bool
}
