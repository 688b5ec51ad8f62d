package okhttp

import (
	"net/http"
)

type Option func(o *options)

type options struct {
	apiKey     string
	secretKey  string
	passphrase string
	baseURL    string
	proxyUrl   string
	simulated  bool
	httpClient *http.Client
}

func BaseUrl(b string) Option {
	return func(o *options) { o.baseURL = b }
}

func ProxyURL(p string) Option {
	return func(o *options) { o.proxyUrl = p }
}

func HttpClient(h *http.Client) Option {
	return func(o *options) { o.httpClient = h }
}

func APIKey(k string) Option {
	return func(o *options) { o.apiKey = k }
}

func SecretKey(s string) Option {
	return func(o *options) { o.secretKey = s }
}

func Passphrase(p string) Option {
	return func(o *options) { o.passphrase = p }
}

// Simulated 启用模拟盘请求头
func Simulated(s bool) Option {
	return func(o *options) { o.simulated = s }
}
