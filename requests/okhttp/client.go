package okhttp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bitly/go-simplejson"
	"github.com/go-gotop/okconn/signer"
	jsoniter "github.com/json-iterator/go"
)

// Redefining the standard package
var Json = jsoniter.ConfigCompatibleWithStandardLibrary

func NewJSON(data []byte) (j *simplejson.Json, err error) {
	j, err = simplejson.NewJson(data)
	if err != nil {
		return nil, err
	}
	return j, nil
}

// NewClient initialize an API client instance with API key and secret key.
// You should always call this function before using this SDK.
func NewClient(ops ...Option) *Client {
	opts := &options{
		httpClient: http.DefaultClient,
	}
	for _, o := range ops {
		o(opts)
	}
	if opts.proxyUrl != "" {
		proxy, err := url.Parse(opts.proxyUrl)
		if err != nil {
			panic(err)
		}
		tr := &http.Transport{
			Proxy: http.ProxyURL(proxy),
		}
		opts.httpClient.Transport = tr
	}
	return &Client{
		baseURL:   opts.baseURL,
		userAgent: "okconn",
		opts:      opts,
	}
}

// APIError define API error when response status is 4xx or 5xx
type APIError struct {
	Code    int64  `json:"code,string"`
	Message string `json:"msg"`
}

// Error return error code and message
func (e APIError) Error() string {
	return fmt.Sprintf("<APIError> code=%d, msg=%s", e.Code, e.Message)
}

// IsAPIError check if e is an API error
func IsAPIError(e error) bool {
	_, ok := e.(*APIError)
	return ok
}

type doFunc func(req *http.Request) (*http.Response, error)

// Client define API client
type Client struct {
	baseURL   string
	opts      *options
	userAgent string
	do        doFunc
}

func (c *Client) parseRequest(r *Request, opts ...RequestOption) error {
	// Set request options from user
	for _, opt := range opts {
		opt(r)
	}
	if err := r.validate(); err != nil {
		return err
	}

	fullURL := fmt.Sprintf("%s%s", c.baseURL, r.Endpoint)
	queryString := r.query.Encode()

	bodyString := ""
	if r.body != nil {
		bodyBytes, err := io.ReadAll(r.body)
		if err != nil {
			return err
		}
		bodyString = string(bodyBytes)
	}

	header := http.Header{}
	if r.header != nil {
		header = r.header.Clone()
	}
	header.Set("Content-Type", "application/json")
	header.Set("User-Agent", c.userAgent)
	if c.opts.simulated {
		header.Set("x-simulated-trading", "1")
	}

	if r.SecType == SecTypeSigned {
		curTime := signer.IsoTimestamp(time.Now().UTC())
		requestPath := r.Endpoint
		if queryString != "" {
			requestPath = fmt.Sprintf("%s?%s", r.Endpoint, queryString)
		}
		sign, err := signer.Sign(curTime, r.Method, requestPath, bodyString, c.opts.secretKey)
		if err != nil {
			return err
		}
		header.Set("OK-ACCESS-KEY", c.opts.apiKey)
		header.Set("OK-ACCESS-TIMESTAMP", curTime)
		header.Set("OK-ACCESS-PASSPHRASE", c.opts.passphrase)
		header.Set("OK-ACCESS-SIGN", sign)
	}

	if queryString != "" {
		fullURL = fmt.Sprintf("%s?%s", fullURL, queryString)
	}

	r.fullURL = fullURL
	r.header = header
	r.body = bytes.NewBufferString(bodyString)
	return nil
}

func (c *Client) CallAPI(ctx context.Context, r *Request, opts ...RequestOption) (data []byte, err error) {
	err = c.parseRequest(r, opts...)
	if err != nil {
		return []byte{}, err
	}
	req, err := http.NewRequest(r.Method, r.fullURL, r.body)
	if err != nil {
		return []byte{}, err
	}
	req = req.WithContext(ctx)
	req.Header = r.header
	f := c.do
	if f == nil {
		f = c.opts.httpClient.Do
	}
	res, err := f(req)
	if err != nil {
		return []byte{}, err
	}
	data, err = io.ReadAll(res.Body)
	if err != nil {
		return []byte{}, err
	}
	defer func() {
		cerr := res.Body.Close()
		// Only overwrite the returned error if the original error was nil and an
		// error occurred while closing the body.
		if err == nil && cerr != nil {
			err = cerr
		}
	}()

	if res.StatusCode >= http.StatusBadRequest {
		apiErr := new(APIError)
		e := Json.Unmarshal(data, apiErr)
		if e != nil {
			return nil, e
		}
		return nil, apiErr
	}
	return data, nil
}

// SetApiEndpoint set api Endpoint
func (c *Client) SetApiEndpoint(url string) {
	c.baseURL = url
}
