package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"time"
)

// IsoTimestamp formats a time into the ISO 8601 form OKX expects, with milliseconds.
func IsoTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.999Z")
}

// Sign 对 timestamp + method + requestPath + body 做 HMAC-SHA256 并转 base64。
// 登录帧和REST私有接口共用同一套签名。
func Sign(timestamp, method, requestPath, body, secret string) (string, error) {
	preSign := timestamp + method + requestPath + body
	mac := hmac.New(sha256.New, []byte(secret))
	if _, err := mac.Write([]byte(preSign)); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}
