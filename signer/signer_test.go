package signer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSign(t *testing.T) {
	secret := "22582BD0CFF14C41EDBF1AB98506286D"

	sign, err := Sign("2020-12-08T09:08:57.715Z", "GET", "/api/v5/account/balance", "", secret)
	assert.NoError(t, err)
	assert.Equal(t, "AkD5YszBhggtIyjDlmTy/9PpNVntel+1Lff8wh0qpQw=", sign)
}

func TestSignLogin(t *testing.T) {
	secret := "22582BD0CFF14C41EDBF1AB98506286D"

	// 登录签名用秒级时间戳和固定校验路径
	sign, err := Sign("1538054050", "GET", "/users/self/verify", "", secret)
	assert.NoError(t, err)
	assert.Equal(t, "+LdIr8lkkvhr5hoA3g9TMC0+uQJ849ftAcocA/ouu4M=", sign)
}

func TestIsoTimestamp(t *testing.T) {
	ts := time.Date(2020, 12, 8, 9, 8, 57, 715000000, time.UTC)
	assert.Equal(t, "2020-12-08T09:08:57.715Z", IsoTimestamp(ts))
}
