package controllers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

type CryptoController struct {
	secretKey string
}

func NewCryptoController(secretKey string) *CryptoController {
	return &CryptoController{
		secretKey: secretKey,
	}
}

// GetSignature signs urlPath+query+expiry the way the venue expects
// private REST requests to be signed.
func (c *CryptoController) GetSignature(urlPath, query string, expiry int64) string {
	h := hmac.New(sha256.New, []byte(c.secretKey))
	h.Write([]byte(fmt.Sprintf("%s%s%d", urlPath, query, expiry)))

	return hex.EncodeToString(h.Sum(nil))
}
