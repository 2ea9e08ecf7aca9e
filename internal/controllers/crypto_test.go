package controllers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_CryptoController(t *testing.T) {
	crypto := NewCryptoController("secret-key")

	t.Run("signature is deterministic", func(t *testing.T) {
		sig := crypto.GetSignature("/orders/place", "symbol=BTCUSD", 1700000000)

		assert.Equal(t, "d18e2c7885abef76e217b4a04cad01b2a1fc7397c885eb98082a62b92a4a7814", sig)
		assert.Equal(t, sig, crypto.GetSignature("/orders/place", "symbol=BTCUSD", 1700000000))
	})

	t.Run("expiry changes the signature", func(t *testing.T) {
		a := crypto.GetSignature("/orders/place", "symbol=BTCUSD", 1700000000)
		b := crypto.GetSignature("/orders/place", "symbol=BTCUSD", 1700000060)

		assert.NotEqual(t, a, b)
	})
}
