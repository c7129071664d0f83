package services

import (
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKeyAndQRCode(t *testing.T) {
	key, err := generateKey("POS", "cashier@shop.test")
	require.NoError(t, err)
	assert.Equal(t, "POS", key.Issuer())
	assert.Equal(t, "cashier@shop.test", key.AccountName())

	code, err := totp.GenerateCode(key.Secret(), time.Now())
	require.NoError(t, err)
	assert.True(t, totp.Validate(code, key.Secret()))

	uri, err := qrDataURI(key)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
}
