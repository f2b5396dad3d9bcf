package whatsapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify(t *testing.T) {
	a := NewAdapter(nil, nil, nil, Options{VerifyToken: "secret-token"}, zerolog.Nop())

	challenge, err := a.Verify("subscribe", "secret-token", "1158201444")
	require.NoError(t, err)
	assert.Equal(t, "1158201444", challenge)

	_, err = a.Verify("subscribe", "wrong", "1")
	assert.ErrorIs(t, err, ErrVerification)

	_, err = a.Verify("unsubscribe", "secret-token", "1")
	assert.ErrorIs(t, err, ErrVerification)

	empty := NewAdapter(nil, nil, nil, Options{}, zerolog.Nop())
	_, err = empty.Verify("subscribe", "", "1")
	assert.ErrorIs(t, err, ErrVerification)
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"object":"whatsapp_business_account"}`)
	mac := hmac.New(sha256.New, []byte("app-secret"))
	mac.Write(body)
	valid := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	a := NewAdapter(nil, nil, nil, Options{AppSecret: "app-secret"}, zerolog.Nop())
	assert.NoError(t, a.VerifySignature(body, valid))
	assert.ErrorIs(t, a.VerifySignature(body, "sha256=deadbeef"), ErrInvalidSignature)
	assert.ErrorIs(t, a.VerifySignature(body, "md5=abc"), ErrInvalidSignature)
	assert.ErrorIs(t, a.VerifySignature(append(body, ' '), valid), ErrInvalidSignature)

	open := NewAdapter(nil, nil, nil, Options{}, zerolog.Nop())
	assert.NoError(t, open.VerifySignature(body, ""))
}
