package whatsapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
)

var (
	ErrVerification     = errors.New("webhook verification failed")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// Verify answers the subscription handshake. It returns the challenge to echo
// back when mode is "subscribe" and token matches the configured verify token.
func (a *Adapter) Verify(mode, token, challenge string) (string, error) {
	if mode != "subscribe" || a.opts.VerifyToken == "" {
		return "", ErrVerification
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(a.opts.VerifyToken)) != 1 {
		return "", ErrVerification
	}
	return challenge, nil
}

// VerifySignature checks the X-Hub-Signature-256 header against body. It is a
// no-op when no app secret is configured.
func (a *Adapter) VerifySignature(body []byte, header string) error {
	if a.opts.AppSecret == "" {
		return nil
	}
	sig, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return ErrInvalidSignature
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(a.opts.AppSecret))
	mac.Write(body)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return ErrInvalidSignature
	}
	return nil
}
