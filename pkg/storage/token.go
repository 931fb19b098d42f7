package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidToken marks a malformed or tampered token.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken marks a well-formed token past its expiry.
	ErrExpiredToken = errors.New("token expired")
)

// TokenSigner issues HMAC signed tokens binding a subject (an email, an
// object key) to a purpose and an expiry.
type TokenSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenSigner constructs a signer with the provided secret and TTL.
func NewTokenSigner(secret string, ttl time.Duration) *TokenSigner {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &TokenSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate returns a URL safe token for subject under purpose.
func (s *TokenSigner) Generate(purpose, subject string) (string, time.Time, error) {
	if purpose == "" || subject == "" {
		return "", time.Time{}, fmt.Errorf("purpose and subject required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl)
	encoded := base64.RawURLEncoding.EncodeToString([]byte(subject))
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	return strings.Join([]string{encoded, exp, s.sign(purpose, encoded, exp)}, "."), expiresAt, nil
}

// Parse validates a token for purpose and returns its subject.
func (s *TokenSigner) Parse(purpose, token string) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", ErrInvalidToken
	}
	encoded, exp, signature := parts[0], parts[1], parts[2]

	if !hmac.Equal([]byte(s.sign(purpose, encoded, exp)), []byte(signature)) {
		return "", ErrInvalidToken
	}
	subject, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidToken
	}
	expUnix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return "", ErrInvalidToken
	}
	if s.now().After(time.Unix(expUnix, 0)) {
		return "", ErrExpiredToken
	}
	return string(subject), nil
}

func (s *TokenSigner) sign(purpose, encoded, exp string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(purpose + "|" + encoded + "|" + exp))
	return hex.EncodeToString(mac.Sum(nil))
}
