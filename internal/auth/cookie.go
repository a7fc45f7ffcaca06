// Package auth signs and verifies the session cookie a client presents in
// its HELO handshake. The cookie only carries a display name for the
// action log; there are no accounts here.
package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CookieName is the cookie holding the signed username.
const CookieName = "username"

// DefaultMaxAge matches the 90-day login lifetime.
const DefaultMaxAge = 90 * 24 * time.Hour

// ErrInvalidCookie covers every way a cookie can fail verification.
var ErrInvalidCookie = errors.New("invalid session cookie")

// Signer creates and checks signed username values:
// base64url(name) "|" unix-seconds "|" hex(hmac-sha256).
type Signer struct {
	secret []byte
	MaxAge time.Duration
	now    func() time.Time
}

// NewSigner returns a signer for the given secret.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret), MaxAge: DefaultMaxAge, now: time.Now}
}

// Sign returns the signed value for name.
func (s *Signer) Sign(name string) string {
	payload := base64.RawURLEncoding.EncodeToString([]byte(name)) + "|" + strconv.FormatInt(s.now().Unix(), 10)
	return payload + "|" + s.mac(payload)
}

// Cookie returns a Cookie header value carrying the signed name.
func (s *Signer) Cookie(name string) string {
	return (&http.Cookie{Name: CookieName, Value: s.Sign(name)}).String()
}

// Verify checks a signed value and returns the name inside it.
func (s *Signer) Verify(value string) (string, error) {
	parts := strings.Split(value, "|")
	if len(parts) != 3 {
		return "", ErrInvalidCookie
	}
	payload := parts[0] + "|" + parts[1]
	if !hmac.Equal([]byte(parts[2]), []byte(s.mac(payload))) {
		return "", ErrInvalidCookie
	}
	ts, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", ErrInvalidCookie
	}
	if s.MaxAge > 0 && s.now().Sub(time.Unix(ts, 0)) > s.MaxAge {
		return "", fmt.Errorf("%w: expired", ErrInvalidCookie)
	}
	name, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil || len(name) == 0 {
		return "", ErrInvalidCookie
	}
	return string(name), nil
}

// FromHeader finds the username cookie in a raw Cookie header and verifies it.
func (s *Signer) FromHeader(header string) (string, error) {
	cookies, err := http.ParseCookie(strings.TrimSpace(header))
	if err != nil {
		return "", ErrInvalidCookie
	}
	for _, c := range cookies {
		if c.Name == CookieName {
			return s.Verify(c.Value)
		}
	}
	return "", ErrInvalidCookie
}

func (s *Signer) mac(payload string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}

// GenerateSecret returns a random URL-safe secret.
func GenerateSecret() string {
	b := make([]byte, 32)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
