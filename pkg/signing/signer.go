package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMalformed    = errors.New("malformed token")
	ErrBadSignature = errors.New("invalid token signature")
	ErrExpired      = errors.New("token expired")
	ErrNoSecret     = errors.New("signing secret missing")
)

// Claims is the content of a signed link token.
type Claims struct {
	Subject   string
	Resource  string
	ExpiresAt time.Time
}

// Signer issues and verifies HMAC-SHA256 link tokens of the form
// subject.resource.expiry.signature, with subject and resource base64url encoded.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner constructs a signer. A non-positive ttl defaults to 15 minutes.
func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock overrides the time source.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	s.now = now
	return s
}

// Sign returns a token for subject and resource valid for the signer's ttl.
func (s *Signer) Sign(subject, resource string) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, ErrNoSecret
	}
	if subject == "" || resource == "" {
		return "", time.Time{}, ErrMalformed
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	payload := strings.Join([]string{
		encode(subject),
		encode(resource),
		strconv.FormatInt(expiresAt.Unix(), 10),
	}, ".")
	return payload + "." + s.mac(payload), expiresAt, nil
}

// Verify checks the signature and expiry of token.
func (s *Signer) Verify(token string) (*Claims, error) {
	if len(s.secret) == 0 {
		return nil, ErrNoSecret
	}
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return nil, ErrMalformed
	}
	payload := strings.Join(parts[:3], ".")
	if !hmac.Equal([]byte(s.mac(payload)), []byte(parts[3])) {
		return nil, ErrBadSignature
	}

	subject, err := decode(parts[0])
	if err != nil {
		return nil, ErrMalformed
	}
	resource, err := decode(parts[1])
	if err != nil {
		return nil, ErrMalformed
	}
	unix, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return nil, ErrMalformed
	}
	expiresAt := time.Unix(unix, 0)
	if !s.now().Before(expiresAt) {
		return nil, ErrExpired
	}
	return &Claims{Subject: subject, Resource: resource, ExpiresAt: expiresAt}, nil
}

func (s *Signer) mac(payload string) string {
	h := hmac.New(sha256.New, s.secret)
	_, _ = h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}

func encode(v string) string { return base64.RawURLEncoding.EncodeToString([]byte(v)) }

func decode(v string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(v)
	return string(raw), err
}
