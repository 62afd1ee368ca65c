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
	// ErrInvalidLink covers malformed or tampered tokens.
	ErrInvalidLink = errors.New("invalid download link")
	// ErrLinkExpired is returned once a token is past its expiry.
	ErrLinkExpired = errors.New("download link expired")
)

// Link is what a download token resolves to.
type Link struct {
	ID        string
	Path      string
	ExpiresAt time.Time
}

// LinkSigner issues and checks HMAC-signed download tokens of the form
// id.expiry.path.signature.
type LinkSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewLinkSigner builds a signer. A non-positive ttl means one day.
func NewLinkSigner(secret string, ttl time.Duration) *LinkSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &LinkSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token for the document stored at relPath.
func (s *LinkSigner) Sign(id, relPath string) (string, time.Time, error) {
	if id == "" || relPath == "" || strings.Contains(id, ".") {
		return "", time.Time{}, fmt.Errorf("%w: id and path required", ErrInvalidLink)
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, errors.New("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(relPath))
	token := strings.Join([]string{id, ts, encodedPath, s.signature(id, ts, encodedPath)}, ".")
	return token, expiresAt, nil
}

// Verify checks the signature and expiry of token.
func (s *LinkSigner) Verify(token string) (*Link, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return nil, ErrInvalidLink
	}
	id, ts, encodedPath, signature := parts[0], parts[1], parts[2], parts[3]
	if !hmac.Equal([]byte(s.signature(id, ts, encodedPath)), []byte(signature)) {
		return nil, ErrInvalidLink
	}
	rawPath, err := base64.RawURLEncoding.DecodeString(encodedPath)
	if err != nil {
		return nil, ErrInvalidLink
	}
	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return nil, ErrInvalidLink
	}
	link := &Link{ID: id, Path: string(rawPath), ExpiresAt: time.Unix(expUnix, 0)}
	if s.now().After(link.ExpiresAt) {
		return nil, ErrLinkExpired
	}
	return link, nil
}

func (s *LinkSigner) signature(id, ts, encodedPath string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(id + "|" + ts + "|" + encodedPath))
	return hex.EncodeToString(mac.Sum(nil))
}
