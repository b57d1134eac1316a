package user

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

var (
	nowFunc = time.Now // mockable

	// ErrInvalidToken covers every token failure: unknown, expired and
	// already-redeemed tokens are indistinguishable to the caller so that
	// nothing leaks about which tokens exist.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// makeToken returns a URL-safe token from 32 bytes of crypto/rand.
func makeToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", pkgerrors.Wrap(err, "reading random bytes")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// tokenValid reports whether a stored token matches and has not passed its
// absolute expiry. A cleared token or missing expiry never matches.
func tokenValid(stored null.String, expiry null.Time, token string) bool {
	if token == "" || !stored.Valid || stored.String != token {
		return false
	}
	if !expiry.Valid || expiry.Time.Before(nowFunc().UTC()) {
		return false
	}
	return true
}
