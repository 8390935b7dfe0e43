package service

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

	"github.com/taskmaster-solutions/ms-go-tasks/app/entity"
)

// Password reset tokens are derived, not stored: the token is an HMAC over
// the user's id, current password hash, and issue timestamp. Changing the
// password changes the derivation input, so every token issued beforehand
// stops verifying.

// MakeResetToken returns a one-time token of the form
// "<timestamp-base36>-<hmac-hex>" valid for cfg.ResetTokenTTL from now.
func (s *TokenService) MakeResetToken(user *entity.User, now time.Time) string {
	ts := now.Unix()
	return strconv.FormatInt(ts, 36) + "-" + s.resetSignature(user, ts)
}

// CheckResetToken recomputes the expected derivation for the user and
// compares in constant time. Expired, tampered, and wrong-user tokens all
// return false.
func (s *TokenService) CheckResetToken(user *entity.User, token string, now time.Time) bool {
	parts := strings.SplitN(token, "-", 2)
	if len(parts) != 2 {
		return false
	}

	ts, err := strconv.ParseInt(parts[0], 36, 64)
	if err != nil {
		return false
	}

	expected := s.resetSignature(user, ts)
	if !hmac.Equal([]byte(expected), []byte(parts[1])) {
		return false
	}

	issued := time.Unix(ts, 0)
	if now.Before(issued) {
		return false
	}
	return now.Sub(issued) <= s.cfg.ResetTokenTTL
}

func (s *TokenService) resetSignature(user *entity.User, ts int64) string {
	mac := hmac.New(sha256.New, []byte(s.cfg.JWTSecret))
	fmt.Fprintf(mac, "password-reset:%d:%s:%d", user.ID, user.PasswordHash, ts)
	return hex.EncodeToString(mac.Sum(nil))
}

// EncodeUID renders a user id as the opaque uid path segment carried in
// reset links, separate from the token itself.
func EncodeUID(id uint64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatUint(id, 10)))
}

func DecodeUID(encoded string) (uint64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return 0, errors.New("invalid uid")
	}
	id, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, errors.New("invalid uid")
	}
	return id, nil
}
