// Package auth provides JWT verification helpers.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Verifier validates JWTs and extracts user/role claims.
// Modes: dev (no verify), hmac (HS256).
type Verifier struct {
	Mode       string
	HMACSecret []byte
	UserClaim  string
	RoleClaim  string
}

type Principal struct {
	UserID int64
	Role   string
}

func NewVerifierFromEnv() *Verifier {
	mode := strings.ToLower(strings.TrimSpace(os.Getenv("AUTH_MODE")))
	if mode == "" {
		mode = "dev"
	}
	return &Verifier{
		Mode:       mode,
		HMACSecret: []byte(os.Getenv("AUTH_HMAC_SECRET")),
		UserClaim:  envOr("AUTH_USER_CLAIM", "sub"),
		RoleClaim:  envOr("AUTH_ROLE_CLAIM", "role"),
	}
}

// Verify parses the token and returns its principal. In dev mode the payload
// is decoded without signature verification.
func (v *Verifier) Verify(token string) (Principal, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Principal{}, errors.New("malformed token")
	}
	if v.Mode == "hmac" {
		if len(v.HMACSecret) == 0 {
			return Principal{}, errors.New("hmac mode without secret")
		}
		mac := hmac.New(sha256.New, v.HMACSecret)
		mac.Write([]byte(parts[0] + "." + parts[1]))
		sig, err := base64.RawURLEncoding.DecodeString(parts[2])
		if err != nil || !hmac.Equal(mac.Sum(nil), sig) {
			return Principal{}, errors.New("bad signature")
		}
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return Principal{}, errors.New("bad payload encoding")
	}
	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		return Principal{}, err
	}
	if exp, ok := claims["exp"].(float64); ok && time.Now().Unix() > int64(exp) {
		return Principal{}, errors.New("token expired")
	}
	p := Principal{}
	switch sub := claims[v.UserClaim].(type) {
	case string:
		p.UserID, _ = strconv.ParseInt(sub, 10, 64)
	case float64:
		p.UserID = int64(sub)
	}
	if role, ok := claims[v.RoleClaim].(string); ok {
		p.Role = role
	}
	return p, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
