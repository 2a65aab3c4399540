package session

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// ErrOpaqueToken indicates the token is not a JWT.
var ErrOpaqueToken = errors.New("token is not a jwt")

// Claims is the subset of token claims the client reads for diagnostics.
// Signatures are not verified; the backend stays the authority.
type Claims struct {
	Subject   string
	Role      string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// ExpiredAt reports whether the token carries an expiry before now.
func (c Claims) ExpiredAt(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Inspect decodes the claims of a JWT bearer token without verifying it.
func Inspect(token string) (Claims, error) {
	if token == "" {
		return Claims{}, ErrOpaqueToken
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return Claims{}, errors.Join(ErrOpaqueToken, err)
	}
	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrOpaqueToken
	}
	var out Claims
	out.Subject, _ = mc.GetSubject()
	if out.Subject == "" {
		// Some backends put the user id in "id" instead of "sub".
		if id, ok := mc["id"].(string); ok {
			out.Subject = id
		}
	}
	if role, ok := mc["role"].(string); ok {
		out.Role = role
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}
	return out, nil
}
