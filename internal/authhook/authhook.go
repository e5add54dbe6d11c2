// Package authhook implements the @protected directive's verification
// hook: a bearer JWT is parsed and validated, exposing a single AuthOK
// check to evalir.Protect. It intentionally stops at verification — issuing
// or refreshing tokens is an external collaborator's concern per spec.md's
// Non-goals, mirrored by Hola-to-network_logistics_problem's separate
// auth-svc boundary.
package authhook

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier checks bearer tokens extracted from the Authorization header.
type Verifier struct {
	secret []byte
}

func New(secret []byte) *Verifier {
	return &Verifier{secret: secret}
}

type claimsKey struct{}

// Authenticate parses and validates token, returning a context carrying the
// parsed claims for downstream @protected(scopes:) checks.
func (v *Verifier) Authenticate(ctx context.Context, token string) (context.Context, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("authhook: unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return ctx, fmt.Errorf("authhook: invalid token: %w", err)
	}
	claims, _ := parsed.Claims.(jwt.MapClaims)
	return context.WithValue(ctx, claimsKey{}, claims), nil
}

// AuthOK reports whether the context carries claims from a prior successful
// Authenticate call; it is the func evalir.RequestContext.AuthOK is set to.
func AuthOK(ctx context.Context) bool {
	_, ok := ctx.Value(claimsKey{}).(jwt.MapClaims)
	return ok
}

// Claims returns the verified claims, if any.
func Claims(ctx context.Context) (jwt.MapClaims, bool) {
	c, ok := ctx.Value(claimsKey{}).(jwt.MapClaims)
	return c, ok
}

// HasScope reports whether the verified claims include scope among a
// space-separated "scope" claim, the common JWT scopes convention.
func HasScope(ctx context.Context, scope string) bool {
	claims, ok := Claims(ctx)
	if !ok {
		return false
	}
	raw, _ := claims["scope"].(string)
	for _, s := range splitFields(raw) {
		if s == scope {
			return true
		}
	}
	return false
}

func splitFields(s string) []string {
	var out []string
	start := -1
	for i := 0; i <= len(s); i++ {
		if i < len(s) && s[i] != ' ' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			out = append(out, s[start:i])
			start = -1
		}
	}
	return out
}
