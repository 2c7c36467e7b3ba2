package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fhuszti/videos-ms-go/internal/api_context"
	"github.com/fhuszti/videos-ms-go/internal/handler/api"
	"github.com/golang-jwt/jwt/v4"
)

const (
	dstIssuer   = "core"
	dstAudience = "videos"
	iatLeeway   = 30 * time.Second
)

// WithDSTAuth validates a short-lived Bearer JWT (DST only)
func WithDSTAuth(jwtPublicKeyPEM string) func(http.Handler) http.Handler {
	// Passthrough if no public key is provided
	if jwtPublicKeyPEM == "" {
		return func(next http.Handler) http.Handler { return next }
	}

	pubKey, err := jwt.ParseRSAPublicKeyFromPEM([]byte(jwtPublicKeyPEM))
	if err != nil {
		panic(fmt.Sprintf("invalid Core RSA public key: %v", err))
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Name}),
	)
	keyFunc := func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodRS256 {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return pubKey, nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				api.WriteError(w, http.StatusUnauthorized, "missing bearer token", nil)
				return
			}

			claims := jwt.MapClaims{}
			tok, err := parser.ParseWithClaims(raw, claims, keyFunc)
			if err != nil || !tok.Valid {
				api.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
				return
			}
			if msg := checkDSTClaims(claims, time.Now()); msg != "" {
				api.WriteError(w, http.StatusUnauthorized, msg, nil)
				return
			}

			sub, _ := claims["sub"].(string)
			ctx := context.WithValue(r.Context(), api_context.AuthUserIDKey, sub)
			ctx = context.WithValue(ctx, api_context.AuthRolesKey, toStringSlice(claims["roles"]))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// checkDSTClaims returns the rejection message, or "" when the claims are acceptable.
func checkDSTClaims(claims jwt.MapClaims, now time.Time) string {
	switch {
	case !claims.VerifyIssuer(dstIssuer, true):
		return "bad issuer"
	case !claims.VerifyAudience(dstAudience, true):
		return "bad audience"
	case !claims.VerifyExpiresAt(now.Unix(), true):
		return "token expired"
	}
	if iat, ok := asInt64(claims["iat"]); ok && time.Unix(iat, 0).After(now.Add(iatLeeway)) {
		return "invalid iat"
	}
	if sub, _ := claims["sub"].(string); sub == "" {
		return "missing sub"
	}
	return ""
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case float64:
		return int64(x), true
	case json.Number:
		i, err := x.Int64()
		if err == nil {
			return i, true
		}
	}
	return 0, false
}

func toStringSlice(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
