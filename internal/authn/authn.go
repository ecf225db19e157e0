// Package authn validates Supabase-issued access tokens and exposes
// the authenticated identity through the request context. It is its
// own package so both handler trees can share the context helpers.
package authn

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const (
	userIDKey contextKey = "userID"
	emailKey  contextKey = "userEmail"
)

// Claims is the subset of the Supabase JWT payload the API uses.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Validator checks HS256 tokens signed with the project's JWT
// secret, the scheme Supabase uses for user access tokens.
type Validator struct {
	secret []byte
	logger *zap.Logger
}

func NewValidator(secret string, logger *zap.Logger) *Validator {
	return &Validator{secret: []byte(secret), logger: logger}
}

// ValidateAccessToken parses and verifies a raw token string.
func (v *Validator) ValidateAccessToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("invalid token: missing subject")
	}
	return claims, nil
}

// Middleware authenticates the request and injects user id and
// email into the context. Unauthenticated requests get 401 with a
// JSON error body.
func (v *Validator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			v.logger.Warn("auth: missing token",
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
			)
			writeUnauthorized(w, "missing bearer token")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			v.logger.Warn("auth: invalid token format",
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
			)
			writeUnauthorized(w, "invalid token format")
			return
		}

		claims, err := v.ValidateAccessToken(parts[1])
		if err != nil {
			v.logger.Warn("auth: invalid or expired token",
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			writeUnauthorized(w, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.Subject)
		ctx = context.WithValue(ctx, emailKey, claims.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"error":%q}`, msg)
}

// UserIDFromContext extracts the authenticated user id.
func UserIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(userIDKey).(string)
	return v
}

// EmailFromContext extracts the authenticated user's email, when
// the token carried one.
func EmailFromContext(ctx context.Context) string {
	v, _ := ctx.Value(emailKey).(string)
	return v
}
