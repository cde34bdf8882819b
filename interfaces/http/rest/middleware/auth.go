package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"finagotchi-backend/pkg/common"
)

type contextKey string

// SubjectKey carries the authenticated subject id through the request
// context.
const SubjectKey contextKey = "subjectID"

// Authenticate validates an HS256 bearer token and stores its subject
// claim in the request context. When enabled is false the middleware
// passes every request through untouched.
func Authenticate(secret, issuer string, enabled bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				respondUnauthorized(w, "Missing or malformed authorization header")
				return
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return []byte(secret), nil
			}, jwt.WithIssuer(issuer))
			if err != nil || !token.Valid {
				respondUnauthorized(w, "Invalid token")
				return
			}

			subject, _ := claims.GetSubject()
			if subject == "" {
				respondUnauthorized(w, "Token has no subject")
				return
			}

			ctx := context.WithValue(r.Context(), SubjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SubjectFromContext returns the authenticated subject id, or "".
func SubjectFromContext(ctx context.Context) string {
	subject, _ := ctx.Value(SubjectKey).(string)
	return subject
}

func respondUnauthorized(w http.ResponseWriter, message string) {
	common.RespondError(w, http.StatusUnauthorized, common.StandardErrorCodes.Unauthorized, message)
}
