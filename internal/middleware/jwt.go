// internal/middleware/jwt.go
package middleware

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"firechat/internal/models"
	"firechat/internal/utils"
)

// The identity provider signs session tokens with a shared secret; this
// engine only validates and reads them, it never issues tokens.
var jwtSecret = func() []byte {
	if s := os.Getenv("JWT_SECRET"); s != "" {
		return []byte(s)
	}
	return []byte("firechat_secret_key_should_be_loaded_from_env")
}()

// Claims carries the (uid, name, email) triple the session provider
// supplies for the signed-in user.
type Claims struct {
	UID   string `json:"uid"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Identity converts the claims into the engine's identity triple.
func (c *Claims) Identity() models.Identity {
	return models.Identity{UID: c.UID, Name: c.Name, Email: c.Email}
}

// ValidateToken parses and validates a session token string.
func ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, utils.NewAppError(utils.ErrInvalidToken, "unexpected signing method", nil)
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, utils.NewAppError(utils.ErrInvalidToken, "invalid or expired token", err)
	}
	if !token.Valid || claims.UID == "" {
		return nil, utils.NewAppError(utils.ErrInvalidToken, "invalid token claims", nil)
	}
	return claims, nil
}

type contextKey string

const identityKey contextKey = "identity"

// IdentityFromContext returns the authenticated identity placed by
// RequireIdentity.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(identityKey).(models.Identity)
	return id, ok
}

// RequireIdentity rejects requests without a valid bearer token and stores
// the identity triple on the request context.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			http.Error(w, "Missing authentication token", http.StatusUnauthorized)
			return
		}
		claims, err := ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), identityKey, claims.Identity())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
