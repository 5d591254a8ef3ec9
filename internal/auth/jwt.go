// Package auth issues and verifies operator tokens.
package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "identity-ocr-service"

// DefaultTokenTTL is the lifetime of issued tokens.
const DefaultTokenTTL = 12 * time.Hour

var (
	// ErrNoClaims is returned when a request carries no verified token.
	ErrNoClaims = errors.New("no token claims in context")
	// ErrInvalidToken is returned for malformed, forged or expired tokens.
	ErrInvalidToken = errors.New("invalid token")
)

var (
	signingKey []byte
	tokenTTL   = DefaultTokenTTL
)

// PublicPaths are served without a token.
var PublicPaths = map[string]bool{
	"/health":    true,
	"/metrics":   true,
	"/api/login": true,
}

// Claims are the JWT claims of an operator token.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type claimsKey struct{}

// Init sets the HS256 signing secret and token lifetime. A zero ttl selects
// DefaultTokenTTL.
func Init(secret string, ttl time.Duration) error {
	if len(secret) < 16 {
		return errors.New("JWT secret must be at least 16 bytes")
	}
	signingKey = []byte(secret)
	if ttl > 0 {
		tokenTTL = ttl
	} else {
		tokenTTL = DefaultTokenTTL
	}
	return nil
}

// GenerateToken issues a signed token for an operator.
func GenerateToken(userID, email, name, role string) (string, error) {
	if signingKey == nil {
		return "", errors.New("auth not initialized")
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		Email:  email,
		Name:   name,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(signingKey)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token")
	}
	return signed, nil
}

// ParseToken verifies a signed token and returns its claims.
func ParseToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return signingKey, nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "parsing token"), ErrInvalidToken)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// JWTMiddleware rejects requests without a valid Bearer token, except for
// PublicPaths, and stores the claims in the request context.
func JWTMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if PublicPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			unauthorized(w, "missing bearer token")
			return
		}
		claims, err := ParseToken(tokenString)
		if err != nil {
			unauthorized(w, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// WithClaims returns a context carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// GetClaimsFromContext returns the claims stored by JWTMiddleware.
func GetClaimsFromContext(ctx context.Context) (*Claims, error) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	if !ok || claims == nil {
		return nil, ErrNoClaims
	}
	return claims, nil
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	writeError(w, http.StatusUnauthorized, msg)
}
