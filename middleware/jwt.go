package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// TokenTTL is how long a signed-in token stays valid.
const TokenTTL = 30 * 24 * time.Hour

// Claims extends jwt.RegisteredClaims with application-specific fields.
type Claims struct {
	Username string `json:"username"`
	UserHash string `json:"user_hash"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// UserHashFromUsername returns a deterministic HMAC hash for the given username and key.
func UserHashFromUsername(username string, key []byte) string {
	normalized := strings.ToLower(strings.TrimSpace(username))
	mac := hmac.New(sha256.New, key)
	_, _ = mac.Write([]byte(normalized))
	return hex.EncodeToString(mac.Sum(nil))
}

// NewToken signs an HS256 token for username with the given role.
func NewToken(username, role string, key []byte, now time.Time) (string, error) {
	claims := &Claims{
		Username: username,
		UserHash: UserHashFromUsername(username, key),
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// JWT returns an Echo middleware that validates the Authorization header token
// using the provided signing key. The "Bearer " prefix is optional.
func JWT(key []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := strings.TrimSpace(c.Request().Header.Get("Authorization"))
			if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			claims := &Claims{}
			tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
				return key, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil {
				if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token signature")
				}
				if errors.Is(err, jwt.ErrTokenExpired) {
					return echo.NewHTTPError(http.StatusUnauthorized, "token expired")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if !tkn.Valid || claims.UserHash != UserHashFromUsername(claims.Username, key) {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set("username", claims.Username)
			c.Set("user_hash", claims.UserHash)
			c.Set("role", claims.Role)
			return next(c)
		}
	}
}

// RequireRole rejects requests whose token role differs from role. It must
// run after JWT.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if got, _ := c.Get("role").(string); got != role {
				return echo.NewHTTPError(http.StatusForbidden, role+" access required")
			}
			return next(c)
		}
	}
}
