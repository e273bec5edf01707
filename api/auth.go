package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
)

const userIDKey = "userID"

type ApiJWT struct {
	Audience  string  `json:"aud"`
	Email     *string `json:"email"`
	ExpiresAt int64   `json:"exp"`
	IssuedAt  int64   `json:"iat"`
	Issuer    string  `json:"iss"`
	Role      string  `json:"role"`
	Subject   string  `json:"sub"`
}

func parseJWT(jwtStr string, decodeToken string) (*ApiJWT, error) {
	token, err := jwt.Parse(jwtStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(decodeToken), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("failed to parse claims")
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal claims: %w", err)
	}

	var parsedJWT ApiJWT
	if err := json.Unmarshal(claimsJSON, &parsedJWT); err != nil {
		return nil, fmt.Errorf("failed to unmarshal claims: %w", err)
	}

	// MapClaims only checks exp when present
	if parsedJWT.ExpiresAt == 0 {
		return nil, errors.New("jwt has no expiry")
	}
	if time.Now().UTC().Unix() > parsedJWT.ExpiresAt {
		return nil, errors.New("jwt is expired")
	}

	return &parsedJWT, nil
}

// authMiddleware requires an HS256 bearer token when a decode token is
// configured. Without one every request is let through.
func (m ApiHandler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.JwtDecodeToken == "" {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenStr == "" {
			returnErrorJsonCode(errors.New("missing bearer token"), c, http.StatusUnauthorized)
			return
		}

		parsed, err := parseJWT(tokenStr, m.JwtDecodeToken)
		if err != nil {
			returnErrorJsonCode(err, c, http.StatusUnauthorized)
			return
		}

		c.Set(userIDKey, parsed.Subject)
		c.Next()
	}
}
