package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/sathvikreddy369/sign-language/models"
	"github.com/sathvikreddy369/sign-language/utils"
)

const claimsKey = "userClaims"

var errAccountInactive = errors.New("account inactive or blocked")

// AuthMiddleware requires a valid bearer token from an active account.
func AuthMiddleware(db *gorm.DB, secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "missing Authorization header"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid Authorization header format"})
			return
		}

		claims, err := validateJWT(tokenStr, db, secret)
		if err != nil {
			status := http.StatusUnauthorized
			if errors.Is(err, errAccountInactive) {
				status = http.StatusForbidden
			}
			c.AbortWithStatusJSON(status, gin.H{"success": false, "error": err.Error()})
			return
		}

		// Attach claims to context
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// OptionalAuth resolves the caller's identity once per request when a valid
// token is present and refreshes the user's activity stamp. Requests without
// a usable token continue anonymously.
func OptionalAuth(db *gorm.DB, secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if authHeader == "" || tokenStr == authHeader {
			c.Next()
			return
		}

		claims, err := validateJWT(tokenStr, db, secret)
		if err != nil {
			c.Next()
			return
		}

		c.Set(claimsKey, claims)
		// Best-effort activity stamp; an anonymous-looking failure here must
		// not fail the request.
		db.Model(&models.User{}).
			Where("id = ?", claims.UserID).
			Update("last_activity_at", time.Now().UTC())
		c.Next()
	}
}

// CurrentClaims returns the resolved identity of the request, or nil for
// anonymous callers.
func CurrentClaims(c *gin.Context) *utils.JWTClaims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, ok := v.(*utils.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func validateJWT(tokenStr string, db *gorm.DB, secret []byte) (*utils.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &utils.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(*utils.JWTClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}

	var user models.User
	if err := db.First(&user, "id = ?", claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, err
	}

	if !user.Active || user.Blocked {
		return nil, errAccountInactive
	}

	return claims, nil
}
