package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/ppob-membership/pkg/helpers"
	"github.com/oksasatya/ppob-membership/pkg/response"
)

const (
	CtxUserID    = "userID"
	CtxUserEmail = "userEmail"
)

const msgInvalidToken = "Token tidak valid atau kadaluwarsa"

func bearerToken(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if tok, err := c.Cookie(helpers.AccessTokenCookie); err == nil {
		return tok
	}
	return ""
}

// Auth validates the access token from the Authorization header or the
// access_token cookie. When Redis is configured the token's session id must
// match the live session. It sets userID and userEmail in the Gin context.
func Auth(rdb *redis.Client, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, response.CodeInvalidToken, msgInvalidToken)
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, response.CodeInvalidToken, msgInvalidToken)
			return
		}

		if rdb != nil {
			sid, err := rdb.HGet(c.Request.Context(), helpers.SessionKey(claims.UserID), "sid").Result()
			if err != nil || sid != claims.SessionID {
				response.Abort(c, http.StatusUnauthorized, response.CodeInvalidToken, msgInvalidToken)
				return
			}
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxUserEmail, claims.Email)
		c.Next()
	}
}
