package middleware

import (
	"context"

	"github.com/haierkeys/block-note-service/pkg/app"
	"github.com/haierkeys/block-note-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// UserLookup reports whether the user a token was issued to still exists
// UserLookup 查询令牌对应的用户是否存在
type UserLookup func(ctx context.Context, uid int64) (bool, error)

// UserAuthTokenWithConfig 用户 Token 认证中间件（使用注入的密钥）
// Accepts "Authorization: Bearer <jwt>", a bare Authorization value, or a token header/query
// A nil lookup trusts every validly signed token
func UserAuthTokenWithConfig(secretKey string, lookup UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		response := app.NewResponse(c)

		if s := c.GetHeader("Authorization"); len(s) != 0 {
			token = s
		} else if s, exist := c.GetQuery("authorization"); exist {
			token = s
		} else if s = c.GetHeader("token"); len(s) != 0 {
			token = s
		} else if s, exist := c.GetQuery("token"); exist {
			token = s
		}

		token = app.StripBearer(token)
		if token == "" {
			response.ToResponse(code.ErrorNotUserAuthToken)
			c.Abort()
			return
		}

		user, err := app.ParseTokenWithKey(token, secretKey)
		if err != nil {
			response.ToResponse(code.ErrorInvalidUserAuthToken)
			c.Abort()
			return
		}
		if lookup != nil {
			exists, err := lookup(c.Request.Context(), user.UID)
			if err != nil {
				response.ToResponse(code.ErrorDBQuery)
				c.Abort()
				return
			}
			if !exists {
				response.ToResponse(code.ErrorInvalidUserAuthToken)
				c.Abort()
				return
			}
		}
		c.Set(app.ClaimsKey, user)

		c.Next()
	}
}

func uidFromGin(c *gin.Context) int64 {
	return app.GetUID(c)
}
