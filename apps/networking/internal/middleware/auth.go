package middleware

import (
	"errors"
	"strings"

	"NetworkingServer/apps/networking/internal/repository"
	"NetworkingServer/config"
	"NetworkingServer/consts"
	"NetworkingServer/model"
	"NetworkingServer/pkg/logger"
	"NetworkingServer/pkg/result"
	"NetworkingServer/pkg/util"

	"github.com/gin-gonic/gin"
)

const bearerPrefix = "Bearer "

// JWTAuth 校验 Bearer 令牌并加载当前用户
//   - 未携带令牌: CodeUnauthorized
//   - 令牌过期: CodeTokenExpired
//   - 签名/格式错误、用户不存在: CodeInvalidToken
//   - 用户被禁用: CodeUserDisabled
func JWTAuth(cfg config.JWTConfig, users repository.IUserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := NewContextWithGin(c)

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(header, bearerPrefix) {
			result.Fail(c, nil, consts.CodeUnauthorized)
			c.Abort()
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
		if token == "" {
			result.Fail(c, nil, consts.CodeUnauthorized)
			c.Abort()
			return
		}

		claims, err := util.ParseToken(cfg.Secret, cfg.Issuer, token)
		if err != nil {
			code := consts.CodeInvalidToken
			if errors.Is(err, util.ErrTokenExpired) {
				code = consts.CodeTokenExpired
			}
			result.Fail(c, nil, code)
			c.Abort()
			return
		}

		user, err := users.GetByTelegramID(ctx, claims.TelegramID)
		if err != nil {
			if errors.Is(err, repository.ErrRecordNotFound) {
				result.Fail(c, nil, consts.CodeInvalidToken)
			} else {
				logger.Error(ctx, "认证加载用户失败", logger.Int64("telegram_id", claims.TelegramID), logger.ErrorField("error", err))
				result.Fail(c, nil, consts.CodeInternalError)
			}
			c.Abort()
			return
		}
		if !user.IsActive {
			result.Fail(c, nil, consts.CodeUserDisabled)
			c.Abort()
			return
		}

		c.Set(util.ContextKeyUserID, user.Id)
		c.Set(util.ContextKeyIsStaff, user.IsStaff || user.IsSuperuser)
		c.Set(util.ContextKeyUser, user)
		c.Request = c.Request.WithContext(NewContextWithGin(c))

		c.Next()
	}
}

// CurrentUser JWTAuth 加载的用户
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(util.ContextKeyUser)
	if !ok {
		return nil, false
	}
	u, ok := v.(*model.User)
	return u, ok && u != nil
}

// RequireStaff 仅运营或超级管理员可访问，必须在 JWTAuth 之后使用
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsStaff(c) {
			result.Fail(c, nil, consts.CodePermissionDeny)
			c.Abort()
			return
		}
		c.Next()
	}
}
