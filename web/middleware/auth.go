package middleware

import (
	"context"
	"strings"

	"github.com/blogblazor/blog/database/model"
	"github.com/blogblazor/blog/logger"
	"github.com/blogblazor/blog/web/session"

	"github.com/gin-gonic/gin"
)

const (
	userKey  = "blog_user"
	rolesKey = "blog_roles"
)

// UserResolver looks up an account and its roles by username.
type UserResolver interface {
	GetUserDetails(ctx context.Context, username string) (*model.User, bool)
	RolesOf(ctx context.Context, username string) []model.Role
}

// TokenParser validates a bearer token and returns its subject.
type TokenParser interface {
	ParseToken(token string) (string, error)
}

// LoadUser resolves the caller from a bearer token or the session cookie and
// stores the account and its roles in the gin context. A session pointing at
// an account that no longer exists is cleared.
func LoadUser(users UserResolver, tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if token, ok := bearerToken(c); ok && tokens != nil {
			username, err := tokens.ParseToken(token)
			if err != nil {
				logger.Debug("rejected bearer token:", err)
				c.Next()
				return
			}
			if user, found := users.GetUserDetails(ctx, username); found {
				setUser(c, user, users.RolesOf(ctx, username))
			}
			c.Next()
			return
		}

		if login := session.GetLoginUser(c); login != nil {
			user, found := users.GetUserDetails(ctx, login.Username)
			if !found {
				logger.Infof("session of removed account %s cleared", login.Username)
				if err := session.ClearSession(c); err != nil {
					logger.Warning("Unable to clear session:", err)
				}
			} else {
				setUser(c, user, users.RolesOf(ctx, login.Username))
			}
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(h[len(prefix):]), true
}

func setUser(c *gin.Context, user *model.User, roles []model.Role) {
	c.Set(userKey, user)
	c.Set(rolesKey, roles)
}

// CurrentUser returns the account resolved by LoadUser, nil for anonymous
// callers.
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}

func CurrentRoles(c *gin.Context) []model.Role {
	v, ok := c.Get(rolesKey)
	if !ok {
		return nil
	}
	roles, _ := v.([]model.Role)
	return roles
}

func HasRole(c *gin.Context, role model.Role) bool {
	return model.HasRole(CurrentRoles(c), role)
}
