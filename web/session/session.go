// Package session keeps the signed-in user in the gin-contrib cookie session.
package session

import (
	"encoding/gob"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	loginUser  = "LOGIN_USER"
	flashKey   = "FLASH"
	CookieName = "blog"
)

// LoginUser is what the cookie remembers about the signed-in account.
// Roles are looked up per request so role changes and bans apply at once.
type LoginUser struct {
	Id       int
	Username string
}

func init() {
	gob.Register(LoginUser{})
}

func SetLoginUser(c *gin.Context, user LoginUser) error {
	s := sessions.Default(c)
	s.Set(loginUser, user)
	return s.Save()
}

func SetMaxAge(c *gin.Context, maxAge int) error {
	s := sessions.Default(c)
	s.Options(sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
	})
	return s.Save()
}

// current is nil when the engine was built without the sessions middleware.
func current(c *gin.Context) sessions.Session {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return nil
	}
	return sessions.Default(c)
}

func GetLoginUser(c *gin.Context) *LoginUser {
	s := current(c)
	if s == nil {
		return nil
	}
	if obj := s.Get(loginUser); obj != nil {
		if user, ok := obj.(LoginUser); ok {
			return &user
		}
	}
	return nil
}

func IsLogin(c *gin.Context) bool {
	return GetLoginUser(c) != nil
}

func ClearSession(c *gin.Context) error {
	s := current(c)
	if s == nil {
		return nil
	}
	s.Clear()
	s.Options(sessions.Options{
		Path:   "/",
		MaxAge: -1,
	})
	return s.Save()
}

// AddFlash queues a one-shot message for the next rendered page.
func AddFlash(c *gin.Context, msg string) {
	s := sessions.Default(c)
	s.AddFlash(msg, flashKey)
	_ = s.Save()
}

// Flashes pops the queued messages.
func Flashes(c *gin.Context) []string {
	s := current(c)
	if s == nil {
		return nil
	}
	raw := s.Flashes(flashKey)
	if len(raw) == 0 {
		return nil
	}
	_ = s.Save()
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if msg, ok := f.(string); ok {
			out = append(out, msg)
		}
	}
	return out
}
