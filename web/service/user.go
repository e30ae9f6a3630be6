package service

import (
	"context"
	"errors"
	"strings"

	"github.com/blogblazor/blog/database/model"
	"github.com/blogblazor/blog/logger"
	"github.com/blogblazor/blog/util/crypto"
)

// UserService handles sign-in and self registration.
type UserService struct {
	identity IdentityStore
}

func NewUserService(identity IdentityStore) *UserService {
	return &UserService{identity: identity}
}

// CheckUser returns the user when username and password match, nil otherwise.
func (s *UserService) CheckUser(ctx context.Context, username string, password string) *model.User {
	user, err := s.identity.FindByName(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return nil
	} else if err != nil {
		logger.Warning("check user err:", err)
		return nil
	}

	if !crypto.CheckPasswordHash(user.PasswordHash, password) {
		return nil
	}
	return user
}

// RegisterRequest carries a self-registration. The email doubles as username.
type RegisterRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates an account without any role.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, errors.New("a valid email is required")
	}
	user := &model.User{
		Username:  email,
		Email:     email,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
	}
	if err := s.identity.Create(ctx, user, req.Password); err != nil {
		return nil, err
	}
	logger.Infof("registered %s", user.Username)
	return user, nil
}
