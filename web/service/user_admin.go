package service

import (
	"context"
	"errors"

	"github.com/blogblazor/blog/database/model"
	"github.com/blogblazor/blog/logger"
)

// UserWithRoles pairs an account with its role names.
type UserWithRoles struct {
	User  model.User `json:"user"`
	Roles []string   `json:"roles"`
}

func (u UserWithRoles) Has(role model.Role) bool {
	return model.HasRole(model.ParseRoles(u.Roles), role)
}

// AdminService manages role membership, bans and profiles on top of the
// identity store.
type AdminService struct {
	identity IdentityStore
	articles *ArticleService
}

func NewAdminService(identity IdentityStore, articles *ArticleService) *AdminService {
	return &AdminService{identity: identity, articles: articles}
}

// ListUsersWithRoles resolves roles one user at a time.
func (s *AdminService) ListUsersWithRoles(ctx context.Context) []UserWithRoles {
	users, err := s.identity.ListUsers(ctx)
	if err != nil {
		logger.Warning("list users failed:", err)
		return []UserWithRoles{}
	}
	out := make([]UserWithRoles, 0, len(users))
	for _, u := range users {
		roles, err := s.identity.GetRoles(ctx, &u)
		if err != nil {
			logger.Warningf("get roles of %s failed: %v", u.Username, err)
			roles = []string{}
		}
		out = append(out, UserWithRoles{User: u, Roles: roles})
	}
	return out
}

// SetContributorRole adds or removes the Contributor role. Already being in
// the requested state is a no-op. An unknown user is also a no-op reported
// as success; only store failures return false.
func (s *AdminService) SetContributorRole(ctx context.Context, username string, enabled bool) bool {
	user, err := s.identity.FindByName(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return true
	}
	if err != nil {
		logger.Warningf("set contributor role for %s failed: %v", username, err)
		return false
	}

	isContributor, err := s.identity.IsInRole(ctx, user, model.ContributorRoleName)
	if err != nil {
		logger.Warningf("set contributor role for %s failed: %v", username, err)
		return false
	}

	switch {
	case enabled && !isContributor:
		err = s.identity.AddToRole(ctx, user, model.ContributorRoleName)
	case !enabled && isContributor:
		err = s.identity.RemoveFromRole(ctx, user, model.ContributorRoleName)
	}
	if err != nil {
		logger.Warningf("set contributor role for %s failed: %v", username, err)
		return false
	}
	return true
}

// BanUser deletes the user's articles, then the user. The two steps commit
// separately; if the second fails the articles stay deleted.
func (s *AdminService) BanUser(ctx context.Context, username string) bool {
	user, err := s.identity.FindByName(ctx, username)
	if err != nil {
		logger.Warningf("ban %s rejected: %v", username, err)
		return false
	}

	removed, ok := s.articles.DeleteArticlesByContributor(ctx, user.Username)
	if !ok {
		return false
	}

	if err := s.identity.Delete(ctx, user); err != nil {
		logger.Errorf("ban %s: %d articles deleted but user delete failed: %v", username, removed, err)
		return false
	}
	logger.Infof("banned %s, %d articles deleted", username, removed)
	return true
}

func (s *AdminService) GetUserDetails(ctx context.Context, username string) (*model.User, bool) {
	user, err := s.identity.FindByName(ctx, username)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			logger.Warningf("get user %s failed: %v", username, err)
		}
		return nil, false
	}
	return user, true
}

// SaveUserProfile writes FirstName, LastName and Email. updated must carry
// the ConcurrencyStamp read with the user; a stale stamp returns false.
// On success updated receives the new stamp.
func (s *AdminService) SaveUserProfile(ctx context.Context, updated *model.User) bool {
	existing, err := s.identity.FindByName(ctx, updated.Username)
	if err != nil {
		logger.Warningf("save profile of %s rejected: %v", updated.Username, err)
		return false
	}

	existing.FirstName = updated.FirstName
	existing.LastName = updated.LastName
	existing.Email = updated.Email
	existing.ConcurrencyStamp = updated.ConcurrencyStamp

	if err := s.identity.Update(ctx, existing); err != nil {
		logger.Warningf("save profile of %s failed: %v", updated.Username, err)
		return false
	}
	*updated = *existing
	return true
}

// RolesOf returns the recognized roles of username, empty when unknown.
func (s *AdminService) RolesOf(ctx context.Context, username string) []model.Role {
	user, err := s.identity.FindByName(ctx, username)
	if err != nil {
		return []model.Role{}
	}
	names, err := s.identity.GetRoles(ctx, user)
	if err != nil {
		logger.Warningf("get roles of %s failed: %v", username, err)
		return []model.Role{}
	}
	return model.ParseRoles(names)
}

func (s *AdminService) IsAdmin(ctx context.Context, username string) bool {
	return model.HasRole(s.RolesOf(ctx, username), model.RoleAdmin)
}
