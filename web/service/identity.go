package service

import (
	"context"
	"errors"
	"strings"

	"github.com/blogblazor/blog/database"
	"github.com/blogblazor/blog/database/model"
	"github.com/blogblazor/blog/util/crypto"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUserExists          = errors.New("username or email already taken")
	ErrRoleNotFound        = errors.New("role not found")
	ErrConcurrencyConflict = errors.New("user was modified by someone else")
)

// IdentityStore is the account and role store the services depend on.
type IdentityStore interface {
	FindByName(ctx context.Context, username string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, user *model.User, password string) error
	ListUsers(ctx context.Context) ([]model.User, error)
	GetRoles(ctx context.Context, user *model.User) ([]string, error)
	IsInRole(ctx context.Context, user *model.User, role string) (bool, error)
	AddToRole(ctx context.Context, user *model.User, role string) error
	RemoveFromRole(ctx context.Context, user *model.User, role string) error
	RoleExists(ctx context.Context, role string) (bool, error)
	CreateRole(ctx context.Context, role string) error
	// Update saves profile fields when user.ConcurrencyStamp still matches
	// the stored stamp, then issues a new stamp.
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, user *model.User) error
}

// GormIdentityStore keeps accounts in the users, roles and user_roles tables.
type GormIdentityStore struct {
	db *gorm.DB
}

func NewIdentityStore(db *gorm.DB) *GormIdentityStore {
	return &GormIdentityStore{db: db}
}

func (s *GormIdentityStore) FindByName(ctx context.Context, username string) (*model.User, error) {
	return s.findBy(ctx, "username = ?", username)
}

func (s *GormIdentityStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findBy(ctx, "email = ?", strings.ToLower(email))
}

func (s *GormIdentityStore) findBy(ctx context.Context, query string, arg string) (*model.User, error) {
	user := &model.User{}
	err := s.db.WithContext(ctx).Where(query, arg).First(user).Error
	if database.IsNotFound(err) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Create validates the password against the policy, hashes it and inserts the user.
func (s *GormIdentityStore) Create(ctx context.Context, user *model.User, password string) error {
	if user.Username == "" || user.Email == "" {
		return errors.New("username and email required")
	}
	if err := crypto.ValidatePassword(password); err != nil {
		return err
	}
	user.Email = strings.ToLower(user.Email)

	var count int64
	err := s.db.WithContext(ctx).Model(&model.User{}).
		Where("username = ? OR email = ?", user.Username, user.Email).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrUserExists
	}

	hash, err := crypto.HashPasswordAsBcrypt(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.ConcurrencyStamp = uuid.NewString()
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *GormIdentityStore) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *GormIdentityStore) GetRoles(ctx context.Context, user *model.User) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).Model(&model.RoleRecord{}).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", user.Id).
		Order("roles.name ASC").
		Pluck("roles.name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (s *GormIdentityStore) IsInRole(ctx context.Context, user *model.User, role string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.UserRole{}).
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("user_roles.user_id = ? AND roles.name = ?", user.Id, role).
		Count(&count).Error
	return count > 0, err
}

// AddToRole is a no-op when the membership already exists.
func (s *GormIdentityStore) AddToRole(ctx context.Context, user *model.User, role string) error {
	r, err := s.findRole(ctx, role)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(&model.UserRole{UserId: user.Id, RoleId: r.Id}).Error
}

func (s *GormIdentityStore) RemoveFromRole(ctx context.Context, user *model.User, role string) error {
	r, err := s.findRole(ctx, role)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Where("user_id = ? AND role_id = ?", user.Id, r.Id).
		Delete(&model.UserRole{}).Error
}

func (s *GormIdentityStore) findRole(ctx context.Context, role string) (*model.RoleRecord, error) {
	r := &model.RoleRecord{}
	err := s.db.WithContext(ctx).Where("name = ?", role).First(r).Error
	if database.IsNotFound(err) {
		return nil, ErrRoleNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *GormIdentityStore) RoleExists(ctx context.Context, role string) (bool, error) {
	_, err := s.findRole(ctx, role)
	if errors.Is(err, ErrRoleNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *GormIdentityStore) CreateRole(ctx context.Context, role string) error {
	return s.db.WithContext(ctx).Create(&model.RoleRecord{Name: role}).Error
}

func (s *GormIdentityStore) Update(ctx context.Context, user *model.User) error {
	stamp := uuid.NewString()
	res := s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND concurrency_stamp = ?", user.Id, user.ConcurrencyStamp).
		Updates(map[string]any{
			"first_name":        user.FirstName,
			"last_name":         user.LastName,
			"email":             strings.ToLower(user.Email),
			"concurrency_stamp": stamp,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", user.Id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrUserNotFound
		}
		return ErrConcurrencyConflict
	}
	user.Email = strings.ToLower(user.Email)
	user.ConcurrencyStamp = stamp
	return nil
}

// Delete removes the user; role memberships and articles follow through
// the cascading foreign keys.
func (s *GormIdentityStore) Delete(ctx context.Context, user *model.User) error {
	res := s.db.WithContext(ctx).Delete(&model.User{}, user.Id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
