package model

import "time"

// User is an account. Username equals the email for seeded and registered accounts.
type User struct {
	Id               int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Username         string    `json:"username" gorm:"uniqueIndex;not null"`
	Email            string    `json:"email" gorm:"uniqueIndex;not null"`
	FirstName        string    `json:"firstName"`
	LastName         string    `json:"lastName"`
	PasswordHash     string    `json:"-" gorm:"column:password_hash;not null"`
	ConcurrencyStamp string    `json:"concurrencyStamp" gorm:"size:36"`
	CreatedAt        time.Time `json:"createdAt"`
}

// RoleRecord is a named role row.
type RoleRecord struct {
	Id   int    `json:"id" gorm:"primaryKey;autoIncrement"`
	Name string `json:"name" gorm:"uniqueIndex;not null"`
}

func (RoleRecord) TableName() string {
	return "roles"
}

// UserRole joins users to roles; rows go away with either side.
type UserRole struct {
	UserId int        `gorm:"primaryKey"`
	RoleId int        `gorm:"primaryKey"`
	User   User       `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`
	Role   RoleRecord `gorm:"foreignKey:RoleId;constraint:OnDelete:CASCADE"`
}

func (UserRole) TableName() string {
	return "user_roles"
}
