// Package model holds the gorm models persisted by the blog.
package model

import "time"

// Article is a piece of content visible between StartDate and EndDate.
// ContributorUsername drives ownership checks; ContributorId exists for the
// cascading foreign key.
type Article struct {
	ArticleId           int       `json:"articleId" gorm:"primaryKey;autoIncrement"`
	Title               string    `json:"title" gorm:"not null"`
	Body                string    `json:"body" gorm:"type:text"`
	CreateDate          time.Time `json:"createDate" gorm:"index"`
	StartDate           time.Time `json:"startDate" gorm:"not null"`
	EndDate             time.Time `json:"endDate" gorm:"not null"`
	ContributorId       int       `json:"contributorId" gorm:"not null;index"`
	Contributor         *User     `json:"-" gorm:"foreignKey:ContributorId;constraint:OnDelete:CASCADE"`
	ContributorUsername string    `json:"contributorUsername" gorm:"not null;index"`
}

// IsVisibleAt reports whether t falls inside the publish window, bounds included.
func (a *Article) IsVisibleAt(t time.Time) bool {
	return !t.Before(a.StartDate) && !t.After(a.EndDate)
}

// AuditLog records an action taken through the web host.
type AuditLog struct {
	ID         int       `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID     int       `json:"userId" gorm:"index"`
	Username   string    `json:"username"`
	Action     string    `json:"action" gorm:"index"`
	Resource   string    `json:"resource" gorm:"index"`
	ResourceID string    `json:"resourceId"`
	IP         string    `json:"ip"`
	UserAgent  string    `json:"userAgent"`
	Details    string    `json:"details" gorm:"type:text"`
	Timestamp  time.Time `json:"timestamp" gorm:"index"`
}
