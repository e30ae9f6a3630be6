package service

import (
	"context"
	"fmt"
	"time"

	"github.com/blogblazor/blog/database/model"
	"github.com/blogblazor/blog/logger"

	"github.com/goccy/go-json"
	"gorm.io/gorm"
)

// AuditEntry describes one action to record.
type AuditEntry struct {
	UserID     int
	Username   string
	Action     string // CREATE, UPDATE, DELETE, LOGIN, BAN, ...
	Resource   string // article, user, session
	ResourceID string
	IP         string
	UserAgent  string
	Details    map[string]any
}

// AuditLogService stores and queries the audit trail.
type AuditLogService struct {
	db *gorm.DB
}

func NewAuditLogService(db *gorm.DB) *AuditLogService {
	return &AuditLogService{db: db}
}

func (s *AuditLogService) LogAction(ctx context.Context, e AuditEntry) error {
	detailsJSON := ""
	if e.Details != nil {
		jsonData, err := json.Marshal(e.Details)
		if err != nil {
			logger.Warning("Failed to marshal audit log details:", err)
		} else {
			detailsJSON = string(jsonData)
		}
	}

	auditLog := model.AuditLog{
		UserID:     e.UserID,
		Username:   e.Username,
		Action:     e.Action,
		Resource:   e.Resource,
		ResourceID: e.ResourceID,
		IP:         e.IP,
		UserAgent:  e.UserAgent,
		Details:    detailsJSON,
		Timestamp:  time.Now().UTC(),
	}

	if err := s.db.WithContext(ctx).Create(&auditLog).Error; err != nil {
		logger.Warningf("Failed to create audit log: user=%s, action=%s, resource=%s, error=%v", e.Username, e.Action, e.Resource, err)
		return err
	}
	return nil
}

// GetAuditLogs returns one page of entries, newest first, and the total
// matching count. Empty filters match everything.
func (s *AuditLogService) GetAuditLogs(ctx context.Context, limit, offset int, action, resource string) ([]model.AuditLog, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.AuditLog{})
	if action != "" {
		query = query.Where("action = ?", action)
	}
	if resource != "" {
		query = query.Where("resource = ?", resource)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	logs := make([]model.AuditLog, 0)
	if err := query.Order("timestamp DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// CleanOldLogs removes entries older than days and returns how many went.
func (s *AuditLogService) CleanOldLogs(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, fmt.Errorf("days must be greater than 0")
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	result := s.db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&model.AuditLog{})
	if result.Error != nil {
		return 0, result.Error
	}
	logger.Infof("Cleaned %d old audit logs (older than %d days)", result.RowsAffected, days)
	return result.RowsAffected, nil
}
