// Package job contains the cron jobs run by the web host.
package job

import (
	"context"
	"time"

	"github.com/blogblazor/blog/logger"
	"github.com/blogblazor/blog/util/common"
	"github.com/blogblazor/blog/web/service"
)

// AuditCleanupJob drops audit entries older than the retention period.
type AuditCleanupJob struct {
	auditService  *service.AuditLogService
	retentionDays int
}

func NewAuditCleanupJob(auditService *service.AuditLogService, retentionDays int) *AuditCleanupJob {
	return &AuditCleanupJob{
		auditService:  auditService,
		retentionDays: retentionDays,
	}
}

func (j *AuditCleanupJob) Run() {
	defer common.Recover("audit cleanup job")
	logger.Debug("Audit cleanup job started")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := j.auditService.CleanOldLogs(ctx, j.retentionDays)
	if err != nil {
		logger.Warning("Failed to clean old audit logs:", err)
		return
	}
	logger.Debugf("Audit cleanup completed (retention: %d days, removed: %d)", j.retentionDays, removed)
}
