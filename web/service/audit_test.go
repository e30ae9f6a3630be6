package service

import (
	"context"
	"testing"
	"time"

	"github.com/blogblazor/blog/database/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLog(t *testing.T) {
	ts := newTestServices(t)
	audit := NewAuditLogService(ts.db)
	ctx := context.Background()

	require.NoError(t, audit.LogAction(ctx, AuditEntry{Username: "admin@example.com", Action: "BAN", Resource: "user", ResourceID: "a@example.com"}))
	require.NoError(t, audit.LogAction(ctx, AuditEntry{Username: "a@example.com", Action: "CREATE", Resource: "article", ResourceID: "1",
		Details: map[string]any{"title": "x"}}))

	logs, total, err := audit.GetAuditLogs(ctx, 10, 0, "", "")
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, logs, 2)
	assert.Equal(t, "CREATE", logs[0].Action)
	assert.JSONEq(t, `{"title":"x"}`, logs[0].Details)

	logs, total, err = audit.GetAuditLogs(ctx, 10, 0, "BAN", "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "a@example.com", logs[0].ResourceID)

	old := model.AuditLog{Action: "LOGIN", Resource: "session", Timestamp: time.Now().UTC().AddDate(0, 0, -100)}
	require.NoError(t, ts.db.Create(&old).Error)

	removed, err := audit.CleanOldLogs(ctx, 90)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	_, err = audit.CleanOldLogs(ctx, 0)
	assert.Error(t, err)
}
