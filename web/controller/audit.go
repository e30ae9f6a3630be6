package controller

import (
	"github.com/blogblazor/blog/config"
	"github.com/blogblazor/blog/database/model"
	"github.com/blogblazor/blog/web/middleware"
	"github.com/blogblazor/blog/web/service"

	"github.com/gin-gonic/gin"
)

const auditPageSize = 50

// AuditController handles audit log operations
type AuditController struct {
	BaseController

	auditService *service.AuditLogService
}

// NewAuditController registers the audit screen on g and the audit JSON API
// on api, both admin only.
func NewAuditController(g *gin.RouterGroup, api *gin.RouterGroup, audit *service.AuditLogService) *AuditController {
	a := &AuditController{auditService: audit}
	a.initRouter(g, api)
	return a
}

func (a *AuditController) initRouter(g *gin.RouterGroup, api *gin.RouterGroup) {
	g.GET("/admin/audit", a.checkLogin, middleware.RoleRequired(model.RoleAdmin), a.auditPage)

	api = api.Group("/admin/audit")
	api.Use(middleware.RoleRequired(model.RoleAdmin))
	api.POST("/logs", a.getAuditLogs)
	api.POST("/clean", a.cleanOldLogs)
}

func (a *AuditController) auditPage(c *gin.Context) {
	page := queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	action, resource := c.Query("action"), c.Query("resource")

	logs, total, err := a.auditService.GetAuditLogs(c.Request.Context(), auditPageSize, (page-1)*auditPageSize, action, resource)
	data := gin.H{
		"logs":     logs,
		"total":    total,
		"page":     page,
		"hasPrev":  page > 1,
		"hasNext":  int64(page*auditPageSize) < total,
		"prevPage": page - 1,
		"nextPage": page + 1,
		"action":   action,
		"resource": resource,
	}
	if err != nil {
		data["error"] = I18nWeb(c, "fail")
	}
	html(c, "audit.html", "pages.audit.title", data)
}

// getAuditLogs retrieves audit logs with filters
func (a *AuditController) getAuditLogs(c *gin.Context) {
	type request struct {
		Action   string `json:"action" form:"action"`
		Resource string `json:"resource" form:"resource"`
		Limit    int    `json:"limit" form:"limit"`
		Offset   int    `json:"offset" form:"offset"`
	}

	var req request
	if err := c.ShouldBind(&req); err != nil {
		jsonMsg(c, "Invalid request", err)
		return
	}

	// Validate and set defaults
	if req.Limit <= 0 || req.Limit > 1000 {
		req.Limit = auditPageSize
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	logs, total, err := a.auditService.GetAuditLogs(c.Request.Context(), req.Limit, req.Offset, req.Action, req.Resource)
	if err != nil {
		jsonMsg(c, "Failed to get audit logs", err)
		return
	}

	jsonObj(c, gin.H{
		"logs":  logs,
		"total": total,
	}, nil)
}

// cleanOldLogs removes old audit logs
func (a *AuditController) cleanOldLogs(c *gin.Context) {
	type request struct {
		Days int `json:"days" form:"days"`
	}

	var req request
	if err := c.ShouldBind(&req); err != nil {
		jsonMsg(c, "Invalid request", err)
		return
	}

	if req.Days <= 0 {
		req.Days = config.GetAuditRetentionDays()
	}

	removed, err := a.auditService.CleanOldLogs(c.Request.Context(), req.Days)
	jsonMsgObj(c, "Clean old logs", gin.H{"removed": removed}, err)
}
