package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lyipi/4bpchoquecoe/config"
	"github.com/lyipi/4bpchoquecoe/internal/api/handler"
	"github.com/lyipi/4bpchoquecoe/internal/api/middleware"
	"github.com/lyipi/4bpchoquecoe/pkg/jwt"
	"github.com/lyipi/4bpchoquecoe/pkg/metrics"
	"github.com/lyipi/4bpchoquecoe/pkg/redis"
)

// Roles allowed to review records.
var staffRoles = []string{"staff", "admin"}

// Setup builds the gin engine. rdb and m may be nil.
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics(m))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── health ──
	r.GET("/health", health(db, rdb))
	if m != nil {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	var limiter middleware.Limiter
	if rdb != nil {
		limiter = rdb
	}
	limit := middleware.RateLimit(limiter, cfg.RateLimit.Requests, cfg.RateLimit.Window)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr))
	{
		v1.GET("/users", h.User.Search)

		// shifts
		shifts := v1.Group("/shifts")
		{
			shifts.POST("", limit, h.Shift.Start)
			shifts.GET("/active", h.Shift.GetActive)
			shifts.GET("/active/elapsed", h.Shift.Elapsed)
			shifts.PUT("/active/slots/:slot", limit, h.Shift.AssignSlot)
			shifts.DELETE("/active/slots/:slot", limit, h.Shift.ClearSlot)
			shifts.POST("/active/end", limit, h.Shift.End)
			shifts.GET("/history", h.Shift.History)
			shifts.GET("/history.ics", h.Export.ShiftCalendar)
		}

		// reports
		reports := v1.Group("/reports")
		{
			reports.POST("", limit, h.Report.Submit)
			reports.GET("/mine", h.Report.ListMine)
			reports.GET("/:id", h.Report.Get)
			reports.DELETE("/:id", limit, h.Report.Delete)
		}

		// rankings
		v1.GET("/rankings/hours", h.Ranking.Hours)
		v1.GET("/rankings/items", h.Ranking.Items)
		v1.GET("/dashboard", h.Ranking.Dashboard)

		// approvals (staff)
		approvals := v1.Group("/approvals")
		approvals.Use(middleware.RoleAuth(staffRoles...))
		{
			approvals.GET("/shifts", h.Approval.ListShifts)
			approvals.POST("/shifts/:id/:action", limit, h.Approval.TransitionShift)
			approvals.GET("/reports", h.Approval.ListReports)
			approvals.POST("/reports/:id/:action", limit, h.Approval.TransitionReport)
			approvals.GET("/:type/:id/audit", h.Approval.AuditTrail)
		}

		// export (staff)
		export := v1.Group("/export")
		export.Use(middleware.RoleAuth(staffRoles...))
		{
			export.GET("/shifts.xlsx", h.Export.Shifts)
			export.GET("/reports.xlsx", h.Export.Reports)
			export.GET("/hours.xlsx", h.Export.Hours)
			export.GET("/items.xlsx", h.Export.Items)
		}
	}

	return r
}

// health reports the store and, when configured, redis. Redis being down only
// degrades the service.
func health(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"status": "ok", "db": "ok"}
		code := http.StatusOK

		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			status["status"] = "unavailable"
			status["db"] = "down"
			code = http.StatusServiceUnavailable
		}

		switch {
		case rdb == nil:
			status["redis"] = "disabled"
		case rdb.Ping(ctx) != nil:
			status["redis"] = "down"
			if code == http.StatusOK {
				status["status"] = "degraded"
			}
		default:
			status["redis"] = "ok"
		}

		c.JSON(code, status)
	}
}
