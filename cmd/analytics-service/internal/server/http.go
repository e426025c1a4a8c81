package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"velora/cmd/analytics-service/internal/biz"
	"velora/cmd/analytics-service/internal/conf"
	"velora/cmd/analytics-service/internal/domain"
	"velora/cmd/analytics-service/internal/service"
	pkgerrors "velora/pkg/errors"
	"velora/pkg/health"
	"velora/pkg/middleware"
	"velora/pkg/monitoring"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceName = "analytics-service"

// Logger 日志接口
type Logger interface {
	Info(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
}

// HTTPServer HTTP 服务器
type HTTPServer struct {
	engine  *gin.Engine
	service *service.AnalyticsService
	health  *health.HealthChecker
	limiter gin.HandlerFunc
	logger  Logger
}

// NewHTTPServer 创建 HTTP 服务器
func NewHTTPServer(cfg *conf.Config, srv *service.AnalyticsService, counter middleware.Counter, logger *zap.Logger) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)

	s := &HTTPServer{
		engine:  gin.New(),
		service: srv,
		health:  health.NewHealthChecker(health.NewPingChecker("store", srv.Ping)),
		limiter: func(ctx *gin.Context) { ctx.Next() },
		logger:  logger,
	}
	if rl := cfg.Server.RateLimit; rl.Enabled {
		s.limiter = middleware.RateLimiterByIP(middleware.RateLimiterConfig{
			Counter:     counter,
			MaxRequests: rl.MaxRequests,
			Window:      rl.Window,
			KeyPrefix:   "velora:analytics:rate",
		})
	}

	s.registerMiddlewares()
	s.registerRoutes()

	return s
}

// registerMiddlewares 注册中间件
func (s *HTTPServer) registerMiddlewares() {
	s.engine.Use(gin.Recovery())
	s.engine.Use(s.requestLogger())
	s.engine.Use(monitoring.GinMiddleware(serviceName))
	s.engine.Use(s.corsMiddleware())
}

// requestLogger 请求日志中间件
func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		s.logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// corsMiddleware CORS 中间件，站点页面跨域上报
func (s *HTTPServer) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// registerRoutes 注册路由
func (s *HTTPServer) registerRoutes() {
	api := s.engine.Group("/api/v1/analytics")

	// 事件上报
	api.POST("/events", s.limiter, s.trackEvent)
	api.GET("/events", s.listEvents)
	api.GET("/activity", s.recentActivity)

	// 页面会话
	sessions := api.Group("/sessions", s.limiter)
	{
		sessions.POST("", s.openSession)
		sessions.POST("/:id/events", s.trackSessionEvent)
		sessions.POST("/:id/navigate", s.navigate)
		sessions.POST("/:id/heartbeat", s.heartbeat)
		sessions.DELETE("/:id", s.closeSession)
	}

	// 统计
	stats := api.Group("/stats")
	{
		stats.GET("", s.summaryStats)
		stats.GET("/pages", s.pageViewCounts)
		stats.GET("/forms", s.formSubmissionCounts)
	}

	api.GET("/visitors", s.liveVisitors)
	api.GET("/dashboard", s.dashboard)
	api.GET("/export", s.export)
	api.DELETE("/data", s.clearData)

	// 健康检查
	s.engine.GET("/health", s.healthCheck)
	s.engine.GET("/ready", s.readinessCheck)
}

type trackRequest struct {
	Type string                 `json:"type" binding:"required"`
	Data map[string]interface{} `json:"data"`
}

// trackEvent 使用服务级会话记录事件
func (s *HTTPServer) trackEvent(c *gin.Context) {
	var req trackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, pkgerrors.NewBadRequest(pkgerrors.ReasonValidationFailed, err.Error()))
		return
	}

	if err := s.service.Track(c.Request.Context(), req.Type, req.Data); err != nil {
		s.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusAccepted)
}

type openSessionRequest struct {
	PageURL   string `json:"page_url"`
	UserAgent string `json:"user_agent"`
	Referrer  string `json:"referrer"`
	Title     string `json:"title"`
}

// openSession 开启页面会话
func (s *HTTPServer) openSession(c *gin.Context) {
	var req openSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, pkgerrors.NewBadRequest(pkgerrors.ReasonValidationFailed, err.Error()))
		return
	}
	if req.UserAgent == "" {
		req.UserAgent = c.Request.UserAgent()
	}

	ctx := c.Request.Context()
	session, err := s.service.OpenSession(ctx, domain.ClientInfo{
		UserAgent: req.UserAgent,
		PageURL:   req.PageURL,
	}, req.Referrer, req.Title)
	if err != nil {
		s.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"session_id": session.ID,
		"page":       session.CurrentPath(),
	})
}

// trackSessionEvent 在会话中记录事件
func (s *HTTPServer) trackSessionEvent(c *gin.Context) {
	var req trackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, pkgerrors.NewBadRequest(pkgerrors.ReasonValidationFailed, err.Error()))
		return
	}

	if err := s.service.TrackSession(c.Request.Context(), c.Param("id"), req.Type, req.Data); err != nil {
		s.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusAccepted)
}

type navigateRequest struct {
	PageURL  string `json:"page_url" binding:"required"`
	Referrer string `json:"referrer"`
	Title    string `json:"title"`
}

// navigate 会话切换页面
func (s *HTTPServer) navigate(c *gin.Context) {
	var req navigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, pkgerrors.NewBadRequest(pkgerrors.ReasonValidationFailed, err.Error()))
		return
	}

	if err := s.service.Navigate(c.Request.Context(), c.Param("id"), req.PageURL, req.Referrer, req.Title); err != nil {
		s.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusAccepted)
}

type heartbeatRequest struct {
	PageURL string `json:"page_url"`
}

// heartbeat 在线心跳
func (s *HTTPServer) heartbeat(c *gin.Context) {
	var req heartbeatRequest
	// 心跳允许空 body
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			s.respondError(c, pkgerrors.NewBadRequest(pkgerrors.ReasonValidationFailed, err.Error()))
			return
		}
	}

	visitor, err := s.service.Heartbeat(c.Request.Context(), c.Param("id"), req.PageURL)
	if err != nil {
		s.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, visitor)
}

// closeSession 关闭会话
func (s *HTTPServer) closeSession(c *gin.Context) {
	if err := s.service.CloseSession(c.Request.Context(), c.Param("id")); err != nil {
		s.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// listEvents 事件列表，可按类型过滤
func (s *HTTPServer) listEvents(c *gin.Context) {
	events, err := s.service.Events(c.Request.Context(), c.Query("type"))
	if err != nil {
		s.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"total":  len(events),
	})
}

// recentActivity 最近事件
func (s *HTTPServer) recentActivity(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 1000 {
			s.respondError(c, pkgerrors.NewBadRequest(pkgerrors.ReasonValidationFailed, "invalid limit, must be between 1 and 1000"))
			return
		}
		limit = n
	}

	c.JSON(http.StatusOK, gin.H{
		"events": s.service.RecentActivity(c.Request.Context(), limit),
	})
}

// summaryStats 汇总统计
func (s *HTTPServer) summaryStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.service.SummaryStats(c.Request.Context()))
}

// pageViewCounts 页面浏览统计
func (s *HTTPServer) pageViewCounts(c *gin.Context) {
	c.JSON(http.StatusOK, s.service.PageViewCounts(c.Request.Context()))
}

// formSubmissionCounts 表单提交统计
func (s *HTTPServer) formSubmissionCounts(c *gin.Context) {
	c.JSON(http.StatusOK, s.service.FormSubmissionCounts(c.Request.Context()))
}

// liveVisitors 在线访客
func (s *HTTPServer) liveVisitors(c *gin.Context) {
	visitors := s.service.LiveVisitors(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"visitors": visitors,
		"count":    len(visitors),
	})
}

// dashboard 仪表盘
func (s *HTTPServer) dashboard(c *gin.Context) {
	c.JSON(http.StatusOK, s.service.Dashboard(c.Request.Context()))
}

// export 导出下载
// format=events 仅导出事件日志，默认导出包含在线访客的完整包
func (s *HTTPServer) export(c *gin.Context) {
	ctx := c.Request.Context()

	var body []byte
	switch c.DefaultQuery("format", "bundle") {
	case "events":
		body = []byte(s.service.ExportEvents(ctx))
	case "bundle":
		out, err := json.MarshalIndent(s.service.ExportBundle(ctx), "", "  ")
		if err != nil {
			s.handleServiceError(c, err)
			return
		}
		body = out
	default:
		s.respondError(c, pkgerrors.NewBadRequest(pkgerrors.ReasonValidationFailed, "format must be bundle or events"))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, biz.ExportFileName(time.Now())))
	c.Data(http.StatusOK, "application/json", body)
}

// clearData 清空全部分析数据
func (s *HTTPServer) clearData(c *gin.Context) {
	if err := s.service.ClearAll(c.Request.Context()); err != nil {
		s.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Engine 返回 Gin 引擎
func (s *HTTPServer) Engine() *gin.Engine {
	return s.engine
}

// respondError 统一错误响应
func (s *HTTPServer) respondError(c *gin.Context, err error) {
	resp := pkgerrors.NewErrorResponseFromError(err).
		WithPath(c.Request.URL.Path).
		WithMethod(c.Request.Method)
	c.AbortWithStatusJSON(resp.GetHTTPStatus(), resp)
}

// handleServiceError 处理服务层错误
func (s *HTTPServer) handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		s.respondError(c, pkgerrors.NewNotFound(pkgerrors.ReasonSessionNotFound, "session not found"))
	case errors.Is(err, domain.ErrInvalidEventType):
		s.respondError(c, pkgerrors.NewBadRequest(pkgerrors.ReasonInvalidEventType, err.Error()))
	case errors.Is(err, domain.ErrStoreUnavailable):
		s.logger.Warn("Store unavailable", zap.String("path", c.Request.URL.Path), zap.Error(err))
		s.respondError(c, pkgerrors.NewServiceUnavailable(pkgerrors.ReasonStorageUnavailable, "analytics store unavailable"))
	default:
		s.logger.Error("Service error", zap.Error(err))
		s.respondError(c, err)
	}
}

// healthCheck 健康检查
func (s *HTTPServer) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"time":    time.Now().Format(time.RFC3339),
	})
}

// readinessCheck 就绪检查
func (s *HTTPServer) readinessCheck(c *gin.Context) {
	ready, checks := s.health.IsReady(c.Request.Context())

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"ready":  ready,
		"checks": checks,
		"time":   time.Now().Format(time.RFC3339),
	})
}
