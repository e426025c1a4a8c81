package server

import (
	"errors"
	"net/http"
	"time"

	"velora/cmd/assistant-service/internal/conf"
	"velora/cmd/assistant-service/internal/domain"
	"velora/cmd/assistant-service/internal/service"
	pkgerrors "velora/pkg/errors"
	"velora/pkg/health"
	"velora/pkg/middleware"
	"velora/pkg/monitoring"

	"github.com/gin-gonic/gin"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const serviceName = "assistant-service"

// Router Gin 路由
type Router struct {
	engine  *gin.Engine
	service *service.AssistantService
	health  *health.HealthChecker
	limiter gin.HandlerFunc
	log     *log.Helper
}

// NewRouter 创建路由
func NewRouter(c *conf.Bootstrap, svc *service.AssistantService, logger log.Logger) *Router {
	gin.SetMode(gin.ReleaseMode)

	r := &Router{
		engine:  gin.New(),
		service: svc,
		health:  health.NewHealthChecker(),
		limiter: func(ctx *gin.Context) { ctx.Next() },
		log:     log.NewHelper(log.With(logger, "module", "server/http")),
	}
	// 单实例部署，进程内计数
	if n := c.Assistant.RateLimitPerMinute; n > 0 {
		r.limiter = middleware.RateLimiterByIP(middleware.RateLimiterConfig{
			MaxRequests: n,
			Window:      time.Minute,
			KeyPrefix:   "velora:assistant:rate",
		})
	}

	r.engine.Use(gin.Recovery())
	r.engine.Use(r.requestLogger())
	r.engine.Use(monitoring.GinMiddleware(serviceName))
	r.engine.Use(r.cors())

	r.registerRoutes()
	return r
}

// Engine 返回 Gin 引擎
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) registerRoutes() {
	api := r.engine.Group("/api/v1")

	conversations := api.Group("/conversations")
	{
		conversations.POST("", r.startConversation)
		conversations.GET("/:id/messages", r.listMessages)
		conversations.POST("/:id/messages", r.limiter, r.sendMessage)
		conversations.POST("/:id/reset", r.resetConversation)
		conversations.DELETE("/:id", r.deleteConversation)
	}

	api.POST("/pricing/estimate", r.estimate)
	api.GET("/assistant/status", r.status)

	r.engine.GET("/health", r.healthCheck)
	r.engine.GET("/ready", r.readinessCheck)
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// requestLogger 请求日志
func (r *Router) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		r.log.Infow(
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// cors 聊天组件嵌入站点页面
func (r *Router) cors() gin.HandlerFunc {
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

type conversationResponse struct {
	ID        string                `json:"id"`
	Messages  []*domain.ChatMessage `json:"messages"`
	CreatedAt time.Time             `json:"created_at"`
}

func (r *Router) startConversation(c *gin.Context) {
	conv, err := r.service.StartConversation(c.Request.Context())
	if err != nil {
		r.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conversationResponse{
		ID:        conv.ID,
		Messages:  conv.Snapshot(),
		CreatedAt: conv.CreatedAt,
	})
}

type messagesResponse struct {
	ConversationID string                `json:"conversation_id"`
	Messages       []*domain.ChatMessage `json:"messages"`
}

func (r *Router) listMessages(c *gin.Context) {
	id := c.Param("id")
	msgs, err := r.service.Messages(c.Request.Context(), id)
	if err != nil {
		r.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, messagesResponse{ConversationID: id, Messages: msgs})
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

func (r *Router) sendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		r.respondError(c, pkgerrors.NewBadRequest(pkgerrors.ReasonBadRequest, "invalid request body"))
		return
	}

	result, err := r.service.SendMessage(c.Request.Context(), c.Param("id"), req.Text)
	if err != nil {
		r.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (r *Router) resetConversation(c *gin.Context) {
	id := c.Param("id")
	msgs, err := r.service.ResetConversation(c.Request.Context(), id)
	if err != nil {
		r.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, messagesResponse{ConversationID: id, Messages: msgs})
}

func (r *Router) deleteConversation(c *gin.Context) {
	if err := r.service.DeleteConversation(c.Request.Context(), c.Param("id")); err != nil {
		r.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) estimate(c *gin.Context) {
	var in domain.EstimateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		r.respondError(c, pkgerrors.NewBadRequest(pkgerrors.ReasonBadRequest, "invalid request body"))
		return
	}

	est, err := r.service.Estimate(c.Request.Context(), in)
	if err != nil {
		r.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, est)
}

func (r *Router) status(c *gin.Context) {
	c.JSON(http.StatusOK, r.service.Status(c.Request.Context()))
}

func (r *Router) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"time":    time.Now().Format(time.RFC3339),
	})
}

func (r *Router) readinessCheck(c *gin.Context) {
	ready, checks := r.health.IsReady(c.Request.Context())

	code := http.StatusOK
	if !ready {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"ready":  ready,
		"checks": checks,
		"time":   time.Now().Format(time.RFC3339),
	})
}

// respondError 统一错误响应
func (r *Router) respondError(c *gin.Context, err error) {
	resp := pkgerrors.NewErrorResponseFromError(err).
		WithPath(c.Request.URL.Path).
		WithMethod(c.Request.Method)
	c.AbortWithStatusJSON(resp.GetHTTPStatus(), resp)
}

// handleServiceError 领域错误映射为 HTTP 错误
func (r *Router) handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrConversationNotFound):
		r.respondError(c, pkgerrors.NewNotFound(pkgerrors.ReasonConversationNotFound, "conversation not found"))
	case errors.Is(err, domain.ErrInvalidMessage), errors.Is(err, domain.ErrInvalidEstimate):
		r.respondError(c, pkgerrors.NewBadRequest(pkgerrors.ReasonValidationFailed, err.Error()))
	default:
		r.log.Errorf("request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		r.respondError(c, err)
	}
}
