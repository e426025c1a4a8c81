package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// UnifiedErrorResponse 统一错误响应格式
type UnifiedErrorResponse struct {
	Success   bool   `json:"success"`    // 始终为false
	ErrorCode string `json:"error_code"` // 错误原因
	Message   string `json:"message"`    // 用户可读消息
	Timestamp string `json:"timestamp"`  // ISO8601

	Path    string                 `json:"path,omitempty"`
	Method  string                 `json:"method,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`

	status int
}

// UnifiedSuccessResponse 统一成功响应格式
type UnifiedSuccessResponse struct {
	Success   bool                   `json:"success"`
	Data      interface{}            `json:"data,omitempty"`
	Message   string                 `json:"message,omitempty"`
	Timestamp string                 `json:"timestamp"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(errorCode, message string) *UnifiedErrorResponse {
	return &UnifiedErrorResponse{
		Success:   false,
		ErrorCode: errorCode,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		status:    http.StatusInternalServerError,
	}
}

// NewErrorResponseFromError 由 kratos 错误构造响应，状态码取自错误码
func NewErrorResponseFromError(err error) *UnifiedErrorResponse {
	e := FromError(err)
	resp := NewErrorResponse(e.Reason, e.Message)
	if e.Code >= 400 && e.Code < 600 {
		resp.status = int(e.Code)
	}
	if resp.status >= http.StatusInternalServerError && e.Reason == "" {
		// 未知错误不向调用方暴露详情
		resp.ErrorCode = ReasonInternal
		resp.Message = "internal server error"
	}
	if len(e.Metadata) > 0 {
		resp.Details = make(map[string]interface{}, len(e.Metadata))
		for k, v := range e.Metadata {
			resp.Details[k] = v
		}
	}
	return resp
}

// WithPath 添加请求路径
func (e *UnifiedErrorResponse) WithPath(path string) *UnifiedErrorResponse {
	e.Path = path
	return e
}

// WithMethod 添加请求方法
func (e *UnifiedErrorResponse) WithMethod(method string) *UnifiedErrorResponse {
	e.Method = method
	return e
}

// WithDetails 添加详细信息
func (e *UnifiedErrorResponse) WithDetails(details map[string]interface{}) *UnifiedErrorResponse {
	e.Details = details
	return e
}

// WithStatus 指定HTTP状态码
func (e *UnifiedErrorResponse) WithStatus(status int) *UnifiedErrorResponse {
	e.status = status
	return e
}

// GetHTTPStatus 获取HTTP状态码
func (e *UnifiedErrorResponse) GetHTTPStatus() int {
	if e.status == 0 {
		return http.StatusInternalServerError
	}
	return e.status
}

// Error 实现 error 接口，客户端解码后可直接返回
func (e *UnifiedErrorResponse) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrorCode, e.Message)
}

// ToJSON 转换为JSON
func (e *UnifiedErrorResponse) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeErrorResponse 解析服务端返回的错误体，非统一格式时返回 nil
func DecodeErrorResponse(status int, body []byte) *UnifiedErrorResponse {
	var resp UnifiedErrorResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.ErrorCode == "" {
		return nil
	}
	resp.status = status
	return &resp
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse(data interface{}) *UnifiedSuccessResponse {
	return &UnifiedSuccessResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// WithMessage 添加消息
func (s *UnifiedSuccessResponse) WithMessage(message string) *UnifiedSuccessResponse {
	s.Message = message
	return s
}

// WithMeta 添加元数据
func (s *UnifiedSuccessResponse) WithMeta(meta map[string]interface{}) *UnifiedSuccessResponse {
	s.Meta = meta
	return s
}

// IsRetryable 判断HTTP状态是否可重试
func IsRetryable(status int) bool {
	switch status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}
