package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "velora/pkg/errors"
	"velora/pkg/resilience"

	"github.com/sony/gobreaker"
)

// APIError 服务端返回的非 2xx 响应
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("status %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

// IsNotFound 判断是否为 404
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// BaseClient HTTP JSON 基础客户端
// 幂等请求（GET/DELETE）按指数退避重试，所有请求经过熔断器
type BaseClient struct {
	serviceName    string
	baseURL        string
	httpClient     *http.Client
	circuitBreaker *gobreaker.CircuitBreaker
	maxRetries     int
	retryDelay     time.Duration
}

// BaseClientConfig 基础客户端配置
type BaseClientConfig struct {
	ServiceName string
	BaseURL     string
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
	HTTPClient  *http.Client
}

// NewBaseClient 创建基础客户端
func NewBaseClient(config BaseClientConfig) *BaseClient {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = 100 * time.Millisecond
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	client := &BaseClient{
		serviceName: config.ServiceName,
		baseURL:     strings.TrimRight(config.BaseURL, "/"),
		httpClient:  httpClient,
		maxRetries:  config.MaxRetries,
		retryDelay:  config.RetryDelay,
	}
	client.circuitBreaker = client.createCircuitBreaker()

	return client
}

// createCircuitBreaker 创建熔断器，4xx 不计入失败
func (c *BaseClient) createCircuitBreaker() *gobreaker.CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        c.serviceName,
		MaxRequests: 3,                // 半开状态下最大请求数
		Interval:    10 * time.Second, // 统计周期
		Timeout:     30 * time.Second, // 熔断器开启后等待时间
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// 失败率 >= 60% 且请求数 >= 5 时触发熔断
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.StatusCode < http.StatusInternalServerError
			}
			return err == nil
		},
	}
	return gobreaker.NewCircuitBreaker(settings)
}

// Get 发送GET请求
func (c *BaseClient) Get(ctx context.Context, path string, result interface{}) error {
	body, err := c.GetRaw(ctx, path)
	if err != nil {
		return err
	}
	return decode(body, result)
}

// GetRaw 发送GET请求，返回原始响应体
func (c *BaseClient) GetRaw(ctx context.Context, path string) ([]byte, error) {
	return c.call(ctx, http.MethodGet, path, nil, true)
}

// Post 发送POST请求，不重试
func (c *BaseClient) Post(ctx context.Context, path string, body interface{}, result interface{}) error {
	var reqBody []byte
	if body != nil {
		var err error
		reqBody, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	respBody, err := c.call(ctx, http.MethodPost, path, reqBody, false)
	if err != nil {
		return err
	}
	return decode(respBody, result)
}

// Delete 发送DELETE请求
func (c *BaseClient) Delete(ctx context.Context, path string) error {
	_, err := c.call(ctx, http.MethodDelete, path, nil, true)
	return err
}

// call 执行请求，idempotent 为 true 时允许重试
func (c *BaseClient) call(ctx context.Context, method, path string, reqBody []byte, idempotent bool) ([]byte, error) {
	url := c.baseURL + path
	policy := resilience.RetryPolicy{
		InitialDelay:      c.retryDelay,
		MaxDelay:          5 * time.Second,
		BackoffMultiplier: 2,
		Retryable: func(err error) bool {
			return c.shouldRetry(ctx, err)
		},
	}
	if idempotent {
		policy.MaxRetries = c.maxRetries
	}

	var respBody []byte
	err := resilience.Retry(ctx, policy, func() error {
		// 通过熔断器执行调用
		response, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doHTTPCall(ctx, method, url, reqBody)
		})
		if err != nil {
			return err
		}
		respBody = response.([]byte)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s %s %s: %w", c.serviceName, method, path, err)
	}
	return respBody, nil
}

// doHTTPCall 执行实际的HTTP调用
func (c *BaseClient) doHTTPCall(ctx context.Context, method, url string, reqBody []byte) ([]byte, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		bodyReader = bytes.NewReader(reqBody)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if reqBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp.StatusCode, respBody)
	}

	return respBody, nil
}

// newAPIError 优先解析统一错误响应
func newAPIError(status int, body []byte) *APIError {
	if unified := pkgerrors.DecodeErrorResponse(status, body); unified != nil {
		return &APIError{StatusCode: status, Code: unified.ErrorCode, Message: unified.Message}
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Message: msg}
}

// shouldRetry 判断错误是否应该重试
func (c *BaseClient) shouldRetry(ctx context.Context, err error) bool {
	// 超时错误、取消错误不重试
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	// 熔断器开启时不重试
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return pkgerrors.IsRetryable(apiErr.StatusCode)
	}
	// 网络错误重试
	return true
}

func decode(body []byte, result interface{}) error {
	if result == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// GetServiceName 获取服务名称
func (c *BaseClient) GetServiceName() string {
	return c.serviceName
}

// GetBaseURL 获取基础URL
func (c *BaseClient) GetBaseURL() string {
	return c.baseURL
}

// GetCircuitBreakerState 获取熔断器状态
func (c *BaseClient) GetCircuitBreakerState() gobreaker.State {
	return c.circuitBreaker.State()
}

// HealthCheck 健康检查
func (c *BaseClient) HealthCheck(ctx context.Context) error {
	var result map[string]interface{}
	if err := c.Get(ctx, "/health", &result); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	status, ok := result["status"].(string)
	if !ok || status != "healthy" {
		return fmt.Errorf("service unhealthy: %v", result)
	}
	return nil
}
