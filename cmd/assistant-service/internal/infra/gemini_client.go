package infra

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"velora/cmd/assistant-service/internal/conf"
	"velora/cmd/assistant-service/internal/domain"
	"velora/pkg/observability"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.opentelemetry.io/otel/attribute"
)

const (
	tracerName   = "assistant-service/gemini"
	replyPath    = "candidates.0.content.parts.0.text"
	maxErrorBody = 4 << 10
)

var harmCategories = []string{
	"HARM_CATEGORY_HARASSMENT",
	"HARM_CATEGORY_HATE_SPEECH",
	"HARM_CATEGORY_SEXUALLY_EXPLICIT",
	"HARM_CATEGORY_DANGEROUS_CONTENT",
}

// GeminiClient Gemini generateContent 客户端
// 单次调用，不重试；超时由调用方的 context 控制
type GeminiClient struct {
	cfg        conf.Gemini
	httpClient *http.Client
	log        *log.Helper
}

// NewGeminiClient 创建 Gemini 客户端
func NewGeminiClient(c *conf.Bootstrap, logger log.Logger) *GeminiClient {
	return &GeminiClient{
		cfg:        c.Gemini,
		httpClient: &http.Client{},
		log:        log.NewHelper(log.With(logger, "module", "infra/gemini")),
	}
}

// Model 模型名称
func (c *GeminiClient) Model() string {
	return c.cfg.Model
}

// Generate 生成文本
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (_ string, err error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "gemini.generateContent")
	span.SetAttributes(
		attribute.String("gemini.model", c.cfg.Model),
		attribute.Int("gemini.prompt_length", len(prompt)),
	)
	defer func() {
		observability.RecordError(span, err)
		span.End()
	}()

	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return "", &domain.RemoteError{Kind: domain.RemoteUnconfigured}
	}

	body, err := c.buildRequest(prompt)
	if err != nil {
		return "", &domain.RemoteError{Kind: domain.RemoteMalformed, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", &domain.RemoteError{Kind: domain.RemoteNetwork, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &domain.RemoteError{Kind: domain.RemoteNetwork, Err: redact(err)}
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.log.Warnf("gemini returned status %d: %s", resp.StatusCode, gjson.GetBytes(snippet, "error.message").String())
		return "", &domain.RemoteError{Kind: domain.RemoteStatus, StatusCode: resp.StatusCode}
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &domain.RemoteError{Kind: domain.RemoteNetwork, Err: err}
	}

	text := gjson.GetBytes(payload, replyPath)
	if !text.Exists() || text.Type != gjson.String {
		return "", &domain.RemoteError{Kind: domain.RemoteMalformed, Err: errors.New("reply text not found in response")}
	}

	c.log.Debugf("gemini reply received in %s", time.Since(start))
	return text.String(), nil
}

// buildRequest 构建 generateContent 请求体
func (c *GeminiClient) buildRequest(prompt string) ([]byte, error) {
	body := []byte(`{}`)
	var err error

	set := func(path string, value interface{}) {
		if err != nil {
			return
		}
		body, err = sjson.SetBytes(body, path, value)
	}

	set("contents.0.parts.0.text", prompt)
	set("generationConfig.temperature", c.cfg.Temperature)
	set("generationConfig.topK", c.cfg.TopK)
	set("generationConfig.topP", c.cfg.TopP)
	set("generationConfig.maxOutputTokens", c.cfg.MaxOutputTokens)
	for i, category := range harmCategories {
		set(fmt.Sprintf("safetySettings.%d.category", i), category)
		set(fmt.Sprintf("safetySettings.%d.threshold", i), "BLOCK_MEDIUM_AND_ABOVE")
	}

	return body, err
}

func (c *GeminiClient) endpoint() string {
	base := strings.TrimRight(c.cfg.BaseURL, "/")
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", base, c.cfg.Model, url.QueryEscape(c.cfg.APIKey))
}

// redact 去掉错误信息中带密钥的 URL
func redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s: %w", uerr.Op, uerr.Err)
	}
	return err
}
