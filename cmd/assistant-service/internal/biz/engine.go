package biz

import (
	"context"
	"errors"
	"strings"
	"time"

	"velora/cmd/assistant-service/internal/conf"
	"velora/cmd/assistant-service/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
)

const placeholderAPIKey = "your-gemini-api-key-here"

// IsConfigured 判断远程生成密钥是否可用
func IsConfigured(apiKey string) bool {
	key := strings.TrimSpace(apiKey)
	return key != "" && key != placeholderAPIKey
}

// ResponseEngine 问答响应引擎
// 顺序：快速问答 → 计算器意图 → 远程生成 → 本地规则 → 默认回复
type ResponseEngine struct {
	calculator *RuleMatcher
	quick      *RuleMatcher
	local      *RuleMatcher
	prompt     *PromptBuilder
	generator  domain.TextGenerator
	remote     bool
	timeout    time.Duration
	log        *log.Helper
}

// NewResponseEngine 创建响应引擎
func NewResponseEngine(
	c *conf.Bootstrap,
	generator domain.TextGenerator,
	rnd domain.RandomSource,
	logger log.Logger,
) *ResponseEngine {
	delay := conf.Duration(c.Assistant.ScrollDelay, 500*time.Millisecond)

	e := &ResponseEngine{
		calculator: NewRuleMatcher(rnd, calculatorRule(delay)),
		quick:      NewRuleMatcher(rnd, quickRules()...),
		local:      NewRuleMatcher(rnd, localRules()...),
		prompt:     NewPromptBuilder(c.Assistant.PromptHistory),
		generator:  generator,
		remote:     generator != nil && IsConfigured(c.Gemini.APIKey),
		timeout:    conf.Duration(c.Gemini.Timeout, 12*time.Second),
		log:        log.NewHelper(log.With(logger, "module", "biz/engine")),
	}

	if e.remote {
		e.log.Infof("remote generation enabled, model=%s timeout=%s", c.Gemini.Model, e.timeout)
	} else {
		e.log.Info("remote generation disabled, using local rules only")
	}
	return e
}

// RemoteEnabled 远程生成是否启用
func (e *ResponseEngine) RemoteEnabled() bool {
	return e.remote
}

// Respond 生成回复，不向调用方返回错误
// 远程生成成功时把本轮问答写入 history，history 可为 nil
func (e *ResponseEngine) Respond(ctx context.Context, message string, history *domain.History) (reply *domain.Reply) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Errorf("response engine panic recovered: %v", r)
			reply = &domain.Reply{Text: fallbackReply, Source: domain.SourceFallback}
		}
		RepliesTotal.WithLabelValues(string(reply.Source), reply.Rule).Inc()
	}()

	// 1. 快速问答
	if r, ok := e.quick.Match(message); ok {
		return r
	}

	// 2. 计算器意图
	if r, ok := e.calculator.Match(message); ok {
		return r
	}

	// 3. 远程生成
	if e.remote {
		text, err := e.generate(ctx, message, history)
		if err == nil {
			if history != nil {
				history.AppendExchange(message, text)
			}
			return &domain.Reply{Text: text, Source: domain.SourceRemote}
		}
		e.log.Warnf("remote generation failed, falling back to local rules: %v", err)
	}

	// 4. 本地规则
	if r, ok := e.local.Match(message); ok {
		return r
	}

	// 5. 默认回复
	return &domain.Reply{Text: defaultReply, Source: domain.SourceDefault}
}

// generate 调用远程生成，带超时
func (e *ResponseEngine) generate(ctx context.Context, message string, history *domain.History) (string, error) {
	var lines []string
	if history != nil {
		lines = history.Lines()
	}
	prompt := e.prompt.Build(message, lines)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	text, err := e.generator.Generate(ctx, prompt)
	if err == nil && strings.TrimSpace(text) == "" {
		err = &domain.RemoteError{Kind: domain.RemoteMalformed, Err: errors.New("empty reply")}
	}

	status := "success"
	if err != nil {
		status = "failure"
		RemoteFailuresTotal.WithLabelValues(string(domain.RemoteKind(err))).Inc()
	}
	RemoteDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())

	return text, err
}
