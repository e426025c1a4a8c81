package conf

import (
	"fmt"
	"os"
	"time"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
)

// Bootstrap 应用配置
type Bootstrap struct {
	Server        Server        `json:"server"`
	Assistant     Assistant     `json:"assistant"`
	Gemini        Gemini        `json:"gemini"`
	Observability Observability `json:"observability"`
}

// Server 服务器配置
type Server struct {
	HTTP HTTP `json:"http"`
}

// HTTP HTTP 监听配置
type HTTP struct {
	Network string `json:"network"`
	Addr    string `json:"addr"`
	Timeout string `json:"timeout"`
}

// Assistant 对话配置
type Assistant struct {
	HistoryLimit       int    `json:"history_limit"`
	PromptHistory      int    `json:"prompt_history"`
	MaxMessageLength   int    `json:"max_message_length"`
	ConversationTTL    string `json:"conversation_ttl"`
	ScrollDelay        string `json:"scroll_delay"`
	RateLimitPerMinute int    `json:"rate_limit_per_minute"`
}

// Gemini 远程生成配置
type Gemini struct {
	APIKey          string  `json:"api_key"`
	BaseURL         string  `json:"base_url"`
	Model           string  `json:"model"`
	Timeout         string  `json:"timeout"`
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"top_k"`
	TopP            float64 `json:"top_p"`
	MaxOutputTokens int     `json:"max_output_tokens"`
}

// Observability 可观测性配置
type Observability struct {
	ServiceName    string  `json:"service_name"`
	ServiceVersion string  `json:"service_version"`
	Environment    string  `json:"environment"`
	OTELEndpoint   string  `json:"otel_endpoint"`
	EnableTrace    bool    `json:"enable_trace"`
	SamplingRate   float64 `json:"sampling_rate"`
}

// Load 从 YAML 文件加载配置，GEMINI_API_KEY 覆盖文件中的密钥
func Load(path string) (*Bootstrap, error) {
	c := config.New(
		config.WithSource(
			file.NewSource(path),
		),
	)
	defer c.Close()

	if err := c.Load(); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	var bc Bootstrap
	if err := c.Scan(&bc); err != nil {
		return nil, fmt.Errorf("scan config: %w", err)
	}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		bc.Gemini.APIKey = key
	}
	if endpoint := os.Getenv("OTEL_ENDPOINT"); endpoint != "" {
		bc.Observability.OTELEndpoint = endpoint
	}

	bc.ApplyDefaults()
	return &bc, nil
}

// ApplyDefaults 填充未配置项
func (bc *Bootstrap) ApplyDefaults() {
	if bc.Server.HTTP.Network == "" {
		bc.Server.HTTP.Network = "tcp"
	}
	if bc.Server.HTTP.Addr == "" {
		bc.Server.HTTP.Addr = ":8005"
	}
	if bc.Server.HTTP.Timeout == "" {
		bc.Server.HTTP.Timeout = "30s"
	}

	a := &bc.Assistant
	if a.HistoryLimit <= 0 {
		a.HistoryLimit = 10
	}
	if a.PromptHistory <= 0 {
		a.PromptHistory = 6
	}
	if a.MaxMessageLength <= 0 {
		a.MaxMessageLength = 500
	}
	if a.ConversationTTL == "" {
		a.ConversationTTL = "30m"
	}
	if a.ScrollDelay == "" {
		a.ScrollDelay = "500ms"
	}

	g := &bc.Gemini
	if g.BaseURL == "" {
		g.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if g.Model == "" {
		g.Model = "gemini-1.5-flash-latest"
	}
	if g.Timeout == "" {
		g.Timeout = "12s"
	}
	if g.Temperature == 0 {
		g.Temperature = 0.7
	}
	if g.TopK == 0 {
		g.TopK = 40
	}
	if g.TopP == 0 {
		g.TopP = 0.95
	}
	if g.MaxOutputTokens == 0 {
		g.MaxOutputTokens = 1024
	}

	o := &bc.Observability
	if o.ServiceName == "" {
		o.ServiceName = "assistant-service"
	}
	if o.ServiceVersion == "" {
		o.ServiceVersion = "1.0.0"
	}
	if o.Environment == "" {
		o.Environment = "development"
	}
	if o.OTELEndpoint == "" {
		o.OTELEndpoint = "localhost:4317"
	}
	if o.SamplingRate == 0 {
		o.SamplingRate = 1.0
	}
}

// Duration 解析时长字符串，为空或非法时返回 def
func Duration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
