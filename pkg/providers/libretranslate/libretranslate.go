package libretranslate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nerdneilsfield/go-subtitle-translator/pkg/providers"
)

// DefaultEndpoint 官方演示服务器
const DefaultEndpoint = "https://libretranslate.com"

// Config LibreTranslate配置
type Config struct {
	providers.BaseConfig
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	config := Config{
		BaseConfig: providers.DefaultConfig(),
	}
	config.APIEndpoint = DefaultEndpoint
	return config
}

// Provider LibreTranslate提供商
type Provider struct {
	config     Config
	httpClient *http.Client
}

var _ providers.Provider = (*Provider)(nil)

// New 创建新的LibreTranslate提供商
func New(config Config) *Provider {
	if config.APIEndpoint == "" {
		config.APIEndpoint = DefaultEndpoint
	}
	config.APIEndpoint = strings.TrimRight(config.APIEndpoint, "/")

	return &Provider{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// GetName 获取提供商名称
func (p *Provider) GetName() string {
	return "libretranslate"
}

// Translate 执行翻译
func (p *Provider) Translate(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	source := strings.ToLower(req.SourceLanguage)
	if source == "" {
		source = "auto"
	}

	body, err := json.Marshal(TranslateRequest{
		Q:      req.Text,
		Source: source,
		Target: strings.ToLower(req.TargetLanguage),
		Format: "text",
		APIKey: p.config.APIKey,
	})
	if err != nil {
		return nil, providers.NewTransportError(p.GetName(), "failed to marshal request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.APIEndpoint+"/translate", bytes.NewReader(body))
	if err != nil {
		return nil, providers.NewTransportError(p.GetName(), "failed to create request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range p.config.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, providers.NewTransportError(p.GetName(), "request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, providers.NewTransportError(p.GetName(), "failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errorResp ErrorResponse
		if err := json.Unmarshal(respBody, &errorResp); err == nil && errorResp.Error != "" {
			return nil, providers.NewTransportError(p.GetName(), fmt.Sprintf("API error: %s", errorResp.Error), nil)
		}
		return nil, providers.NewTransportError(p.GetName(), fmt.Sprintf("unexpected status %s", resp.Status), nil)
	}

	var translateResp TranslateResponse
	if err := json.Unmarshal(respBody, &translateResp); err != nil {
		return nil, providers.NewParseError(p.GetName(), "failed to decode response", err)
	}

	out := &providers.ProviderResponse{Text: translateResp.TranslatedText}
	if translateResp.DetectedLanguage != nil {
		out.SourceLang = translateResp.DetectedLanguage.Language
	}
	return out, nil
}

// TranslateRequest 翻译请求
type TranslateRequest struct {
	Q      string `json:"q"`                 // 要翻译的文本
	Source string `json:"source"`            // 源语言
	Target string `json:"target"`            // 目标语言
	Format string `json:"format"`            // 文本格式
	APIKey string `json:"api_key,omitempty"` // API密钥（如果需要）
}

// TranslateResponse 翻译响应
type TranslateResponse struct {
	TranslatedText   string `json:"translatedText"`
	DetectedLanguage *struct {
		Confidence float64 `json:"confidence"`
		Language   string  `json:"language"`
	} `json:"detectedLanguage,omitempty"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error string `json:"error"`
}
