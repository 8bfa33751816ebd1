package deeplx

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

// DefaultEndpoint 本地 DeepLX 服务地址
const DefaultEndpoint = "http://localhost:1188/translate"

// Config DeepLX配置
type Config struct {
	providers.BaseConfig
	AccessToken string `json:"access_token,omitempty"` // 可选的访问令牌
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	config := Config{
		BaseConfig: providers.DefaultConfig(),
	}
	config.APIEndpoint = DefaultEndpoint
	return config
}

// Provider DeepLX提供商
type Provider struct {
	config     Config
	httpClient *http.Client
}

var _ providers.Provider = (*Provider)(nil)

// New 创建新的DeepLX提供商
func New(config Config) *Provider {
	if config.APIEndpoint == "" {
		config.APIEndpoint = DefaultEndpoint
	}

	return &Provider{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// GetName 获取提供商名称
func (p *Provider) GetName() string {
	return "deeplx"
}

// Translate 执行翻译
func (p *Provider) Translate(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	source := ""
	if req.SourceLanguage != "" && !strings.EqualFold(req.SourceLanguage, "auto") {
		source = normalizeLanguageCode(req.SourceLanguage)
	}

	body, err := json.Marshal(TranslateRequest{
		Text:       req.Text,
		SourceLang: source,
		TargetLang: normalizeLanguageCode(req.TargetLanguage),
	})
	if err != nil {
		return nil, providers.NewTransportError(p.GetName(), "failed to marshal request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.APIEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, providers.NewTransportError(p.GetName(), "failed to create request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.config.AccessToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.config.AccessToken)
	}
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

	var translateResp TranslateResponse
	if err := json.Unmarshal(respBody, &translateResp); err != nil {
		if resp.StatusCode >= 300 {
			return nil, providers.NewTransportError(p.GetName(), fmt.Sprintf("unexpected status %s", resp.Status), nil)
		}
		return nil, providers.NewParseError(p.GetName(), "failed to decode response", err)
	}

	// 检查业务错误
	if translateResp.Code != http.StatusOK {
		return nil, providers.NewTransportError(p.GetName(), fmt.Sprintf("API error %d: %s", translateResp.Code, translateResp.Message), nil)
	}

	return &providers.ProviderResponse{
		Text:       translateResp.Data,
		SourceLang: translateResp.SourceLang,
	}, nil
}

// normalizeLanguageCode 标准化语言代码
func normalizeLanguageCode(lang string) string {
	// DeepLX使用大写的语言代码，与DeepL兼容
	upper := strings.ToUpper(lang)

	replacements := map[string]string{
		"CHINESE":    "ZH",
		"ENGLISH":    "EN",
		"SPANISH":    "ES",
		"FRENCH":     "FR",
		"GERMAN":     "DE",
		"JAPANESE":   "JA",
		"KOREAN":     "KO",
		"PORTUGUESE": "PT",
		"RUSSIAN":    "RU",
		"ITALIAN":    "IT",
	}

	if normalized, ok := replacements[upper]; ok {
		return normalized
	}

	return upper
}

// TranslateRequest 翻译请求
type TranslateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang,omitempty"`
	TargetLang string `json:"target_lang"`
}

// TranslateResponse 翻译响应
type TranslateResponse struct {
	Code       int    `json:"code"`
	Message    string `json:"message,omitempty"`
	Data       string `json:"data"`
	SourceLang string `json:"source_lang,omitempty"`
}
