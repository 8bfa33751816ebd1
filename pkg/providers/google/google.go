package google

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/nerdneilsfield/go-subtitle-translator/pkg/providers"
)

// DefaultEndpoint 免密钥的 Google 翻译接口
const DefaultEndpoint = "https://translate.googleapis.com/translate_a/single"

// Config Google Translate配置
type Config struct {
	providers.BaseConfig
	Client string `json:"client,omitempty"` // 查询参数 client，默认 gtx
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	config := Config{
		BaseConfig: providers.DefaultConfig(),
		Client:     "gtx",
	}
	config.APIEndpoint = DefaultEndpoint
	return config
}

// Provider Google Translate提供商
type Provider struct {
	config     Config
	httpClient *http.Client
}

var _ providers.Provider = (*Provider)(nil)

// New 创建新的Google Translate提供商
func New(config Config) *Provider {
	if config.APIEndpoint == "" {
		config.APIEndpoint = DefaultEndpoint
	}
	if config.Client == "" {
		config.Client = "gtx"
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
	return "google"
}

// Translate 执行翻译
func (p *Provider) Translate(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	source := req.SourceLanguage
	if source == "" {
		source = "auto"
	}

	// 构建URL参数
	params := url.Values{}
	params.Set("client", p.config.Client)
	params.Set("sl", source)
	params.Set("tl", normalizeLanguageCode(req.TargetLanguage))
	params.Set("dt", "t")
	params.Set("q", req.Text)
	if p.config.APIKey != "" {
		params.Set("key", p.config.APIKey)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.APIEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, providers.NewTransportError(p.GetName(), "failed to create request", err)
	}
	for k, v := range p.config.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, providers.NewTransportError(p.GetName(), "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, providers.NewTransportError(p.GetName(), "failed to read response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, providers.NewTransportError(p.GetName(), fmt.Sprintf("unexpected status %s", resp.Status), nil)
	}

	text, detected, err := parseResponse(body)
	if err != nil {
		return nil, providers.NewParseError(p.GetName(), "failed to decode response", err)
	}

	return &providers.ProviderResponse{
		Text:       text,
		SourceLang: detected,
	}, nil
}

// parseResponse 解析分段数组响应
//
// 响应形如 [[["译文1","原文1",...],["译文2","原文2",...]],null,"en",...]，
// 取 data[0] 中每个分段的第一个元素拼接。
func parseResponse(body []byte) (string, string, error) {
	if !gjson.ValidBytes(body) {
		return "", "", fmt.Errorf("invalid JSON payload")
	}

	segments := gjson.GetBytes(body, "0")
	if !segments.IsArray() {
		return "", "", fmt.Errorf("missing segment list")
	}

	var sb strings.Builder
	segments.ForEach(func(_, segment gjson.Result) bool {
		if !segment.IsArray() {
			return true
		}
		if first := segment.Get("0"); first.Type == gjson.String {
			sb.WriteString(first.String())
		}
		return true
	})

	return sb.String(), gjson.GetBytes(body, "2").String(), nil
}

// normalizeLanguageCode 标准化语言代码
func normalizeLanguageCode(lang string) string {
	replacements := map[string]string{
		"chinese":             "zh-CN",
		"chinese_simplified":  "zh-CN",
		"chinese_traditional": "zh-TW",
		"english":             "en",
		"vietnamese":          "vi",
		"spanish":             "es",
		"french":              "fr",
		"german":              "de",
		"japanese":            "ja",
		"korean":              "ko",
		"portuguese":          "pt",
		"russian":             "ru",
		"italian":             "it",
	}

	lower := strings.ToLower(lang)
	if normalized, ok := replacements[lower]; ok {
		return normalized
	}

	// 处理 xx_YY 格式到 xx-YY
	if strings.Contains(lang, "_") {
		return strings.Replace(lang, "_", "-", 1)
	}

	return lang
}
