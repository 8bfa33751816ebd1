package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/nerdneilsfield/go-subtitle-translator/pkg/providers"
)

// DefaultModel 默认模型
const DefaultModel = "gpt-4o-mini"

const systemPrompt = "You are a subtitle translator. Reply with the translation of the user's text into the requested language and nothing else. Keep line breaks."

// getModel 根据字符串获取模型常量
func getModel(model string) openai.ChatModel {
	switch model {
	case "":
		return openai.ChatModelGPT4oMini
	case "gpt-4o":
		return openai.ChatModelGPT4o
	case "gpt-4o-mini":
		return openai.ChatModelGPT4oMini
	case "gpt-3.5-turbo":
		return openai.ChatModelGPT3_5Turbo
	default:
		// 对于新模型或自定义模型，使用字符串
		return openai.ChatModel(model)
	}
}

// Config OpenAI配置（使用官方SDK）
type Config struct {
	providers.BaseConfig
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		BaseConfig:  providers.DefaultConfig(),
		Model:       DefaultModel,
		Temperature: 0.3,
		MaxTokens:   512,
	}
}

// Provider OpenAI提供商
type Provider struct {
	config Config
	client openai.Client
}

var _ providers.Provider = (*Provider)(nil)

// New 创建新的OpenAI提供商
func New(config Config) *Provider {
	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		// 单次尝试，失败交给下一轮扫描
		option.WithMaxRetries(0),
	}

	if config.APIEndpoint != "" {
		opts = append(opts, option.WithBaseURL(config.APIEndpoint))
	}

	for k, v := range config.Headers {
		opts = append(opts, option.WithHeader(k, v))
	}

	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(config.Timeout))
	}

	return &Provider{
		config: config,
		client: openai.NewClient(opts...),
	}
}

// GetName 获取提供商名称
func (p *Provider) GetName() string {
	return "openai"
}

// Translate 执行翻译
func (p *Provider) Translate(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	prompt := fmt.Sprintf("Translate into %s:\n\n%s", req.TargetLanguage, req.Text)
	if req.SourceLanguage != "" && !strings.EqualFold(req.SourceLanguage, "auto") {
		prompt = fmt.Sprintf("Translate from %s into %s:\n\n%s", req.SourceLanguage, req.TargetLanguage, req.Text)
	}

	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		Model: getModel(p.config.Model),
	}
	if p.config.Temperature > 0 {
		params.Temperature = openai.Float(float64(p.config.Temperature))
	}
	if p.config.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(p.config.MaxTokens))
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, providers.NewTransportError(p.GetName(), "chat completion failed", err)
	}

	if len(completion.Choices) == 0 {
		return nil, providers.NewParseError(p.GetName(), "no choices returned", nil)
	}

	return &providers.ProviderResponse{
		Text:      strings.TrimSpace(completion.Choices[0].Message.Content),
		TokensIn:  int(completion.Usage.PromptTokens),
		TokensOut: int(completion.Usage.CompletionTokens),
		Metadata: map[string]interface{}{
			"model":         completion.Model,
			"finish_reason": string(completion.Choices[0].FinishReason),
			"id":            completion.ID,
		},
	}, nil
}
