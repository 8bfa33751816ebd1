package providers

import (
	"context"
	"fmt"
	"time"
)

// BaseConfig 基础配置
type BaseConfig struct {
	// API配置
	APIKey      string `json:"api_key,omitempty"`
	APIEndpoint string `json:"api_endpoint,omitempty"`

	// 单次请求超时，提供商内部不重试
	Timeout time.Duration `json:"timeout"`

	// 自定义头部
	Headers map[string]string `json:"headers,omitempty"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() BaseConfig {
	return BaseConfig{
		Timeout: 10 * time.Second,
		Headers: make(map[string]string),
	}
}

// Provider 翻译提供商接口
type Provider interface {
	// Translate 执行一次翻译请求
	Translate(ctx context.Context, req *ProviderRequest) (*ProviderResponse, error)

	// GetName 获取提供商名称
	GetName() string
}

// ProviderRequest 提供商请求
type ProviderRequest struct {
	Text           string `json:"text"`
	SourceLanguage string `json:"source_language,omitempty"`
	TargetLanguage string `json:"target_language,omitempty"`
}

// ProviderResponse 提供商响应
type ProviderResponse struct {
	Text       string                 `json:"text"`
	SourceLang string                 `json:"source_lang,omitempty"`
	TokensIn   int                    `json:"tokens_in,omitempty"`
	TokensOut  int                    `json:"tokens_out,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// 错误代码常量
const (
	ErrCodeTransport = "transport" // 网络或 HTTP 状态错误
	ErrCodeParse     = "parse"     // 响应格式错误
)

// Error 提供商错误
type Error struct {
	Code     string
	Provider string
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s error: %s: %v", e.Provider, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s error: %s", e.Provider, e.Code, e.Message)
}

// Unwrap 返回原因错误
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewTransportError 创建传输错误
func NewTransportError(provider, message string, cause error) *Error {
	return &Error{Code: ErrCodeTransport, Provider: provider, Message: message, Cause: cause}
}

// NewParseError 创建解析错误
func NewParseError(provider, message string, cause error) *Error {
	return &Error{Code: ErrCodeParse, Provider: provider, Message: message, Cause: cause}
}
