// Package translate 将单个提供商适配为字幕管线使用的翻译客户端
package translate

import (
	"context"
	"errors"
	"strings"

	"github.com/nerdneilsfield/go-subtitle-translator/pkg/providers"
)

// Client 翻译客户端
//
// 每次调用只尝试一次，不重试也不缓存。
type Client interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// ProviderClient 基于 providers.Provider 的客户端
type ProviderClient struct {
	provider providers.Provider
}

var _ Client = (*ProviderClient)(nil)

// NewProviderClient 创建客户端
func NewProviderClient(provider providers.Provider) *ProviderClient {
	return &ProviderClient{provider: provider}
}

// Name 提供商名称
func (c *ProviderClient) Name() string {
	return c.provider.GetName()
}

// Translate 翻译文本，源语言由服务自动识别
func (c *ProviderClient) Translate(ctx context.Context, text, targetLang string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyInput
	}

	resp, err := c.provider.Translate(ctx, &providers.ProviderRequest{
		Text:           text,
		SourceLanguage: "auto",
		TargetLanguage: targetLang,
	})
	if err != nil {
		return "", &Error{Kind: kindOf(err), Provider: c.provider.GetName(), Cause: err}
	}

	translated := strings.TrimSpace(resp.Text)
	if translated == "" {
		return "", &Error{Kind: KindEmptyResult, Provider: c.provider.GetName()}
	}
	return translated, nil
}

func kindOf(err error) Kind {
	var perr *providers.Error
	if errors.As(err, &perr) && perr.Code == providers.ErrCodeParse {
		return KindParse
	}
	return KindTransport
}
