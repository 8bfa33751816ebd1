package factory

import (
	"fmt"

	"github.com/nerdneilsfield/go-subtitle-translator/internal/config"
	"github.com/nerdneilsfield/go-subtitle-translator/pkg/providers"
	"github.com/nerdneilsfield/go-subtitle-translator/pkg/providers/deeplx"
	"github.com/nerdneilsfield/go-subtitle-translator/pkg/providers/google"
	"github.com/nerdneilsfield/go-subtitle-translator/pkg/providers/libretranslate"
	"github.com/nerdneilsfield/go-subtitle-translator/pkg/providers/openai"
)

// Info 提供商描述
type Info struct {
	Name            string
	DefaultEndpoint string
	RequiresAPIKey  bool
	Description     string
}

// Available 返回所有可用提供商
func Available() []Info {
	return []Info{
		{Name: "google", DefaultEndpoint: google.DefaultEndpoint, Description: "Google Translate web endpoint (client=gtx), default"},
		{Name: "libretranslate", DefaultEndpoint: libretranslate.DefaultEndpoint, Description: "LibreTranslate REST API"},
		{Name: "deeplx", DefaultEndpoint: deeplx.DefaultEndpoint, Description: "Self-hosted DeepLX service"},
		{Name: "openai", DefaultEndpoint: "https://api.openai.com/v1", RequiresAPIKey: true, Description: "OpenAI-compatible chat completion"},
	}
}

// New 根据配置创建提供商
func New(cfg *config.Config) (providers.Provider, error) {
	base := providers.DefaultConfig()
	base.APIKey = cfg.APIKey
	base.APIEndpoint = cfg.APIEndpoint
	if cfg.RequestTimeout > 0 {
		base.Timeout = cfg.Timeout()
	}

	switch cfg.Provider {
	case "", "google":
		c := google.DefaultConfig()
		c.BaseConfig = withEndpoint(base, google.DefaultEndpoint)
		return google.New(c), nil
	case "libretranslate":
		c := libretranslate.DefaultConfig()
		c.BaseConfig = withEndpoint(base, libretranslate.DefaultEndpoint)
		return libretranslate.New(c), nil
	case "deeplx":
		c := deeplx.DefaultConfig()
		c.BaseConfig = withEndpoint(base, deeplx.DefaultEndpoint)
		c.AccessToken = cfg.APIKey
		return deeplx.New(c), nil
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("provider openai requires api_key")
		}
		c := openai.DefaultConfig()
		c.BaseConfig = base
		if cfg.Model != "" {
			c.Model = cfg.Model
		}
		return openai.New(c), nil
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", cfg.Provider)
	}
}

// withEndpoint 未配置端点时使用默认值
func withEndpoint(base providers.BaseConfig, endpoint string) providers.BaseConfig {
	if base.APIEndpoint == "" {
		base.APIEndpoint = endpoint
	}
	return base
}
