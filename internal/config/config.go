package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"github.com/nerdneilsfield/go-subtitle-translator/internal/pipeline"
)

// DefaultConfigName 配置文件名（不含扩展名）
const DefaultConfigName = ".subtrans"

// EnvPrefix 环境变量前缀
const EnvPrefix = "SUBTRANS"

// SupportedProviders 可用的翻译提供商
var SupportedProviders = []string{"google", "libretranslate", "deeplx", "openai"}

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Config 字幕翻译配置
type Config struct {
	// 翻译目标
	TargetLang string `mapstructure:"target_lang"`

	// 显示配置
	TranslatedFontSize int    `mapstructure:"translated_font_size"` // 像素
	TranslatedColor    string `mapstructure:"translated_color"`
	ShowOriginal       bool   `mapstructure:"show_original"`

	// 提供商配置
	Provider       string `mapstructure:"provider"`
	APIEndpoint    string `mapstructure:"api_endpoint"`
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	RequestTimeout int    `mapstructure:"request_timeout"` // 秒

	// 管线配置
	CacheCapacity int      `mapstructure:"cache_capacity"`
	MinTextLength int      `mapstructure:"min_text_length"`
	MaxInFlight   int      `mapstructure:"max_in_flight"`
	Selectors     []string `mapstructure:"selectors"`

	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// Timeout 单次请求超时
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// Validate 校验配置
func (c *Config) Validate() error {
	if _, err := language.Parse(c.TargetLang); err != nil {
		return fmt.Errorf("invalid target_lang %q: %w", c.TargetLang, err)
	}
	if !hexColor.MatchString(c.TranslatedColor) {
		return fmt.Errorf("invalid translated_color %q: expected #rgb or #rrggbb", c.TranslatedColor)
	}
	if c.TranslatedFontSize <= 0 {
		return fmt.Errorf("translated_font_size must be positive, got %d", c.TranslatedFontSize)
	}
	if c.CacheCapacity <= 0 {
		return fmt.Errorf("cache_capacity must be positive, got %d", c.CacheCapacity)
	}
	if c.MaxInFlight <= 0 {
		return fmt.Errorf("max_in_flight must be positive, got %d", c.MaxInFlight)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %d", c.RequestTimeout)
	}
	if !isSupportedProvider(c.Provider) {
		return fmt.Errorf("unsupported provider %q (available: %s)", c.Provider, strings.Join(SupportedProviders, ", "))
	}
	if len(c.Selectors) == 0 {
		return fmt.Errorf("at least one selector must be configured")
	}
	return nil
}

func isSupportedProvider(name string) bool {
	for _, p := range SupportedProviders {
		if p == name {
			return true
		}
	}
	return false
}

// LoadConfig 从文件加载配置
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// 设置默认值
	setDefaults(v)

	// 如果配置路径已指定，则直接使用
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}

		v.AddConfigPath(home)
		v.AddConfigPath(".")
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
	}

	// 读取环境变量
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// 如果找不到配置文件，则使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// SaveConfig 将配置保存到文件
func SaveConfig(config *Config, configPath string) error {
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		configPath = filepath.Join(home, DefaultConfigName+".yaml")
	}

	v := viper.New()
	if err := v.MergeConfigMap(structToMap(config)); err != nil {
		return err
	}

	// 创建父目录（如果不存在）
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return err
	}

	return v.WriteConfigAs(configPath)
}

// NewDefaultConfig 创建一个新的默认配置
func NewDefaultConfig() *Config {
	return &Config{
		TargetLang:         "vi",
		TranslatedFontSize: 16,
		TranslatedColor:    "#ffeb3b",
		ShowOriginal:       true,
		Provider:           "google",
		RequestTimeout:     10,
		CacheCapacity:      500,
		MinTextLength:      2,
		MaxInFlight:        4,
		Selectors:          append([]string(nil), pipeline.DefaultSelectors...),
		LogLevel:           "info",
	}
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	for key, value := range structToMap(NewDefaultConfig()) {
		v.SetDefault(key, value)
	}
}

// structToMap 将结构体转换为map
func structToMap(config *Config) map[string]interface{} {
	return map[string]interface{}{
		"target_lang":          config.TargetLang,
		"translated_font_size": config.TranslatedFontSize,
		"translated_color":     config.TranslatedColor,
		"show_original":        config.ShowOriginal,
		"provider":             config.Provider,
		"api_endpoint":         config.APIEndpoint,
		"api_key":              config.APIKey,
		"model":                config.Model,
		"request_timeout":      config.RequestTimeout,
		"cache_capacity":       config.CacheCapacity,
		"min_text_length":      config.MinTextLength,
		"max_in_flight":        config.MaxInFlight,
		"selectors":            config.Selectors,
		"debug":                config.Debug,
		"log_level":            config.LogLevel,
	}
}
