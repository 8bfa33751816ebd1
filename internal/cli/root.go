package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-subtitle-translator/internal/cache"
	"github.com/nerdneilsfield/go-subtitle-translator/internal/config"
	"github.com/nerdneilsfield/go-subtitle-translator/internal/dom"
	"github.com/nerdneilsfield/go-subtitle-translator/internal/logger"
	"github.com/nerdneilsfield/go-subtitle-translator/internal/overlay"
	"github.com/nerdneilsfield/go-subtitle-translator/internal/pipeline"
	"github.com/nerdneilsfield/go-subtitle-translator/internal/translate"
	"github.com/nerdneilsfield/go-subtitle-translator/pkg/providers/factory"
	"github.com/nerdneilsfield/go-subtitle-translator/pkg/providers/stats"
)

var (
	// 命令行标志变量
	cfgFile      string
	debugMode    bool
	targetLang   string
	providerName string
)

// NewRootCommand 创建根命令
func NewRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "subtrans",
		Short: "增量字幕翻译：监听字幕节点变化并就地附加译文",
		Long: `subtrans 监听网页播放器的字幕节点，把每条新出现的字幕翻译一次，
缓存译文并以叠加样式显示在原文旁边。禁用时撤销所有标记，缓存保留。

支持的翻译提供商:
  - google: Google Translate 网页接口（默认，无需密钥）
  - libretranslate: LibreTranslate
  - deeplx: DeepLX
  - openai: OpenAI 兼容的聊天接口`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件路径（默认 $HOME/.subtrans.yaml 或 ./.subtrans.yaml）")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "启用调试日志")
	rootCmd.PersistentFlags().StringVar(&targetLang, "target-lang", "", "目标语言（覆盖配置）")
	rootCmd.PersistentFlags().StringVar(&providerName, "provider", "", "翻译提供商（覆盖配置）")

	rootCmd.AddCommand(
		newPageCommand(),
		newPlayCommand(),
		newConfigCommand(),
		newProvidersCommand(),
	)

	return rootCmd
}

// loadConfig 加载配置并应用命令行覆盖
func loadConfig() (*config.Config, error) {
	// .env 中的 SUBTRANS_* 变量，文件不存在时忽略
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if targetLang != "" {
		cfg.TargetLang = targetLang
	}
	if providerName != "" {
		cfg.Provider = providerName
	}
	if debugMode {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger 按配置创建日志记录器
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Debug {
		return logger.NewLogger(true), nil
	}
	return logger.NewLoggerWithLevel(cfg.LogLevel)
}

// session 一次命令运行所需的管线组件
type session struct {
	cfg        *config.Config
	log        *zap.Logger
	controller *pipeline.Controller
	provider   *stats.StatisticsMiddleware
}

// newSession 根据配置组装提供商、客户端和控制器
func newSession(cfg *config.Config, doc *dom.Document) (*session, error) {
	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	p, err := factory.New(cfg)
	if err != nil {
		return nil, err
	}
	mw := stats.NewStatisticsMiddleware(p, stats.NewStatsManager(log))

	ctrl := pipeline.New(doc, translate.NewProviderClient(mw),
		pipeline.WithLogger(log),
		pipeline.WithCache(cache.New(cfg.CacheCapacity)),
		pipeline.WithSource(pipeline.NewSelectorSource(cfg.Selectors)),
		pipeline.WithTargetLanguage(cfg.TargetLang),
		pipeline.WithMinTextLength(cfg.MinTextLength),
		pipeline.WithMaxInFlight(cfg.MaxInFlight),
		pipeline.WithRequestTimeout(cfg.Timeout()),
	)

	log.Debug("session ready",
		zap.String("controller", ctrl.ID()),
		zap.String("provider", mw.GetName()),
		zap.String("target_lang", cfg.TargetLang))

	return &session{cfg: cfg, log: log, controller: ctrl, provider: mw}, nil
}

// style 显示配置
func (s *session) style() overlay.Style {
	return overlay.Style{
		FontSize:     s.cfg.TranslatedFontSize,
		Color:        s.cfg.TranslatedColor,
		ShowOriginal: s.cfg.ShowOriginal,
	}
}

// printStats 打印管线和提供商统计表
func (s *session) printStats(w io.Writer) {
	st := s.controller.Stats()
	ps := s.provider.Stats()

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle("Pipeline")
	tw.AppendHeader(table.Row{"Metric", "Value"})
	tw.AppendRows([]table.Row{
		{"Scans", st.Scans},
		{"Dispatched", st.Dispatched},
		{"Deferred (same text in flight)", st.Deferred},
		{"Marked", st.Marked},
		{"Late results", st.Stale},
		{"Failed", st.Failed},
	})
	tw.AppendSeparator()
	tw.AppendRows([]table.Row{
		{"Cache size", fmt.Sprintf("%d / %d", st.Size, s.controller.Cache().Capacity())},
		{"Cache hits", st.Hits},
		{"Cache misses", st.Misses},
		{"Evictions", st.Evictions},
	})
	tw.AppendSeparator()
	tw.AppendRows([]table.Row{
		{"Provider", ps.ProviderName},
		{"Requests", ps.TotalRequests},
		{"Success rate", fmt.Sprintf("%.1f%%", ps.SuccessRate())},
		{"Avg latency", ps.AverageLatency().String()},
	})
	tw.SetStyle(table.StyleLight)
	tw.Render()
}
