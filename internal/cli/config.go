package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/nerdneilsfield/go-subtitle-translator/internal/config"
)

// newConfigCommand 创建 config 命令
func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "生成或查看配置",
	}
	cmd.AddCommand(newConfigInitCommand(), newConfigShowCommand())
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "写入默认配置（默认 $HOME/.subtrans.yaml）",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if len(args) == 1 {
				path = args[0]
			}

			if path == "" {
				home, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				path = filepath.Join(home, config.DefaultConfigName+".yaml")
			}
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists, use --force to overwrite", path)
				}
			}

			cfg := config.NewDefaultConfig()
			if targetLang != "" {
				cfg.TargetLang = targetLang
			}
			if providerName != "" {
				cfg.Provider = providerName
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := config.SaveConfig(cfg, path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "config written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "覆盖已有文件")
	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "显示生效的配置（文件、环境变量和命令行合并后）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"Key", "Value"})
			tw.AppendRows([]table.Row{
				{"target_lang", cfg.TargetLang},
				{"provider", cfg.Provider},
				{"api_endpoint", orDefault(cfg.APIEndpoint)},
				{"api_key", maskSecret(cfg.APIKey)},
				{"model", orDefault(cfg.Model)},
				{"request_timeout", cfg.Timeout().String()},
				{"translated_font_size", fmt.Sprintf("%dpx", cfg.TranslatedFontSize)},
				{"translated_color", cfg.TranslatedColor},
				{"show_original", cfg.ShowOriginal},
				{"cache_capacity", cfg.CacheCapacity},
				{"min_text_length", cfg.MinTextLength},
				{"max_in_flight", cfg.MaxInFlight},
				{"selectors", strings.Join(cfg.Selectors, "\n")},
				{"log_level", cfg.LogLevel},
				{"debug", cfg.Debug},
			})
			tw.SetStyle(table.StyleLight)
			tw.Render()
			return nil
		},
	}
}

func orDefault(s string) string {
	if s == "" {
		return "(default)"
	}
	return s
}

// maskSecret 只显示密钥的最后 4 位
func maskSecret(s string) string {
	if s == "" {
		return "(unset)"
	}
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}
