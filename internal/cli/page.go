package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-subtitle-translator/internal/dom"
	"github.com/nerdneilsfield/go-subtitle-translator/internal/overlay"
)

// newPageCommand 创建 page 命令
func newPageCommand() *cobra.Command {
	var showStats bool

	cmd := &cobra.Command{
		Use:   "page <input.html> [output.html]",
		Short: "翻译静态页面中的字幕节点并输出带译文的 HTML",
		Long: `对页面启用一次字幕管线：扫描所有匹配选择器的字幕节点，等待翻译完成，
注入译文样式后输出 HTML。未指定输出文件时写到标准输出。`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read page: %w", err)
			}
			doc, err := dom.Parse(bytes.NewReader(data))
			if err != nil {
				return fmt.Errorf("failed to parse page: %w", err)
			}

			s, err := newSession(cfg, doc)
			if err != nil {
				return err
			}
			defer func() { _ = s.log.Sync() }()

			// 输出到标准输出时不显示进度
			var spinner *pterm.SpinnerPrinter
			if len(args) == 2 {
				spinner, _ = pterm.DefaultSpinner.WithText(fmt.Sprintf("Translating subtitles via %s ...", s.provider.GetName())).Start()
			}

			if err := s.controller.Enable(cmd.Context()); err != nil {
				return err
			}
			s.controller.Wait()

			st := s.controller.Stats()
			if spinner != nil {
				if st.Failed > 0 {
					spinner.Warning(fmt.Sprintf("Marked %d fragments, %d translations failed", st.Marked, st.Failed))
				} else {
					spinner.Success(fmt.Sprintf("Marked %d fragments", st.Marked))
				}
			}

			overlay.InstallStyles(doc, s.style())

			var buf bytes.Buffer
			if err := doc.Render(&buf); err != nil {
				return fmt.Errorf("failed to render page: %w", err)
			}
			s.controller.Disable()

			if len(args) == 2 {
				if err := os.WriteFile(args[1], buf.Bytes(), 0o644); err != nil {
					return fmt.Errorf("failed to write page: %w", err)
				}
				s.log.Info("page written", zap.String("path", args[1]), zap.Int64("marked", st.Marked))
			} else if _, err := cmd.OutOrStdout().Write(buf.Bytes()); err != nil {
				return err
			}

			if showStats {
				s.printStats(cmd.ErrOrStderr())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showStats, "stats", false, "输出统计表")
	return cmd
}
