package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/nerdneilsfield/go-subtitle-translator/internal/cue"
	"github.com/nerdneilsfield/go-subtitle-translator/internal/dom"
	"github.com/nerdneilsfield/go-subtitle-translator/internal/marker"
)

// newPlayCommand 创建 play 命令
func newPlayCommand() *cobra.Command {
	var (
		speed        float64
		toggleAt     int
		container    string
		segmentClass string
		width        int
		showStats    bool
	)

	cmd := &cobra.Command{
		Use:   "play <page.html> <subtitles.srt>",
		Short: "按时间轴把 SRT 字幕写入页面的字幕容器，并显示管线给出的译文",
		Long: `模拟网页播放器：逐条把字幕写入字幕容器，由字幕管线观察这些变化并翻译。
--toggle-at N 在第 N 条字幕之后禁用再启用管线，演示撤销和缓存复用。`,
		Args: cobra.ExactArgs(2),
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
			holders := doc.Select(container)
			if len(holders) == 0 {
				return fmt.Errorf("no caption container matches %q", container)
			}

			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("failed to open subtitles: %w", err)
			}
			cues, err := cue.ParseSRT(f)
			f.Close()
			if err != nil {
				return err
			}

			s, err := newSession(cfg, doc)
			if err != nil {
				return err
			}
			defer func() { _ = s.log.Sync() }()

			out := cmd.OutOrStdout()
			ctx := cmd.Context()
			printer := newCuePrinter(out, width)

			header := color.New(color.FgCyan, color.Bold)
			header.Fprintf(out, "%d cues", len(cues))
			if lang := cue.DetectLanguage(cues); lang != "" {
				header.Fprintf(out, " (%s)", lang)
			}
			header.Fprintf(out, " → %s via %s\n", cfg.TargetLang, s.provider.GetName())

			if err := s.controller.Enable(ctx); err != nil {
				return err
			}
			defer s.controller.Disable()

			player := cue.NewPlayer(doc, holders[0],
				cue.WithSpeed(speed),
				cue.WithSegmentClass(segmentClass),
				cue.WithCueHook(func(e cue.Event) {
					// 同步扫描一次并等待译文，再打印
					s.controller.Scan(ctx)
					s.controller.Wait()
					printer.print(doc, e)

					if toggleAt > 0 && e.Position+1 == toggleAt {
						s.controller.Disable()
						color.New(color.FgRed).Fprintf(out, "-- disabled: %d fragments marked\n", len(marker.Marked(doc)))
						if err := s.controller.Enable(ctx); err == nil {
							s.controller.Wait()
							color.New(color.FgGreen).Fprintf(out, "-- enabled: %d fragments marked from cache\n", len(marker.Marked(doc)))
						}
					}
				}))

			if err := player.Play(ctx, cues); err != nil {
				return err
			}
			s.controller.Wait()

			if showStats {
				s.printStats(out)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&speed, "speed", 1, "播放倍速")
	cmd.Flags().IntVar(&toggleAt, "toggle-at", 0, "在第 N 条字幕之后禁用并重新启用管线（0 表示不切换）")
	cmd.Flags().StringVar(&container, "container", ".caption-window", "字幕容器选择器")
	cmd.Flags().StringVar(&segmentClass, "segment-class", cue.DefaultSegmentClass, "字幕行节点类名")
	cmd.Flags().IntVar(&width, "width", 60, "每行最大显示宽度")
	cmd.Flags().BoolVar(&showStats, "stats", true, "结束时输出统计表")
	return cmd
}

// cuePrinter 打印字幕及其译文
type cuePrinter struct {
	w          io.Writer
	width      int
	index      *color.Color
	original   *color.Color
	translated *color.Color
	missing    *color.Color
}

func newCuePrinter(w io.Writer, width int) *cuePrinter {
	return &cuePrinter{
		w:          w,
		width:      width,
		index:      color.New(color.FgHiBlack),
		original:   color.New(color.FgWhite),
		translated: color.New(color.FgYellow),
		missing:    color.New(color.FgHiBlack, color.Italic),
	}
}

func (p *cuePrinter) print(doc *dom.Document, e cue.Event) {
	p.index.Fprintf(p.w, "#%-4d %s\n", e.Cue.Index, formatTimestamp(e.Cue))
	for _, seg := range e.Segments {
		p.original.Fprintf(p.w, "  %s\n", p.fit(doc.TextContent(seg)))
		if text, ok := marker.Translation(doc, seg); ok {
			p.translated.Fprintf(p.w, "  %s\n", p.fit(text))
		} else {
			p.missing.Fprintf(p.w, "  %s\n", "(untranslated)")
		}
	}
}

// fit 按显示宽度截断，宽字符按 2 列计算
func (p *cuePrinter) fit(s string) string {
	s = strings.TrimSpace(s)
	if p.width <= 0 {
		return s
	}
	return runewidth.Truncate(s, p.width, "…")
}

func formatTimestamp(c cue.Cue) string {
	return srtTime(c.Start) + " --> " + srtTime(c.End)
}

func srtTime(d time.Duration) string {
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d:%02d:%02d,%03d", ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
}
