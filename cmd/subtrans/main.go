package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-subtitle-translator/internal/cli"
	"github.com/nerdneilsfield/go-subtitle-translator/internal/logger"
)

// Version information
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// 初始化日志
	log := logger.NewLogger(false)
	defer func() {
		_ = log.Sync()
	}()

	// Ctrl+C 时停止播放并撤销译文
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := cli.NewRootCommand(Version, Commit, BuildDate)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error("执行命令失败", zap.Error(err))
		stop()
		os.Exit(1)
	}
}
