// Command recommend 在命令行为单个用户执行一次完整推荐并输出JSON
//
//	recommend <email> "<preference>"
//
// 退出码：0 成功，1 用法错误，2 缺少 LLM API key，99 致命错误，130 被中断
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/goccy/go-json"

	"policy_reco/config"
	"policy_reco/db"
	"policy_reco/logger"
	"policy_reco/models"
	"policy_reco/services"
)

const (
	exitOK          = 0
	exitUsage       = 1
	exitMissingKey  = 2
	exitFatal       = 99
	exitInterrupted = 130
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) < 3 {
		fmt.Fprintln(stderr, `用法: recommend <email> "<preference>"`)
		return exitUsage
	}
	email := strings.TrimSpace(args[1])
	preference := strings.TrimSpace(args[2])

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "load config failed: %v\n", err)
		return exitFatal
	}
	if err := logger.Init(cfg); err != nil {
		fmt.Fprintf(stderr, "init logger failed: %v\n", err)
		return exitFatal
	}
	if cfg.LLM.APIKey == "" {
		logger.Error("缺少 LLM API key")
		return exitMissingKey
	}

	if err := db.InitMySQLWithConfig(cfg); err != nil {
		logger.Error("初始化MySQL失败", "error", err)
		return exitFatal
	}
	defer db.Close()

	var selector services.Selector
	if cfg.LLM.Enabled {
		selector = services.NewLLMClient(cfg)
	}
	svc, err := services.NewRecommendationService(services.SQLStore{}, selector, cfg.Ranking)
	if err != nil {
		logger.Error("初始化推荐服务失败", "error", err)
		return exitFatal
	}

	rec, err := svc.Recommend(ctx, email, preference)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("已中断")
			return exitInterrupted
		}
		logger.Error("推荐失败", "error", err)
		return exitFatal
	}
	return printItems(stdout, rec.Items)
}

func printItems(w io.Writer, items []models.RecommendedPolicy) int {
	if items == nil {
		items = []models.RecommendedPolicy{}
	}
	out, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		logger.Error("序列化结果失败", "error", err)
		return exitFatal
	}
	fmt.Fprintln(w, string(out))
	return exitOK
}
