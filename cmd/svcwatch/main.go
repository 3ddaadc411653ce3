package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/Yat-Muk/svcwatch/internal/pkg/version"
)

func main() {
	// SIGINT/SIGTERM 與定時模式的運行時長共用同一個取消路徑
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, normalizeArgs(os.Args)); err != nil {
		fmt.Fprintf(os.Stderr, "致命錯誤: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:      "svcwatch",
		Usage:     "確保指定的系統服務保持運行",
		UsageText: "svcwatch [--config path] [--log-level level] <serviceName> [-timed]",
		Version:   version.Short(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路徑（默認為可執行文件目錄下的 appsettings.json）",
				Sources: cli.EnvVars("SVCWATCH_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "日誌級別: debug, info, warn, error（覆蓋配置文件）",
				Sources: cli.EnvVars("SVCWATCH_LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:  "install-unit",
				Usage: "為指定服務安裝並啟用 svcwatch.service（定時模式，僅 systemd）",
			},
			&cli.BoolFlag{
				Name:  "timed",
				Usage: "定時模式：周期性重啟服務，運行 AppRunDurationHours 後退出",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts := options{
				ConfigPath:  cmd.String("config"),
				LogLevel:    cmd.String("log-level"),
				Timed:       cmd.Bool("timed"),
				InstallUnit: cmd.Bool("install-unit"),
				Service:     strings.TrimSpace(cmd.Args().First()),
				Extra:       cmd.Args().Tail(),
			}
			return run(ctx, opts, defaultHooks())
		},
	}
}

// normalizeArgs 把任意大小寫的 -timed 轉為 --timed 並移到位置參數之前
// 舊的計劃任務以 "svcwatch nginx -TIMED" 的形式調用
func normalizeArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	out := []string{args[0]}
	var rest []string
	for _, a := range args[1:] {
		if strings.HasPrefix(a, "-") && strings.EqualFold(strings.TrimLeft(a, "-"), "timed") {
			out = append(out, "--timed")
			continue
		}
		rest = append(rest, a)
	}
	return append(out, rest...)
}
