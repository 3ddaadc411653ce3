package process

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Yat-Muk/svcwatch/internal/pkg/logger"
)

// 默認等待被終止進程退出的時間
const DefaultExitWait = 5 * time.Second

// Result 接管結果
type Result struct {
	Found      int
	Terminated int
	Failed     int
}

// Takeover 終止與當前進程同名的其他實例，保證只有一個看門狗在運行
type Takeover struct {
	table        Table
	log          *zap.Logger
	ExitWait     time.Duration
	PollInterval time.Duration
}

func NewTakeover(table Table, log *zap.Logger) *Takeover {
	return &Takeover{
		table:        table,
		log:          log,
		ExitWait:     DefaultExitWait,
		PollInterval: 100 * time.Millisecond,
	}
}

// Run 盡力終止其他實例；單個進程失敗只記錄日誌
// 只有無法枚舉進程時才返回錯誤
func (t *Takeover) Run(ctx context.Context) (Result, error) {
	var res Result

	self, err := t.table.Self(ctx)
	if err != nil {
		return res, fmt.Errorf("無法讀取當前進程信息: %w", err)
	}

	all, err := t.table.List(ctx)
	if err != nil {
		return res, fmt.Errorf("無法枚舉進程: %w", err)
	}

	var siblings []Proc
	for _, p := range all {
		if p.PID != self.PID && sameName(p.Name, self.Name) {
			siblings = append(siblings, p)
		}
	}
	res.Found = len(siblings)

	if len(siblings) == 0 {
		t.log.Info("未發現其他實例，繼續正常啟動")
		return res, nil
	}

	t.log.Warn("發現其他正在運行的實例，立即終止", logger.Int("count", len(siblings)))

	for _, p := range siblings {
		fields := []zap.Field{zap.Int32("pid", p.PID)}
		if !p.Started.IsZero() {
			fields = append(fields, zap.Time("started_at", p.Started))
		}
		t.log.Info("正在終止進程", fields...)

		if err := t.terminate(ctx, p.PID); err != nil {
			res.Failed++
			t.log.Error("終止進程失敗", zap.Int32("pid", p.PID), zap.Error(err))
			continue
		}

		res.Terminated++
		t.log.Info("進程已終止", zap.Int32("pid", p.PID))
	}

	return res, nil
}

// terminate 結束進程並在 ExitWait 內等待其退出
func (t *Takeover) terminate(ctx context.Context, pid int32) error {
	if err := t.table.Kill(ctx, pid); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, t.ExitWait)
	defer cancel()

	ticker := time.NewTicker(t.PollInterval)
	defer ticker.Stop()

	for {
		alive, err := t.table.Alive(ctx, pid)
		if err == nil && !alive {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("等待進程 %d 退出超時 (%s)", pid, t.ExitWait)
		case <-ticker.C:
		}
	}
}

// sameName Windows 下進程名不區分大小寫
func sameName(a, b string) bool {
	return a != "" && strings.EqualFold(a, b)
}
