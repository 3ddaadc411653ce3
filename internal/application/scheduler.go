package application

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Yat-Muk/svcwatch/internal/domain/settings"
	"github.com/Yat-Muk/svcwatch/internal/pkg/logger"
)

// Scheduler 定時模式的調度器
// 先同步執行一次檢查，然後按 Interval 觸發，直到 RunFor 到期或 ctx 被取消
type Scheduler struct {
	Interval time.Duration
	RunFor   time.Duration
	Policy   settings.OverlapPolicy
	// DrainTimeout 退出時等待進行中檢查的上限
	DrainTimeout time.Duration
	Check        func(ctx context.Context)
	Log          *zap.Logger

	busy     atomic.Bool
	inflight sync.WaitGroup
	skipped  atomic.Int64
}

// Skipped 因重疊被丟棄的觸發次數
func (s *Scheduler) Skipped() int64 {
	return s.skipped.Load()
}

// Run 阻塞直到運行時長到期（返回 nil）或 ctx 被取消（返回 ctx.Err()）
func (s *Scheduler) Run(ctx context.Context) error {
	if s.Interval <= 0 || s.RunFor <= 0 {
		return fmt.Errorf("無效的調度參數: interval=%s, runFor=%s", s.Interval, s.RunFor)
	}

	deadline := time.Now().Add(s.RunFor)
	runCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	s.Log.Info("定時模式已啟動",
		logger.Duration("interval", s.Interval),
		logger.Duration("run_for", s.RunFor),
		zap.Time("shutdown_at", deadline),
		zap.String("overlap_policy", string(s.Policy)),
	)

	// 1. 先啟動周期計時，後續觸發時間不受初始檢查耗時影響
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// 2. 初始檢查
	s.busy.Store(true)
	s.inflight.Add(1)
	s.invoke(runCtx)

loop:
	for {
		select {
		case <-runCtx.Done():
			break loop
		case <-ticker.C:
			s.dispatch(runCtx)
		}
	}

	// 3. 等待進行中的檢查
	ticker.Stop()
	s.drain()

	if ctx.Err() != nil {
		s.Log.Info("收到退出信號，定時模式結束")
		return ctx.Err()
	}
	s.Log.Info("已達到運行時長，定時模式結束", logger.Duration("run_for", s.RunFor))
	return nil
}

func (s *Scheduler) dispatch(ctx context.Context) {
	if s.Policy != settings.OverlapAllow {
		if !s.busy.CompareAndSwap(false, true) {
			s.skipped.Add(1)
			s.Log.Warn("上一輪檢查尚未完成，跳過本次觸發")
			return
		}
	}

	s.inflight.Add(1)
	go s.invoke(ctx)
}

// invoke 執行一次檢查
// 使用脫離取消的 ctx，避免重啟進行到一半時服務被停在 Stopped
func (s *Scheduler) invoke(ctx context.Context) {
	defer s.inflight.Done()
	defer s.busy.Store(false)
	defer func() {
		if r := recover(); r != nil {
			s.Log.Error("檢查過程發生 panic",
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())),
			)
		}
	}()

	s.Check(context.WithoutCancel(ctx))
}

func (s *Scheduler) drain() {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	if s.DrainTimeout <= 0 {
		<-done
		return
	}

	select {
	case <-done:
	case <-time.After(s.DrainTimeout):
		s.Log.Warn("等待進行中的檢查超時，直接退出", zap.Duration("timeout", s.DrainTimeout))
	}
}
