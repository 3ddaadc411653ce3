package application

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Yat-Muk/svcwatch/internal/domain/settings"
)

func TestScheduler_StopsAtDeadlineNotBefore(t *testing.T) {
	var runs atomic.Int32
	s := &Scheduler{
		Interval: 20 * time.Millisecond,
		RunFor:   150 * time.Millisecond,
		Policy:   settings.OverlapSkip,
		Check:    func(context.Context) { runs.Add(1) },
		Log:      zap.NewNop(),
	}

	start := time.Now()
	err := s.Run(context.Background())
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed, 150*time.Millisecond)
	// 初始檢查 + 若干周期檢查
	assert.Greater(t, runs.Load(), int32(1))
}

func TestScheduler_InitialCheckRunsFirst(t *testing.T) {
	var runs atomic.Int32
	s := &Scheduler{
		Interval: time.Hour,
		RunFor:   30 * time.Millisecond,
		Check:    func(context.Context) { runs.Add(1) },
		Log:      zap.NewNop(),
	}

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, int32(1), runs.Load())
}

func TestScheduler_CancelledByCaller(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		Interval: 10 * time.Millisecond,
		RunFor:   time.Hour,
		Check:    func(context.Context) {},
		Log:      zap.NewNop(),
	}

	time.AfterFunc(30*time.Millisecond, cancel)
	err := s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScheduler_SkipPolicyDropsOverlappingTicks(t *testing.T) {
	var active, maxActive, runs atomic.Int32
	s := &Scheduler{
		Interval:     5 * time.Millisecond,
		RunFor:       120 * time.Millisecond,
		Policy:       settings.OverlapSkip,
		DrainTimeout: time.Second,
		Log:          zap.NewNop(),
	}
	s.Check = func(context.Context) {
		n := active.Add(1)
		defer active.Add(-1)
		for {
			m := maxActive.Load()
			if n <= m || maxActive.CompareAndSwap(m, n) {
				break
			}
		}
		runs.Add(1)
		time.Sleep(40 * time.Millisecond)
	}

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, int32(1), maxActive.Load())
	assert.Positive(t, s.Skipped())
	assert.Equal(t, int32(0), active.Load(), "退出前應等待進行中的檢查")
}

func TestScheduler_OverlapPolicyRunsConcurrently(t *testing.T) {
	var active, maxActive atomic.Int32
	s := &Scheduler{
		Interval:     5 * time.Millisecond,
		RunFor:       120 * time.Millisecond,
		Policy:       settings.OverlapAllow,
		DrainTimeout: time.Second,
		Log:          zap.NewNop(),
	}
	s.Check = func(context.Context) {
		n := active.Add(1)
		defer active.Add(-1)
		for {
			m := maxActive.Load()
			if n <= m || maxActive.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(40 * time.Millisecond)
	}

	require.NoError(t, s.Run(context.Background()))
	assert.Greater(t, maxActive.Load(), int32(1))
	assert.Zero(t, s.Skipped())
}

func TestScheduler_CheckContextSurvivesShutdown(t *testing.T) {
	checkErr := make(chan error, 1)
	s := &Scheduler{
		Interval: time.Hour,
		RunFor:   10 * time.Millisecond,
		Log:      zap.NewNop(),
	}
	s.Check = func(ctx context.Context) {
		time.Sleep(30 * time.Millisecond)
		checkErr <- ctx.Err()
	}

	require.NoError(t, s.Run(context.Background()))
	assert.NoError(t, <-checkErr)
}

func TestScheduler_RecoversPanic(t *testing.T) {
	var runs atomic.Int32
	s := &Scheduler{
		Interval: 10 * time.Millisecond,
		RunFor:   60 * time.Millisecond,
		Log:      zap.NewNop(),
	}
	s.Check = func(context.Context) {
		runs.Add(1)
		panic("boom")
	}

	require.NotPanics(t, func() {
		require.NoError(t, s.Run(context.Background()))
	})
	assert.Greater(t, runs.Load(), int32(1), "panic 後調度應繼續")
}

func TestScheduler_InvalidParameters(t *testing.T) {
	s := &Scheduler{Interval: 0, RunFor: time.Second, Log: zap.NewNop()}
	assert.Error(t, s.Run(context.Background()))
}

func TestScheduler_TicksAnchoredAtStartup(t *testing.T) {
	var (
		mu     sync.Mutex
		starts []time.Duration
	)
	t0 := time.Now()

	s := &Scheduler{
		Interval:     100 * time.Millisecond,
		RunFor:       400 * time.Millisecond,
		Policy:       settings.OverlapSkip,
		DrainTimeout: time.Second,
		Log:          zap.NewNop(),
	}
	s.Check = func(context.Context) {
		mu.Lock()
		first := len(starts) == 0
		starts = append(starts, time.Since(t0))
		mu.Unlock()
		if first {
			// 初始檢查耗時超過一個間隔
			time.Sleep(250 * time.Millisecond)
		}
	}

	require.NoError(t, s.Run(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(starts), 2)
	// 計時從啟動開始，初始檢查結束後立即補上已到期的觸發，而不是再等一個完整間隔
	assert.Less(t, starts[1], 320*time.Millisecond)
}
