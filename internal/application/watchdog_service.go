package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Yat-Muk/svcwatch/internal/infra/system"
	"github.com/Yat-Muk/svcwatch/internal/pkg/errors"
	"github.com/Yat-Muk/svcwatch/internal/pkg/logger"
)

// Outcome 一次檢查的結果
type Outcome int

const (
	OutcomeNoAction Outcome = iota
	OutcomeStarted
	OutcomeRestarted
	OutcomeNotFound
	OutcomeTransitional
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoAction:
		return "no action"
	case OutcomeStarted:
		return "started"
	case OutcomeRestarted:
		return "restarted"
	case OutcomeNotFound:
		return "not found"
	case OutcomeTransitional:
		return "transitional"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// WatchdogService 檢查並啟動/重啟目標服務
// 所有錯誤只記錄日誌並放棄本輪操作，不做重試
type WatchdogService struct {
	ctrl          system.ServiceController
	log           *zap.Logger
	startTimeout  time.Duration
	manageTimeout time.Duration
}

func NewWatchdogService(
	ctrl system.ServiceController,
	log *zap.Logger,
	startTimeout time.Duration,
	manageTimeout time.Duration,
) *WatchdogService {
	return &WatchdogService{
		ctrl:          ctrl,
		log:           log,
		startTimeout:  startTimeout,
		manageTimeout: manageTimeout,
	}
}

// CheckAndStart 標準模式：服務已停止則啟動，其餘狀態不處理
func (s *WatchdogService) CheckAndStart(ctx context.Context, service string) Outcome {
	log := s.checkLogger(service, "standard")
	log.Info("開始檢查服務狀態")

	status, err := s.ctrl.Status(ctx, service)
	if err != nil {
		return s.fail(log, "查詢服務狀態失敗", err)
	}
	log.Info("服務當前狀態", zap.Stringer("state", status.State), zap.String("detail", status.Detail))

	if status.State != system.StateStopped {
		log.Info("服務無需處理")
		return OutcomeNoAction
	}

	if err := s.start(ctx, log, service, s.startTimeout); err != nil {
		return s.fail(log, "啟動服務失敗", err)
	}
	return OutcomeStarted
}

// Manage 定時模式：運行中則重啟，已停止則啟動，過渡狀態只記錄
func (s *WatchdogService) Manage(ctx context.Context, service string) Outcome {
	log := s.checkLogger(service, "timed")
	log.Info("開始定時檢查服務")

	status, err := s.ctrl.Status(ctx, service)
	if err != nil {
		return s.fail(log, "查詢服務狀態失敗", err)
	}
	log.Info("服務當前狀態", zap.Stringer("state", status.State), zap.String("detail", status.Detail))

	switch status.State {
	case system.StateRunning:
		// 1. 停止
		log.Info("正在停止服務...")
		if err := s.transition(ctx, service, s.ctrl.Stop, system.StateStopped, s.manageTimeout); err != nil {
			return s.fail(log, "停止服務失敗", err)
		}
		log.Info("服務已停止")

		// 2. 重新啟動
		if err := s.start(ctx, log, service, s.manageTimeout); err != nil {
			return s.fail(log, "重新啟動服務失敗", err)
		}
		log.Info("✅ 服務已重啟")
		return OutcomeRestarted

	case system.StateStopped:
		if err := s.start(ctx, log, service, s.manageTimeout); err != nil {
			return s.fail(log, "啟動服務失敗", err)
		}
		return OutcomeStarted

	default:
		log.Warn("服務處於過渡狀態，本輪不處理", zap.String("detail", status.Detail))
		return OutcomeTransitional
	}
}

func (s *WatchdogService) start(ctx context.Context, log *zap.Logger, service string, timeout time.Duration) error {
	log.Info("正在啟動服務...")
	if err := s.transition(ctx, service, s.ctrl.Start, system.StateRunning, timeout); err != nil {
		return err
	}
	log.Info("✅ 服務已啟動")
	return nil
}

// transition 發出請求並等待目標狀態，請求與等待共用同一個 timeout
// 後端阻塞在任務結果上時也在 timeout 後返回
func (s *WatchdogService) transition(
	ctx context.Context,
	service string,
	request func(ctx context.Context, service string) error,
	want system.ServiceState,
	timeout time.Duration,
) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- request(ctx, service) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, errors.ErrWaitTimeout) {
			return errors.Wrap(errors.ErrWaitTimeout, "SVC003",
				fmt.Sprintf("服務 %s 在 %s 內未進入 %s（請求未完成: %v）", service, timeout, want, err))
		}
		return err
	}

	return system.WaitForState(ctx, s.ctrl, service, want, timeout)
}

// fail 按錯誤類型記錄並轉換為 Outcome
func (s *WatchdogService) fail(log *zap.Logger, msg string, err error) Outcome {
	switch {
	case errors.Is(err, errors.ErrServiceNotFound):
		log.Error("服務不存在", zap.Error(err))
		return OutcomeNotFound
	case errors.Is(err, errors.ErrWaitTimeout):
		log.Error("等待服務狀態超時", zap.Error(err))
	default:
		log.Error(msg, zap.Error(err), zap.String("code", errors.CodeOf(err)))
	}
	return OutcomeFailed
}

func (s *WatchdogService) checkLogger(service, mode string) *zap.Logger {
	return s.log.With(
		logger.Service(service),
		zap.String("mode", mode),
		zap.String("backend", s.ctrl.Backend()),
		zap.String("check_id", uuid.NewString()),
	)
}
