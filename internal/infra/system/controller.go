package system

import (
	"context"
	"fmt"
	"time"

	"github.com/Yat-Muk/svcwatch/internal/pkg/errors"
)

// ServiceState 服務狀態的歸一化表示
type ServiceState int

const (
	StateUnknown ServiceState = iota
	StateStopped
	StateRunning
	// StateTransitional 啟動中、停止中、重載中等過渡狀態
	StateTransitional
)

func (s ServiceState) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateRunning:
		return "Running"
	case StateTransitional:
		return "Transitional"
	default:
		return "Unknown"
	}
}

// ServiceStatus 服務狀態快照
type ServiceStatus struct {
	Name  string
	State ServiceState
	// Detail 後端原始狀態，例如 "activating/start" 或 "START_PENDING"
	Detail string
}

// ServiceController 操作系統服務控制接口
// 服務不存在時各方法返回包裝了 ErrServiceNotFound 的錯誤
type ServiceController interface {
	// Backend 後端名稱，用於日誌
	Backend() string
	Status(ctx context.Context, service string) (*ServiceStatus, error)
	// Start 發出啟動請求，不保證返回時已處於 Running
	Start(ctx context.Context, service string) error
	// Stop 發出停止請求，不保證返回時已處於 Stopped
	Stop(ctx context.Context, service string) error
	Close()
}

// PollInterval 等待服務狀態時的輪詢間隔
var PollInterval = 250 * time.Millisecond

// WaitForState 輪詢直到服務進入目標狀態或超時
// 超時返回包裝了 ErrWaitTimeout 的錯誤，不做重試
func WaitForState(ctx context.Context, ctrl ServiceController, service string, want ServiceState, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	last := StateUnknown
	for {
		status, err := ctrl.Status(ctx, service)
		if err != nil {
			if ctx.Err() != nil {
				return waitError(ctx, service, want, last, timeout)
			}
			return err
		}
		if status.State == want {
			return nil
		}
		last = status.State

		select {
		case <-ctx.Done():
			return waitError(ctx, service, want, last, timeout)
		case <-ticker.C:
		}
	}
}

// waitError 區分超時與調用方取消
func waitError(ctx context.Context, service string, want, last ServiceState, timeout time.Duration) error {
	if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ctx.Err()
	}
	return errors.Wrap(errors.ErrWaitTimeout, "SVC003",
		fmt.Sprintf("服務 %s 在 %s 內未進入 %s（最後狀態 %s）", service, timeout, want, last))
}

// notFound 構造服務不存在錯誤
func notFound(service string) error {
	return errors.Wrap(errors.ErrServiceNotFound, "SVC002", fmt.Sprintf("服務 %q 不存在", service))
}

// jobInterrupted 請求在 ctx 結束前未完成；截止時間到期視為等待超時
func jobInterrupted(ctx context.Context, service, action string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.Wrap(errors.ErrWaitTimeout, "SVC003", fmt.Sprintf("%s服務 %s 的任務未在時限內完成", action, service))
	}
	return fmt.Errorf("%s服務被取消: %w", action, ctx.Err())
}
