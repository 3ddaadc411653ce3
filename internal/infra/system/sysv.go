package system

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// 單次 service 調用的上限；調用方的 ctx 截止時間更早時以 ctx 為準
const sysvCommandTimeout = 90 * time.Second

// LSB init 腳本 status 動作的退出碼
const (
	lsbRunning        = 0
	lsbDeadPIDExists  = 1
	lsbDeadLockExists = 2
	lsbNotRunning     = 3
	lsbUnknown        = 4
)

// sysvController 通過 `service <name> <action>` 控制服務
// 用於沒有 systemd 的 Linux 或 BSD 系統
type sysvController struct {
	exec Executor
	log  *zap.Logger
}

// NewSysVController 創建基於 service 命令的控制器
func NewSysVController(exec Executor, log *zap.Logger) ServiceController {
	return &sysvController{exec: exec, log: log}
}

func (c *sysvController) Backend() string {
	return "sysv"
}

func (c *sysvController) Close() {}

func (c *sysvController) Status(ctx context.Context, service string) (*ServiceStatus, error) {
	out, err := c.exec.ExecuteWithTimeout(ctx, sysvCommandTimeout, "service", service, "status")
	if err == nil {
		return &ServiceStatus{Name: service, State: StateRunning, Detail: "status=0"}, nil
	}

	if unrecognized(out) {
		return nil, notFound(service)
	}

	code := ExitCode(err)
	switch code {
	case lsbDeadPIDExists, lsbDeadLockExists, lsbNotRunning:
		return &ServiceStatus{Name: service, State: StateStopped, Detail: fmt.Sprintf("status=%d", code)}, nil
	case lsbUnknown:
		return nil, notFound(service)
	case -1:
		return nil, fmt.Errorf("查詢服務狀態失敗: %w", err)
	default:
		// 150-199 為腳本自定義狀態，統一視為過渡狀態
		return &ServiceStatus{Name: service, State: StateTransitional, Detail: fmt.Sprintf("status=%d", code)}, nil
	}
}

func (c *sysvController) Start(ctx context.Context, service string) error {
	return c.run(ctx, service, "start")
}

func (c *sysvController) Stop(ctx context.Context, service string) error {
	return c.run(ctx, service, "stop")
}

func (c *sysvController) run(ctx context.Context, service, action string) error {
	out, err := c.exec.ExecuteWithTimeout(ctx, sysvCommandTimeout, "service", service, action)
	if err == nil {
		return nil
	}
	if unrecognized(out) {
		return notFound(service)
	}
	if ctx.Err() != nil {
		return jobInterrupted(ctx, service, action)
	}
	c.log.Debug("service 命令輸出", zap.String("action", action), zap.String("output", out))
	return fmt.Errorf("service %s %s 失敗: %w", service, action, err)
}

// unrecognized 判斷輸出是否表示服務不存在（Debian / RHEL / FreeBSD 的常見措辭）
func unrecognized(out string) bool {
	lower := strings.ToLower(out)
	return strings.Contains(lower, "unrecognized service") ||
		strings.Contains(lower, "could not be found") ||
		strings.Contains(lower, "does not exist")
}
