package system

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Yat-Muk/svcwatch/internal/pkg/errors"
)

// Executor 命令執行器接口
type Executor interface {
	// Execute 執行命令
	Execute(ctx context.Context, name string, args ...string) (string, error)

	// ExecuteWithTimeout 帶超時的命令執行
	ExecuteWithTimeout(ctx context.Context, timeout time.Duration, name string, args ...string) (string, error)

	// IsAllowed 檢查命令是否在白名單中
	IsAllowed(name string) bool
}

// SafeExecutor 安全的命令執行器
type SafeExecutor struct {
	allowlist map[string]bool
	logger    *zap.Logger
}

// NewExecutor 創建命令執行器
func NewExecutor(logger *zap.Logger) Executor {
	return &SafeExecutor{
		allowlist: map[string]bool{
			// SysV / OpenRC / BSD rc 的統一入口
			"service": true,
			// 僅用於安裝看門狗自身的 unit
			"systemctl": true,
		},
		logger: logger,
	}
}

// Execute 執行命令
func (e *SafeExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	// 檢查命令是否在白名單中
	if !e.IsAllowed(name) {
		return "", errors.New("SYS001", fmt.Sprintf("命令 %q 不在白名單中", name))
	}

	cmd := exec.CommandContext(ctx, name, args...)

	e.logger.Debug("執行命令",
		zap.String("cmd", name),
		zap.Strings("args", args),
	)

	output, err := cmd.CombinedOutput()
	outputStr := strings.TrimSpace(string(output))

	if err != nil {
		// 非零退出碼對 service status 來說是正常結果，這裡只記 Debug
		e.logger.Debug("命令返回錯誤",
			zap.String("cmd", name),
			zap.Strings("args", args),
			zap.String("output", outputStr),
			zap.Error(err),
		)
		return outputStr, errors.Wrap(fmt.Errorf("%w: %w", errors.ErrCommandFailed, err), "SYS002", "命令執行失敗")
	}

	e.logger.Debug("命令執行成功",
		zap.String("cmd", name),
		zap.String("output", outputStr),
	)

	return outputStr, nil
}

// ExecuteWithTimeout 帶超時的命令執行
func (e *SafeExecutor) ExecuteWithTimeout(ctx context.Context, timeout time.Duration, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return e.Execute(ctx, name, args...)
}

// IsAllowed 檢查命令是否在白名單中
func (e *SafeExecutor) IsAllowed(name string) bool {
	return e.allowlist[name]
}

// ExitCode 從執行錯誤中提取退出碼，非退出類錯誤返回 -1
func ExitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
