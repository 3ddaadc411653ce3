//go:build !linux && !windows

package system

import (
	"context"
	"os/exec"

	"go.uber.org/zap"

	"github.com/Yat-Muk/svcwatch/internal/pkg/errors"
)

// NewServiceController 其他類 Unix 系統使用 service 命令
func NewServiceController(ctx context.Context, log *zap.Logger) (ServiceController, error) {
	if _, err := exec.LookPath("service"); err != nil {
		return nil, errors.Wrap(errors.ErrUnsupportedPlatform, "SYS003", "未找到 service 命令")
	}
	return NewSysVController(NewExecutor(log), log), nil
}
