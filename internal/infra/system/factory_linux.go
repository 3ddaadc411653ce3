//go:build linux

package system

import (
	"context"
	"os/exec"

	"go.uber.org/zap"
)

// NewServiceController 優先使用 systemd，DBus 不可用時回退到 service 命令
func NewServiceController(ctx context.Context, log *zap.Logger) (ServiceController, error) {
	ctrl, err := NewSystemdController(ctx, log)
	if err == nil {
		return ctrl, nil
	}

	if _, lookErr := exec.LookPath("service"); lookErr != nil {
		return nil, err
	}

	log.Warn("Systemd 不可用，回退到 service 命令", zap.Error(err))
	return NewSysVController(NewExecutor(log), log), nil
}
