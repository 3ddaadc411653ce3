//go:build windows

package system

import (
	"context"

	"go.uber.org/zap"
)

// NewServiceController Windows 下使用服務控制管理器
func NewServiceController(ctx context.Context, log *zap.Logger) (ServiceController, error) {
	return NewSCMController(log)
}
