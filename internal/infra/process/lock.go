package process

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/Yat-Muk/svcwatch/internal/pkg/errors"
)

// InstanceLock 進程級排他鎖，實例接管後持有，退出時釋放
type InstanceLock struct {
	fl *flock.Flock
}

// AcquireLock 嘗試獲取鎖，wait 內每 25ms 重試一次
// 被殺死的舊實例釋放鎖需要一點時間，因此允許短暫等待
func AcquireLock(ctx context.Context, path string, wait time.Duration) (*InstanceLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("創建鎖目錄失敗: %w", err)
	}

	fl := flock.New(path)

	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	locked, err := fl.TryLockContext(ctx, 25*time.Millisecond)
	if err != nil && ctx.Err() == nil {
		return nil, fmt.Errorf("獲取實例鎖失敗: %w", err)
	}
	if !locked {
		return nil, errors.Wrap(errors.ErrLockedElsewhere, "SYS005", path)
	}

	return &InstanceLock{fl: fl}, nil
}

// Path 鎖文件路徑
func (l *InstanceLock) Path() string {
	return l.fl.Path()
}

// Release 釋放鎖
func (l *InstanceLock) Release() error {
	return l.fl.Unlock()
}
