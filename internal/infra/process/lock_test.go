package process

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yat-Muk/svcwatch/internal/pkg/errors"
)

func TestAcquireLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "svcwatch.lock")

	lock, err := AcquireLock(context.Background(), path, time.Second)
	require.NoError(t, err)
	assert.Equal(t, path, lock.Path())
	assert.FileExists(t, path)

	require.NoError(t, lock.Release())
}

func TestAcquireLock_SecondHolderRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "svcwatch.lock")

	first, err := AcquireLock(context.Background(), path, time.Second)
	require.NoError(t, err)
	defer first.Release()

	_, err = AcquireLock(context.Background(), path, 100*time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrLockedElsewhere))
	assert.Equal(t, "SYS005", errors.CodeOf(err))
}

func TestAcquireLock_AfterRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "svcwatch.lock")

	first, err := AcquireLock(context.Background(), path, time.Second)
	require.NoError(t, err)

	// 模擬舊實例稍後退出
	go func() {
		time.Sleep(50 * time.Millisecond)
		first.Release()
	}()

	second, err := AcquireLock(context.Background(), path, 2*time.Second)
	require.NoError(t, err)
	require.NoError(t, second.Release())
}
