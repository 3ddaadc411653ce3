package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestWrapFunction 測試Wrap函數
func TestWrapFunction(t *testing.T) {
	baseErr := errors.New("base error")

	t.Run("Wrap返回非nil", func(t *testing.T) {
		wrapped := Wrap(baseErr, "SVC001", "context")
		assert.Error(t, wrapped)
	})

	t.Run("Wrap保留原錯誤", func(t *testing.T) {
		wrapped := Wrap(baseErr, "SVC001", "context")
		assert.True(t, Is(wrapped, baseErr))
	})

	t.Run("Wrap nil創建新錯誤", func(t *testing.T) {
		wrapped := Wrap(nil, "SVC001", "context")
		assert.Error(t, wrapped)
		assert.Contains(t, wrapped.Error(), "SVC001")
	})
}

// TestSentinels 測試哨兵錯誤經過包裝後仍可識別
func TestSentinels(t *testing.T) {
	sentinels := []error{
		ErrConfigNotFound,
		ErrConfigParseFailed,
		ErrServiceNotFound,
		ErrWaitTimeout,
		ErrPermissionDenied,
		ErrUnsupportedPlatform,
		ErrCommandFailed,
		ErrLockedElsewhere,
	}

	for _, s := range sentinels {
		t.Run(s.Error(), func(t *testing.T) {
			coded := Wrap(s, "X", "wrapped")
			assert.True(t, errors.Is(coded, s))

			fmtWrapped := fmt.Errorf("outer: %w", coded)
			assert.True(t, errors.Is(fmtWrapped, s))
		})
	}
}

// TestErrorFormatting 測試錯誤格式
func TestErrorFormatting(t *testing.T) {
	t.Run("錯誤包含類型和消息", func(t *testing.T) {
		err := New("CFG001", "field is required")
		assert.Equal(t, "[CFG001] field is required", err.Error())
	})

	t.Run("包裝錯誤包含上下文", func(t *testing.T) {
		wrapped := Wrap(ErrWaitTimeout, "SVC003", "等待服務狀態")
		assert.Equal(t, "[SVC003] 等待服務狀態: timed out waiting for service status", wrapped.Error())
	})
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, "SVC002", CodeOf(fmt.Errorf("x: %w", Wrap(ErrServiceNotFound, "SVC002", "m"))))
	assert.Equal(t, "", CodeOf(errors.New("plain")))
	assert.Equal(t, "", CodeOf(nil))

	var e *Error
	assert.True(t, As(Wrap(nil, "A", "b"), &e))
	assert.Equal(t, "A", e.Code)
}
