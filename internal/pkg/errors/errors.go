package errors

import (
	"errors"
	"fmt"
)

// 預定義錯誤類型
var (
	// 配置相關
	ErrConfigNotFound    = errors.New("configuration file not found")
	ErrConfigParseFailed = errors.New("failed to parse configuration")

	// 服務相關
	ErrServiceNotFound = errors.New("service not found")
	ErrWaitTimeout     = errors.New("timed out waiting for service status")

	// 系統相關
	ErrPermissionDenied    = errors.New("permission denied")
	ErrUnsupportedPlatform = errors.New("operation not supported on this platform")
	ErrCommandFailed       = errors.New("command execution failed")
	ErrLockedElsewhere     = errors.New("instance lock held by another process")
	ErrUnitConflict        = errors.New("another watchdog unit is installed")
)

// Error 自定義錯誤類型
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New 創建新錯誤
func New(code, message string) error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap 包裝錯誤
func Wrap(err error, code, message string) error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Is 轉發到標準庫，方便調用方只導入本包
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As 轉發到標準庫
func As(err error, target any) bool {
	return errors.As(err, target)
}

// CodeOf 返回錯誤鏈中第一個 *Error 的錯誤碼，沒有則返回空字符串
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
