//go:build windows

package system

import "golang.org/x/sys/windows"

// IsElevated 檢查當前進程令牌是否已提升（以管理員身份運行）
func IsElevated() (bool, error) {
	token := windows.GetCurrentProcessToken()
	return token.IsElevated(), nil
}
