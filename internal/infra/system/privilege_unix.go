//go:build unix

package system

import "golang.org/x/sys/unix"

// IsElevated 有效用戶為 root 即視為擁有管理員權限
func IsElevated() (bool, error) {
	return unix.Geteuid() == 0, nil
}
