//go:build !unix && !windows

package system

import "github.com/Yat-Muk/svcwatch/internal/pkg/errors"

func IsElevated() (bool, error) {
	return false, errors.Wrap(errors.ErrUnsupportedPlatform, "SYS004", "無法判斷管理員權限")
}
