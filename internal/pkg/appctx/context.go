package appctx

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Yat-Muk/svcwatch/internal/pkg/errors"
)

// SettingsFileNames 按優先級排列的配置文件名
var SettingsFileNames = []string{
	"appsettings.json",
	"appsettings.yaml",
	"appsettings.yml",
}

// LockFileName 實例鎖文件名，位於日誌目錄下
const LockFileName = "svcwatch.lock"

// Paths 定義應用程序所有的關鍵路徑
type Paths struct {
	// BaseDir 可執行文件所在目錄，配置文件默認放在這裡
	BaseDir string
}

// NewPaths baseDir 為空時使用可執行文件所在目錄
func NewPaths(baseDir string) (*Paths, error) {
	if baseDir == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("無法獲取可執行文件路徑: %w", err)
		}
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		baseDir = filepath.Dir(exe)
	}

	absPath, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("無法解析絕對路徑: %w", err)
	}

	return &Paths{BaseDir: absPath}, nil
}

// FindSettingsFile 查找配置文件
// override 非空時只認這個路徑（相對路徑以當前工作目錄為準）
func (p *Paths) FindSettingsFile(override string) (string, error) {
	if override != "" {
		abs, err := filepath.Abs(override)
		if err != nil {
			return "", fmt.Errorf("無法解析配置文件路徑: %w", err)
		}
		if _, err := os.Stat(abs); err != nil {
			return "", errors.Wrap(errors.ErrConfigNotFound, "CFG001", abs)
		}
		return abs, nil
	}

	for _, name := range SettingsFileNames {
		candidate := filepath.Join(p.BaseDir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", errors.Wrap(errors.ErrConfigNotFound, "CFG001", filepath.Join(p.BaseDir, SettingsFileNames[0]))
}

// ResolveLogDir 把配置中的日誌目錄解析為絕對路徑並確保存在
// 相對路徑以 BaseDir 為基準，避免計劃任務從 system32 等目錄啟動時寫錯位置
func (p *Paths) ResolveLogDir(logFolder string) (string, error) {
	dir := logFolder
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(p.BaseDir, dir)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("無法創建日誌目錄 %s: %w", dir, err)
	}
	return dir, nil
}

// LockFile 實例鎖文件路徑
func LockFile(logDir string) string {
	return filepath.Join(logDir, LockFileName)
}
