package system

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/Yat-Muk/svcwatch/internal/pkg/errors"
)

// UnitDir systemd 系統級 unit 目錄
const UnitDir = "/etc/systemd/system"

// UnitName 看門狗自身的 unit 名
// 實例接管會結束所有同名進程，因此整台機器只允許一個看門狗 unit
const UnitName = "svcwatch.service"

// 定時模式運行 AppRunDurationHours 後自行退出，由 Restart=always 拉起下一輪
const unitTemplate = `[Unit]
Description=svcwatch watchdog for {{.Service}}
After=network.target {{.Target}}

[Service]
Type=notify
NotifyAccess=main
ExecStart={{.BinPath}}{{if .ConfigPath}} --config {{.ConfigPath}}{{end}} {{.Service}} -timed
Restart=always
RestartSec=10s
User=root
Group=root

[Install]
WantedBy=multi-user.target
`

// UnitInstaller 為看門狗生成並啟用 systemd unit
type UnitInstaller struct {
	BinPath    string
	ConfigPath string
	Service    string

	exec Executor
	log  *zap.Logger
}

func NewUnitInstaller(binPath, configPath, service string, exec Executor, log *zap.Logger) *UnitInstaller {
	return &UnitInstaller{
		BinPath:    binPath,
		ConfigPath: configPath,
		Service:    service,
		exec:       exec,
		log:        log,
	}
}

// Target 被監控服務的 unit 名
func (u *UnitInstaller) Target() string {
	return ensureSuffix(u.Service)
}

// UnitName 看門狗自身的 unit 名
func (u *UnitInstaller) UnitName() string {
	return UnitName
}

// checkConflicts 已有看門狗 unit 監控其他服務時拒絕安裝
// 兩個 unit 啟動時會互相接管，在 Restart=always 下無限循環
func (u *UnitInstaller) checkConflicts(dir string) error {
	legacy, err := filepath.Glob(filepath.Join(dir, "svcwatch-*.service"))
	if err != nil {
		return err
	}
	if len(legacy) > 0 {
		return errors.Wrap(errors.ErrUnitConflict, "SYS007",
			fmt.Sprintf("已存在其他看門狗 unit: %s", strings.Join(legacy, ", ")))
	}

	data, err := os.ReadFile(filepath.Join(dir, UnitName))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("讀取現有 unit 失敗: %w", err)
	}

	watched := watchedService(string(data))
	if watched != "" && watched != u.Service {
		return errors.Wrap(errors.ErrUnitConflict, "SYS007",
			fmt.Sprintf("%s 已監控服務 %s，請先停用後再安裝", UnitName, watched))
	}
	return nil
}

// watchedService 從 ExecStart 行取出被監控的服務名（-timed 之前的參數）
func watchedService(unit string) string {
	for _, line := range strings.Split(unit, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "ExecStart=") {
			continue
		}
		fields := strings.Fields(strings.TrimPrefix(line, "ExecStart="))
		for i := len(fields) - 1; i > 0; i-- {
			if fields[i] == "-timed" {
				return fields[i-1]
			}
		}
	}
	return ""
}

// Render 輸出 unit 文件內容
func (u *UnitInstaller) Render(w io.Writer) error {
	if u.Service == "" {
		return errors.New("SYS006", "未指定被監控的服務")
	}
	tmpl, err := template.New("unit").Parse(unitTemplate)
	if err != nil {
		return err
	}
	return tmpl.Execute(w, u)
}

// Install 寫入 dir 下的 unit 文件，然後 daemon-reload 並啟用
func (u *UnitInstaller) Install(ctx context.Context, dir string) (string, error) {
	if runtime.GOOS != "linux" {
		return "", errors.Wrap(errors.ErrUnsupportedPlatform, "SYS004", "僅支持 systemd")
	}

	// 1. 衝突檢查
	if err := u.checkConflicts(dir); err != nil {
		return "", err
	}

	path := filepath.Join(dir, u.UnitName())

	// 2. 寫入 unit 文件
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("無法創建服務文件: %w", err)
	}
	if err := u.Render(f); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("寫入服務文件失敗: %w", err)
	}
	u.log.Info("已寫入 unit 文件", zap.String("path", path))

	// 3. 重載 Systemd
	if _, err := u.exec.Execute(ctx, "systemctl", "daemon-reload"); err != nil {
		return path, fmt.Errorf("daemon-reload 失敗: %w", err)
	}

	// 4. 啟用服務
	if _, err := u.exec.Execute(ctx, "systemctl", "enable", u.UnitName()); err != nil {
		return path, fmt.Errorf("啟用服務失敗: %w", err)
	}

	u.log.Info("✅ 看門狗 unit 已啟用", zap.String("unit", u.UnitName()))
	return path, nil
}

// ensureSuffix 確保服務名以 .service 結尾，已帶擴展名（如 .socket）的保持不變
func ensureSuffix(service string) string {
	if !strings.Contains(service, ".") {
		return service + ".service"
	}
	return service
}
