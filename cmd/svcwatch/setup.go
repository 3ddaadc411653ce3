package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Yat-Muk/svcwatch/internal/application"
	"github.com/Yat-Muk/svcwatch/internal/domain/settings"
	infraConfig "github.com/Yat-Muk/svcwatch/internal/infra/config"
	"github.com/Yat-Muk/svcwatch/internal/infra/process"
	infraSystem "github.com/Yat-Muk/svcwatch/internal/infra/system"
	"github.com/Yat-Muk/svcwatch/internal/pkg/appctx"
	"github.com/Yat-Muk/svcwatch/internal/pkg/errors"
	"github.com/Yat-Muk/svcwatch/internal/pkg/logger"
	"github.com/Yat-Muk/svcwatch/internal/pkg/version"
)

const (
	lockWait = 5 * time.Second
	// drainSlack 在兩次 ManageTimeout 之外額外給進行中檢查的時間
	drainSlack = 10 * time.Second
	banner     = "=================================================="
)

// options 命令行解析結果
type options struct {
	ConfigPath string
	LogLevel   string
	Timed      bool
	Service    string
	Extra      []string

	// InstallUnit 安裝 systemd unit 後退出，不檢查服務
	InstallUnit bool

	// BaseDir 為空時使用可執行文件目錄
	BaseDir string
}

// hooks 與操作系統交互的入口，測試中替換
type hooks struct {
	processTable  process.Table
	isElevated    func() (bool, error)
	newController func(ctx context.Context, log *zap.Logger) (infraSystem.ServiceController, error)
	newNotifier   func(log *zap.Logger) infraSystem.Notifier
	newExecutor   func(log *zap.Logger) infraSystem.Executor
	unitDir       string
}

func defaultHooks() hooks {
	return hooks{
		processTable:  process.NewSystemTable(),
		isElevated:    infraSystem.IsElevated,
		newController: infraSystem.NewServiceController,
		newNotifier:   infraSystem.NewNotifier,
		newExecutor:   infraSystem.NewExecutor,
		unitDir:       infraSystem.UnitDir,
	}
}

type AppDependencies struct {
	Log        *zap.Logger
	Settings   *settings.Settings
	Controller infraSystem.ServiceController
	Watchdog   *application.WatchdogService
	Notifier   infraSystem.Notifier
}

func (d *AppDependencies) Close() {
	if d.Controller != nil {
		d.Controller.Close()
	}
}

// run 返回錯誤時進程以 1 退出；無參數、權限不足和服務操作失敗都以 0 退出
func run(ctx context.Context, opts options, h hooks) (err error) {
	// 1. 路徑與配置
	paths, err := appctx.NewPaths(opts.BaseDir)
	if err != nil {
		return fmt.Errorf("無法初始化路徑: %w", err)
	}

	boot := logger.NewBootstrap()
	defer boot.Sync()

	cfg, settingsFile, err := loadSettings(ctx, paths, opts, boot)
	if err != nil {
		return err
	}

	// 2. 日誌
	logDir, err := paths.ResolveLogDir(cfg.LogFolderPath)
	if err != nil {
		boot.Error("日誌目錄不可用", zap.Error(err))
		return err
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	logCfg.Dir = logDir

	log, err := logger.New(logCfg)
	if err != nil {
		boot.Error("日誌初始化失敗", zap.Error(err), zap.String("level", cfg.LogLevel))
		return fmt.Errorf("日誌初始化失敗: %w", err)
	}

	log.Info(banner)
	log.Info("svcwatch 正在啟動",
		zap.String("version", version.Short()),
		zap.String("base_dir", paths.BaseDir),
		zap.String("log_dir", logDir),
		zap.Bool("timed", opts.Timed),
	)

	defer func() {
		if r := recover(); r != nil {
			log.Error("程序發生未處理的異常",
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("panic: %v", r)
		}
		log.Info("svcwatch 已退出")
		log.Info(banner)
		_ = log.Sync()
	}()

	// 3. 安裝 unit 不接管運行中的看門狗
	if opts.InstallUnit {
		if !preflight(log, h, opts) {
			return nil
		}
		return installUnit(ctx, log, h, settingsFile, opts.Service)
	}

	// 4. 單實例
	if _, terr := process.NewTakeover(h.processTable, log.Named("takeover")).Run(ctx); terr != nil {
		log.Warn("實例接管未完成", logger.Error(terr))
	}

	lock, lerr := process.AcquireLock(ctx, appctx.LockFile(logDir), lockWait)
	if lerr != nil {
		log.Warn("無法獲取實例鎖，繼續運行", logger.Error(lerr))
	} else {
		defer lock.Release()
	}

	// 5. 參數與權限檢查
	if !preflight(log, h, opts) {
		return nil
	}

	// 6. 依賴注入
	deps, err := initializeDependencies(ctx, log, cfg, h)
	if err != nil {
		log.Error("依賴初始化失敗", zap.Error(err))
		return err
	}
	defer deps.Close()

	// 7. 模式分發
	if opts.Timed {
		return runTimed(ctx, deps, opts.Service)
	}
	return runStandard(ctx, deps, opts.Service)
}

func loadSettings(ctx context.Context, paths *appctx.Paths, opts options, boot *zap.Logger) (*settings.Settings, string, error) {
	file, err := paths.FindSettingsFile(opts.ConfigPath)
	if err != nil {
		boot.Error("找不到配置文件", zap.Error(err), zap.Strings("candidates", appctx.SettingsFileNames))
		return nil, "", err
	}

	cfg, err := infraConfig.NewFileRepository(file, boot).Load(ctx)
	if err != nil {
		boot.Error("加載配置失敗", zap.Error(err), zap.String("path", file))
		return nil, "", err
	}

	if opts.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(opts.LogLevel)
	}
	return cfg, file, nil
}

// installUnit 安裝失敗屬於致命錯誤，以非零碼退出
// preflight 檢查服務名與管理員權限，不滿足時記錄原因並返回 false
func preflight(log *zap.Logger, h hooks, opts options) bool {
	if opts.Service == "" {
		log.Warn("未提供服務名稱，用法: svcwatch <serviceName> [-timed]")
		return false
	}
	if len(opts.Extra) > 0 {
		log.Warn("忽略多餘的參數", zap.Strings("args", opts.Extra))
	}

	elevated, err := h.isElevated()
	if err != nil {
		log.Error("管理員權限檢查失敗", zap.Error(err))
		elevated = false
	}
	log.Info("管理員權限檢查", zap.Bool("elevated", elevated))
	if !elevated {
		log.Error("需要管理員權限才能控制服務，請以 root 或管理員身份運行",
			zap.Error(errors.ErrPermissionDenied))
		return false
	}
	return true
}

func installUnit(ctx context.Context, log *zap.Logger, h hooks, settingsFile, service string) error {
	bin, err := os.Executable()
	if err != nil {
		return fmt.Errorf("無法獲取可執行文件路徑: %w", err)
	}

	installer := infraSystem.NewUnitInstaller(bin, settingsFile, service, h.newExecutor(log), log.Named("install"))
	path, err := installer.Install(ctx, h.unitDir)
	if err != nil {
		log.Error("安裝 unit 失敗", zap.Error(err), zap.String("path", path))
		return err
	}

	log.Info("安裝完成，使用 systemctl start 啟動", zap.String("unit", installer.UnitName()))
	return nil
}

func initializeDependencies(ctx context.Context, log *zap.Logger, cfg *settings.Settings, h hooks) (*AppDependencies, error) {
	ctrl, err := h.newController(ctx, log.Named("service"))
	if err != nil {
		return nil, fmt.Errorf("初始化服務控制器失敗: %w", err)
	}

	watchdog := application.NewWatchdogService(
		ctrl,
		log.Named("watchdog"),
		cfg.StartTimeout(),
		cfg.ManageTimeout(),
	)

	return &AppDependencies{
		Log:        log,
		Settings:   cfg,
		Controller: ctrl,
		Watchdog:   watchdog,
		Notifier:   h.newNotifier(log.Named("notify")),
	}, nil
}

// runStandard 檢查一次，必要時啟動服務，然後退出
func runStandard(ctx context.Context, deps *AppDependencies, service string) error {
	deps.Log.Info("標準模式", logger.Service(service))

	outcome := deps.Watchdog.CheckAndStart(ctx, service)
	deps.Notifier.Status(fmt.Sprintf("%s: %s", service, outcome))

	deps.Log.Info("檢查完成", logger.Service(service), logger.String("outcome", outcome.String()))
	return nil
}

// runTimed 初始檢查後按間隔重啟服務，直到運行時長到期或收到退出信號
func runTimed(ctx context.Context, deps *AppDependencies, service string) error {
	cfg := deps.Settings
	notifier := deps.Notifier

	keepAlive, cancel := context.WithCancel(ctx)
	defer cancel()
	go notifier.KeepAlive(keepAlive)

	sched := &application.Scheduler{
		Interval:     cfg.CheckInterval(),
		RunFor:       cfg.RunDuration(),
		Policy:       cfg.OverlapPolicy,
		DrainTimeout: 2*cfg.ManageTimeout() + drainSlack,
		Log:          deps.Log.Named("scheduler"),
		Check: func(ctx context.Context) {
			outcome := deps.Watchdog.Manage(ctx, service)
			notifier.Status(fmt.Sprintf("%s: %s (%s)", service, outcome, time.Now().Format(time.TimeOnly)))
		},
	}

	// 初始重啟可能長達兩倍 ManageTimeout，先報告就緒，避免 systemd 在啟動超時時殺掉進行中的重啟
	notifier.Ready()
	err := sched.Run(ctx)
	notifier.Stopping()

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
