//go:build linux

package system

import (
	"context"
	"fmt"
	"sync"

	"github.com/coreos/go-systemd/v22/dbus"
	"go.uber.org/zap"
)

type dbusManager struct {
	conn *dbus.Conn
	log  *zap.Logger
	mu   sync.Mutex
}

// NewSystemdController 通過 DBus 連接 systemd
func NewSystemdController(ctx context.Context, log *zap.Logger) (ServiceController, error) {
	conn, err := dbus.NewSystemdConnectionContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("無法連接 Systemd DBus: %w", err)
	}
	return &dbusManager{conn: conn, log: log}, nil
}

func (m *dbusManager) Backend() string {
	return "systemd"
}

func (m *dbusManager) Close() {
	if m.conn != nil {
		m.conn.Close()
	}
}

func (m *dbusManager) Status(ctx context.Context, service string) (*ServiceStatus, error) {
	unit := ensureSuffix(service)

	units, err := m.conn.ListUnitsByNamesContext(ctx, []string{unit})
	if err != nil {
		return nil, fmt.Errorf("查詢服務狀態失敗: %w", err)
	}
	if len(units) == 0 || units[0].LoadState == "not-found" {
		return nil, notFound(service)
	}

	u := units[0]
	return &ServiceStatus{
		Name:   unit,
		State:  mapActiveState(u.ActiveState),
		Detail: u.ActiveState + "/" + u.SubState,
	}, nil
}

// mapActiveState 把 systemd ActiveState 映射為歸一化狀態
func mapActiveState(active string) ServiceState {
	switch active {
	case "active":
		return StateRunning
	case "inactive", "failed":
		return StateStopped
	case "activating", "deactivating", "reloading", "refreshing", "maintenance":
		return StateTransitional
	default:
		return StateUnknown
	}
}

func (m *dbusManager) Start(ctx context.Context, service string) error {
	return m.runJob(ctx, service, "啟動", m.conn.StartUnitContext)
}

func (m *dbusManager) Stop(ctx context.Context, service string) error {
	return m.runJob(ctx, service, "停止", m.conn.StopUnitContext)
}

type jobFunc func(ctx context.Context, name, mode string, ch chan<- string) (int, error)

// runJob 提交 systemd 任務並等待任務結果
func (m *dbusManager) runJob(ctx context.Context, service, action string, submit jobFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 先確認單元存在，否則 systemd 返回的錯誤不易區分
	if _, err := m.Status(ctx, service); err != nil {
		return err
	}

	unit := ensureSuffix(service)
	ch := make(chan string, 1)
	if _, err := submit(ctx, unit, "replace", ch); err != nil {
		return fmt.Errorf("%s服務失敗: %w", action, err)
	}

	select {
	case result := <-ch:
		if result != "done" {
			return fmt.Errorf("%s服務失敗: %s", action, result)
		}
		m.log.Debug("systemd 任務完成", zap.String("unit", unit), zap.String("action", action))
		return nil
	case <-ctx.Done():
		return jobInterrupted(ctx, unit, action)
	}
}
