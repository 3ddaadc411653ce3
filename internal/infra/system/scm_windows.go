//go:build windows

package system

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"
)

// scmController 通過 Windows 服務控制管理器（SCM）控制服務
type scmController struct {
	m   *mgr.Mgr
	log *zap.Logger
	mu  sync.Mutex
}

// NewSCMController 連接本機 SCM
func NewSCMController(log *zap.Logger) (ServiceController, error) {
	m, err := mgr.Connect()
	if err != nil {
		return nil, fmt.Errorf("無法連接服務控制管理器: %w", err)
	}
	return &scmController{m: m, log: log}, nil
}

func (c *scmController) Backend() string {
	return "scm"
}

func (c *scmController) Close() {
	if c.m != nil {
		_ = c.m.Disconnect()
	}
}

func (c *scmController) open(service string) (*mgr.Service, error) {
	s, err := c.m.OpenService(service)
	if err != nil {
		if errors.Is(err, windows.ERROR_SERVICE_DOES_NOT_EXIST) {
			return nil, notFound(service)
		}
		return nil, fmt.Errorf("打開服務失敗: %w", err)
	}
	return s, nil
}

func (c *scmController) Status(ctx context.Context, service string) (*ServiceStatus, error) {
	s, err := c.open(service)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	st, err := s.Query()
	if err != nil {
		return nil, fmt.Errorf("查詢服務狀態失敗: %w", err)
	}

	return &ServiceStatus{
		Name:   service,
		State:  mapSvcState(st.State),
		Detail: stateName(st.State),
	}, nil
}

func mapSvcState(s svc.State) ServiceState {
	switch s {
	case svc.Stopped:
		return StateStopped
	case svc.Running:
		return StateRunning
	case svc.StartPending, svc.StopPending, svc.ContinuePending, svc.PausePending, svc.Paused:
		return StateTransitional
	default:
		return StateUnknown
	}
}

func stateName(s svc.State) string {
	switch s {
	case svc.Stopped:
		return "STOPPED"
	case svc.StartPending:
		return "START_PENDING"
	case svc.StopPending:
		return "STOP_PENDING"
	case svc.Running:
		return "RUNNING"
	case svc.ContinuePending:
		return "CONTINUE_PENDING"
	case svc.PausePending:
		return "PAUSE_PENDING"
	case svc.Paused:
		return "PAUSED"
	default:
		return fmt.Sprintf("STATE_%d", s)
	}
}

func (c *scmController) Start(ctx context.Context, service string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.open(service)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Start(); err != nil {
		return fmt.Errorf("啟動服務失敗: %w", err)
	}
	return nil
}

func (c *scmController) Stop(ctx context.Context, service string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.open(service)
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.Control(svc.Stop); err != nil {
		return fmt.Errorf("停止服務失敗: %w", err)
	}
	return nil
}
