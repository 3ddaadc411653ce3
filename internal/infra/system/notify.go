package system

import (
	"context"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"go.uber.org/zap"
)

// Notifier 向服務管理器彙報自身狀態
type Notifier interface {
	Ready()
	Status(msg string)
	Stopping()
	// KeepAlive 按 WatchdogSec 的一半週期發送心跳，直到 ctx 結束
	KeepAlive(ctx context.Context)
}

// sdNotifier 基於 sd_notify 協議；未設置 NOTIFY_SOCKET 時所有調用都是空操作
type sdNotifier struct {
	log *zap.Logger
}

func NewNotifier(log *zap.Logger) Notifier {
	return &sdNotifier{log: log}
}

func (n *sdNotifier) send(state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		n.log.Debug("sd_notify 發送失敗", zap.String("state", state), zap.Error(err))
		return
	}
	if sent {
		n.log.Debug("sd_notify 已發送", zap.String("state", state))
	}
}

func (n *sdNotifier) Ready() {
	n.send(daemon.SdNotifyReady)
}

func (n *sdNotifier) Status(msg string) {
	n.send("STATUS=" + msg)
}

func (n *sdNotifier) Stopping() {
	n.send(daemon.SdNotifyStopping)
}

func (n *sdNotifier) KeepAlive(ctx context.Context) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.send(daemon.SdNotifyWatchdog)
		}
	}
}
