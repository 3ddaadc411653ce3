package process

import (
	"context"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// Proc 進程快照
type Proc struct {
	PID     int32
	Name    string
	Started time.Time
}

// Table 進程表操作接口
type Table interface {
	// Self 返回當前進程
	Self(ctx context.Context) (Proc, error)
	// List 列出所有可見進程，無法讀取名稱的進程被跳過
	List(ctx context.Context) ([]Proc, error)
	// Kill 強制結束進程
	Kill(ctx context.Context, pid int32) error
	// Alive 進程是否仍在運行（殭屍進程視為已退出）
	Alive(ctx context.Context, pid int32) (bool, error)
}

// SystemTable 基於 gopsutil 的進程表
type SystemTable struct{}

func NewSystemTable() *SystemTable {
	return &SystemTable{}
}

func (SystemTable) Self(ctx context.Context) (Proc, error) {
	p, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		return Proc{}, err
	}
	return snapshot(ctx, p)
}

func (SystemTable) List(ctx context.Context) ([]Proc, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Proc, 0, len(procs))
	for _, p := range procs {
		snap, err := snapshot(ctx, p)
		if err != nil {
			// 進程可能已退出或無權讀取
			continue
		}
		out = append(out, snap)
	}
	return out, nil
}

func (SystemTable) Kill(ctx context.Context, pid int32) error {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return err
	}
	return p.KillWithContext(ctx)
}

func (SystemTable) Alive(ctx context.Context, pid int32) (bool, error) {
	exists, err := process.PidExistsWithContext(ctx, pid)
	if err != nil || !exists {
		return false, err
	}

	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		// 查詢期間進程退出
		return false, nil
	}
	status, err := p.StatusWithContext(ctx)
	if err != nil {
		return true, nil
	}
	for _, s := range status {
		if s == process.Zombie {
			return false, nil
		}
	}
	return true, nil
}

func snapshot(ctx context.Context, p *process.Process) (Proc, error) {
	name, err := p.NameWithContext(ctx)
	if err != nil {
		return Proc{}, err
	}

	snap := Proc{PID: p.Pid, Name: name}
	if ms, err := p.CreateTimeWithContext(ctx); err == nil {
		snap.Started = time.UnixMilli(ms)
	}
	return snap, nil
}
