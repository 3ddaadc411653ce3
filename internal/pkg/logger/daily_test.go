package logger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWriter(t *testing.T, clock *time.Time) (*DailyWriter, string) {
	t.Helper()
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Dir = dir
	cfg.MaxAge = 2

	w := NewDailyWriter(cfg)
	w.now = func() time.Time { return *clock }
	t.Cleanup(func() { _ = w.Close() })
	return w, dir
}

func TestDailyWriter_RollsOverAtMidnight(t *testing.T) {
	clock := time.Date(2026, 10, 19, 23, 59, 0, 0, time.Local)
	w, dir := newTestWriter(t, &clock)

	_, err := w.Write([]byte("before midnight\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "service-monitor-20261019.log"), w.CurrentFile())

	clock = clock.Add(2 * time.Minute)
	_, err = w.Write([]byte("after midnight\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "service-monitor-20261020.log"), w.CurrentFile())

	first, err := os.ReadFile(filepath.Join(dir, "service-monitor-20261019.log"))
	require.NoError(t, err)
	assert.Equal(t, "before midnight\n", string(first))

	second, err := os.ReadFile(filepath.Join(dir, "service-monitor-20261020.log"))
	require.NoError(t, err)
	assert.Equal(t, "after midnight\n", string(second))
}

func TestDailyWriter_PrunesOldFiles(t *testing.T) {
	clock := time.Date(2026, 10, 19, 8, 0, 0, 0, time.Local)
	w, dir := newTestWriter(t, &clock)

	old := filepath.Join(dir, "service-monitor-20261001.log")
	recent := filepath.Join(dir, "service-monitor-20261018.log")
	unrelated := filepath.Join(dir, "service-monitor-notes.log")
	for _, f := range []string{old, recent, unrelated} {
		require.NoError(t, os.WriteFile(f, []byte("x"), 0644))
	}

	_, err := w.Write([]byte("hello\n"))
	require.NoError(t, err)

	assert.NoFileExists(t, old)
	assert.FileExists(t, recent)
	assert.FileExists(t, unrelated)
}

func TestDailyWriter_PrunesRotatedBackups(t *testing.T) {
	clock := time.Date(2026, 10, 19, 8, 0, 0, 0, time.Local)
	w, dir := newTestWriter(t, &clock)

	oldBackup := filepath.Join(dir, "service-monitor-20261001-2026-10-01T08-00-00.000.log")
	oldCompressed := filepath.Join(dir, "service-monitor-20261002-2026-10-02T09-30-00.000.log.gz")
	recentBackup := filepath.Join(dir, "service-monitor-20261018-2026-10-18T23-59-59.999.log")
	lookalike := filepath.Join(dir, "service-monitor-20261001x.log")
	for _, f := range []string{oldBackup, oldCompressed, recentBackup, lookalike} {
		require.NoError(t, os.WriteFile(f, []byte("x"), 0644))
	}

	_, err := w.Write([]byte("hello\n"))
	require.NoError(t, err)

	assert.NoFileExists(t, oldBackup)
	assert.NoFileExists(t, oldCompressed)
	assert.FileExists(t, recentBackup)
	assert.FileExists(t, lookalike)
}

func TestFileDay(t *testing.T) {
	tests := []struct {
		name  string
		stamp string
		ok    bool
	}{
		{"20261019.log", "20261019", true},
		{"20261019-2026-10-19T08-00-00.000.log", "20261019", true},
		{"20261019-2026-10-19T08-00-00.000.log.gz", "20261019", true},
		{"20261019.txt", "", false},
		{"notes.log", "", false},
		{"2026101.log", "", false},
		{"20261399.log", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stamp, ok := fileDay(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.stamp, stamp)
		})
	}
}

func TestDailyWriter_CloseIdempotent(t *testing.T) {
	clock := time.Now()
	w, _ := newTestWriter(t, &clock)

	assert.NoError(t, w.Close())
	assert.Equal(t, "", w.CurrentFile())

	_, err := w.Write([]byte("reopen\n"))
	require.NoError(t, err)
	assert.NoError(t, w.Close())
	assert.NoError(t, w.Sync())
}
