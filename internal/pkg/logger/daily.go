package logger

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

const dayLayout = "20060102"

// DailyWriter 按天滾動的日誌寫入器
// 每天寫入 <prefix>YYYYMMDD.log，當天文件過大時交由 lumberjack 按大小切分
type DailyWriter struct {
	mu     sync.Mutex
	cfg    Config
	now    func() time.Time
	day    string
	writer *lumberjack.Logger
}

func NewDailyWriter(cfg Config) *DailyWriter {
	return &DailyWriter{cfg: cfg, now: time.Now}
}

// Write 實現 io.Writer，日期變化時切換到新文件
func (w *DailyWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	day := w.now().Format(dayLayout)
	if w.writer == nil || day != w.day {
		if w.writer != nil {
			_ = w.writer.Close()
		}
		w.writer = &lumberjack.Logger{
			Filename:   filepath.Join(w.cfg.Dir, w.cfg.FilePrefix+day+".log"),
			MaxSize:    w.cfg.MaxSize,
			MaxBackups: w.cfg.MaxBackups,
			Compress:   w.cfg.Compress,
			LocalTime:  true,
		}
		w.day = day
		w.prune()
	}

	return w.writer.Write(p)
}

// Sync lumberjack 直接寫文件，無需額外刷新
func (w *DailyWriter) Sync() error {
	return nil
}

// Close 關閉當前文件
func (w *DailyWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.writer == nil {
		return nil
	}
	err := w.writer.Close()
	w.writer = nil
	return err
}

// CurrentFile 返回當前寫入的文件路徑
func (w *DailyWriter) CurrentFile() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.writer == nil {
		return ""
	}
	return w.writer.Filename
}

// prune 刪除超過保留天數的按天文件，調用方持有鎖
func (w *DailyWriter) prune() {
	if w.cfg.MaxAge <= 0 {
		return
	}

	matches, err := filepath.Glob(filepath.Join(w.cfg.Dir, w.cfg.FilePrefix+"*"))
	if err != nil {
		return
	}
	sort.Strings(matches)

	cutoff := w.now().AddDate(0, 0, -w.cfg.MaxAge).Format(dayLayout)
	for _, m := range matches {
		stamp, ok := fileDay(strings.TrimPrefix(filepath.Base(m), w.cfg.FilePrefix))
		if !ok {
			continue
		}
		if stamp < cutoff {
			_ = os.Remove(m)
		}
	}
}

// fileDay 從去掉前綴的文件名中取出日期
// 當天文件為 YYYYMMDD.log，lumberjack 切分出的備份為 YYYYMMDD-<時間戳>.log[.gz]
func fileDay(name string) (string, bool) {
	if len(name) < len(dayLayout) {
		return "", false
	}
	stamp, rest := name[:len(dayLayout)], name[len(dayLayout):]
	if _, err := time.Parse(dayLayout, stamp); err != nil {
		return "", false
	}

	rest = strings.TrimSuffix(rest, ".gz")
	if !strings.HasSuffix(rest, ".log") {
		return "", false
	}
	rest = strings.TrimSuffix(rest, ".log")
	if rest != "" && !strings.HasPrefix(rest, "-") {
		return "", false
	}
	return stamp, true
}
