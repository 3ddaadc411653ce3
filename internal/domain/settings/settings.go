package settings

import (
	"fmt"
	"strings"
	"time"
)

// 默認值，與配置文件缺省字段對應
const (
	DefaultLogFolderPath               = "logs"
	DefaultServiceCheckIntervalMinutes = 30
	DefaultAppRunDurationHours         = 23
	DefaultLogLevel                    = "debug"
	DefaultStartTimeoutSeconds         = 30
	DefaultManageTimeoutSeconds        = 60
)

// OverlapPolicy 定時檢查重疊時的處理策略
type OverlapPolicy string

const (
	// OverlapSkip 上一次檢查未完成時跳過本次觸發
	OverlapSkip OverlapPolicy = "skip"
	// OverlapAllow 允許多個檢查並發執行
	OverlapAllow OverlapPolicy = "overlap"
)

// Settings 應用配置，啟動時加載一次，之後只讀
type Settings struct {
	LogFolderPath               string        `yaml:"LogFolderPath"`
	ServiceCheckIntervalMinutes int           `yaml:"ServiceCheckIntervalMinutes"`
	AppRunDurationHours         int           `yaml:"AppRunDurationHours"`
	LogLevel                    string        `yaml:"LogLevel,omitempty"`
	StartTimeoutSeconds         int           `yaml:"StartTimeoutSeconds,omitempty"`
	ManageTimeoutSeconds        int           `yaml:"ManageTimeoutSeconds,omitempty"`
	OverlapPolicy               OverlapPolicy `yaml:"OverlapPolicy,omitempty"`
}

// Default 返回全部字段為默認值的配置
func Default() *Settings {
	return &Settings{
		LogFolderPath:               DefaultLogFolderPath,
		ServiceCheckIntervalMinutes: DefaultServiceCheckIntervalMinutes,
		AppRunDurationHours:         DefaultAppRunDurationHours,
		LogLevel:                    DefaultLogLevel,
		StartTimeoutSeconds:         DefaultStartTimeoutSeconds,
		ManageTimeoutSeconds:        DefaultManageTimeoutSeconds,
		OverlapPolicy:               OverlapSkip,
	}
}

// FieldNames 返回配置文件中可識別的鍵名
func FieldNames() []string {
	return []string{
		"LogFolderPath",
		"ServiceCheckIntervalMinutes",
		"AppRunDurationHours",
		"LogLevel",
		"StartTimeoutSeconds",
		"ManageTimeoutSeconds",
		"OverlapPolicy",
	}
}

// ApplyDefaults 為缺失或非正數的字段填充默認值
// 返回被替換字段的說明，供調用方記錄警告
func (s *Settings) ApplyDefaults() []string {
	var notes []string

	if strings.TrimSpace(s.LogFolderPath) == "" {
		s.LogFolderPath = DefaultLogFolderPath
	}
	if s.LogLevel == "" {
		s.LogLevel = DefaultLogLevel
	}
	s.LogLevel = strings.ToLower(s.LogLevel)

	ints := []struct {
		name string
		val  *int
		def  int
	}{
		{"ServiceCheckIntervalMinutes", &s.ServiceCheckIntervalMinutes, DefaultServiceCheckIntervalMinutes},
		{"AppRunDurationHours", &s.AppRunDurationHours, DefaultAppRunDurationHours},
		{"StartTimeoutSeconds", &s.StartTimeoutSeconds, DefaultStartTimeoutSeconds},
		{"ManageTimeoutSeconds", &s.ManageTimeoutSeconds, DefaultManageTimeoutSeconds},
	}
	for _, f := range ints {
		// 0 視為缺省；負數無法驅動定時器，同樣回退
		if *f.val < 0 {
			notes = append(notes, fmt.Sprintf("%s=%d 無效，使用默認值 %d", f.name, *f.val, f.def))
		}
		if *f.val <= 0 {
			*f.val = f.def
		}
	}

	switch OverlapPolicy(strings.ToLower(string(s.OverlapPolicy))) {
	case "":
		s.OverlapPolicy = OverlapSkip
	case OverlapSkip:
		s.OverlapPolicy = OverlapSkip
	case OverlapAllow:
		s.OverlapPolicy = OverlapAllow
	default:
		notes = append(notes, fmt.Sprintf("OverlapPolicy=%q 無法識別，使用 %q", s.OverlapPolicy, OverlapSkip))
		s.OverlapPolicy = OverlapSkip
	}

	return notes
}

// CheckInterval 定時檢查間隔
func (s *Settings) CheckInterval() time.Duration {
	return time.Duration(s.ServiceCheckIntervalMinutes) * time.Minute
}

// RunDuration 定時模式下的最長運行時間
func (s *Settings) RunDuration() time.Duration {
	return time.Duration(s.AppRunDurationHours) * time.Hour
}

// StartTimeout 標準模式啟動服務的等待上限
func (s *Settings) StartTimeout() time.Duration {
	return time.Duration(s.StartTimeoutSeconds) * time.Second
}

// ManageTimeout 定時模式停止/啟動服務的等待上限
func (s *Settings) ManageTimeout() time.Duration {
	return time.Duration(s.ManageTimeoutSeconds) * time.Second
}
