package logger

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config 日誌配置
type Config struct {
	Level      string // debug, info, warn, error
	Dir        string // 日誌目錄，為空時不寫文件
	FilePrefix string // 日誌文件名前綴，文件名為 <prefix>YYYYMMDD.log
	MaxSize    int    // 單個文件最大大小（MB）
	MaxBackups int    // 同一天內保留的舊日誌文件數量
	MaxAge     int    // 按天滾動的文件保留天數
	Compress   bool   // 是否壓縮
	Console    bool   // 是否輸出到控制台
}

// DefaultConfig 返回默認配置
func DefaultConfig() Config {
	return Config{
		Level:      "debug",
		Dir:        "logs",
		FilePrefix: "service-monitor-",
		MaxSize:    10,
		MaxBackups: 5,
		MaxAge:     31,
		Compress:   false,
		Console:    true,
	}
}

// consoleTimeLayout 控制台時間格式
const consoleTimeLayout = "2006-01-02 15:04:05.000"

// New 創建新的日誌記錄器
func New(cfg Config) (*zap.Logger, error) {
	// 解析日誌級別
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var cores []zapcore.Core

	// 文件輸出：JSON，每天一個文件
	if cfg.Dir != "" {
		fileEncoder := zap.NewProductionEncoderConfig()
		fileEncoder.EncodeTime = zapcore.ISO8601TimeEncoder
		fileEncoder.EncodeLevel = zapcore.CapitalLevelEncoder

		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(fileEncoder),
			zapcore.AddSync(NewDailyWriter(cfg)),
			level,
		)
		cores = append(cores, fileCore)
	}

	// 控制台輸出
	if cfg.Console {
		consoleEncoder := zap.NewProductionEncoderConfig()
		consoleEncoder.EncodeTime = zapcore.TimeEncoderOfLayout(consoleTimeLayout)
		consoleEncoder.EncodeLevel = zapcore.CapitalColorLevelEncoder
		consoleEncoder.ConsoleSeparator = " "

		consoleCore := zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleEncoder),
			zapcore.Lock(os.Stdout),
			level,
		)
		cores = append(cores, consoleCore)
	}

	logger := zap.New(
		zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)

	return logger, nil
}

// NewBootstrap 配置文件加載前使用的僅控制台日誌
func NewBootstrap() *zap.Logger {
	cfg := DefaultConfig()
	cfg.Dir = ""
	log, err := New(cfg)
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// String 創建字符串字段
func String(key, val string) zap.Field {
	return zap.String(key, val)
}

// Int 創建整數字段
func Int(key string, val int) zap.Field {
	return zap.Int(key, val)
}

// Error 創建錯誤字段
func Error(err error) zap.Field {
	return zap.Error(err)
}

// Service 被監控服務名字段
func Service(name string) zap.Field {
	return zap.String("service", name)
}

// Duration 以人類可讀格式記錄時長
func Duration(key string, d time.Duration) zap.Field {
	return zap.Stringer(key, d)
}
