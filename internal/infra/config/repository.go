package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Yat-Muk/svcwatch/internal/domain/settings"
	"github.com/Yat-Muk/svcwatch/internal/pkg/errors"
)

// SectionName 配置文件中承載設置的頂層節點
const SectionName = "Settings"

// FileRepository 基於文件的配置倉庫實現
// 支持 JSON（允許註釋與尾逗號）與 YAML 兩種格式
type FileRepository struct {
	filePath string
	logger   *zap.Logger
}

func NewFileRepository(path string, logger *zap.Logger) *FileRepository {
	return &FileRepository{
		filePath: path,
		logger:   logger,
	}
}

// Path 返回配置文件路徑
func (r *FileRepository) Path() string {
	return r.filePath
}

// Load 讀取並解析配置文件，缺失字段使用默認值
// 文件不存在時返回 ErrConfigNotFound，這是啟動的硬性依賴
func (r *FileRepository) Load(ctx context.Context) (*settings.Settings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 1. 讀取文件內容
	content, err := os.ReadFile(r.filePath)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrConfigNotFound, "CFG001", r.filePath)
	}
	if err != nil {
		return nil, fmt.Errorf("讀取配置文件失敗: %w", err)
	}

	// 2. JSON 文件先去除註釋與尾逗號
	if strings.EqualFold(filepath.Ext(r.filePath), ".json") {
		content = jsonc.ToJSON(content)
	}

	// 3. 解析
	cfg, err := decode(content)
	if err != nil {
		return nil, errors.Wrap(fmt.Errorf("%w: %v", errors.ErrConfigParseFailed, err), "CFG002", r.filePath)
	}

	// 4. 填充默認值
	for _, note := range cfg.ApplyDefaults() {
		r.logger.Warn("配置項無效", zap.String("detail", note))
	}

	r.logger.Debug("配置文件已加載",
		zap.String("path", r.filePath),
		zap.String("log_folder", cfg.LogFolderPath),
		zap.Int("interval_minutes", cfg.ServiceCheckIntervalMinutes),
		zap.Int("run_hours", cfg.AppRunDurationHours),
	)

	return cfg, nil
}

// decode 解析文檔；優先使用 Settings 節點，不存在時把整個文檔當作設置
func decode(content []byte) (*settings.Settings, error) {
	cfg := settings.Default()

	var root yaml.Node
	if err := yaml.Unmarshal(content, &root); err != nil {
		return nil, err
	}

	// 空文檔：全部使用默認值
	if root.Kind == 0 || len(root.Content) == 0 {
		return cfg, nil
	}

	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("頂層必須是鍵值映射，實際為 %s", kindName(doc.Kind))
	}

	target := doc
	if section := lookup(doc, SectionName); section != nil {
		// "Settings": null 或 YAML 中留空的節點視為空節
		if section.Kind == yaml.ScalarNode && section.ShortTag() == "!!null" {
			return cfg, nil
		}
		if section.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%s 必須是鍵值映射", SectionName)
		}
		target = section
	}

	canonicalizeKeys(target, settings.FieldNames())

	if err := target.Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// lookup 在映射節點中按名稱（不區分大小寫）查找值節點
func lookup(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if strings.EqualFold(mapping.Content[i].Value, key) {
			return mapping.Content[i+1]
		}
	}
	return nil
}

// intFields 允許以帶引號字符串書寫的整數字段
var intFields = map[string]bool{
	"ServiceCheckIntervalMinutes": true,
	"AppRunDurationHours":         true,
	"StartTimeoutSeconds":         true,
	"ManageTimeoutSeconds":        true,
}

// canonicalizeKeys 把鍵名統一為標準大小寫，與原有配置綁定的大小寫不敏感行為保持一致
// 同時把 "30" 這類字符串數字轉為整數標記
func canonicalizeKeys(mapping *yaml.Node, names []string) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key, val := mapping.Content[i], mapping.Content[i+1]
		for _, name := range names {
			if strings.EqualFold(key.Value, name) {
				key.Value = name
				break
			}
		}
		if intFields[key.Value] && val.Kind == yaml.ScalarNode && val.ShortTag() == "!!str" {
			if _, err := strconv.Atoi(strings.TrimSpace(val.Value)); err == nil {
				val.Value = strings.TrimSpace(val.Value)
				val.Tag = "!!int"
				val.Style = 0
			}
		}
	}
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return fmt.Sprintf("kind(%d)", k)
	}
}
