package agent

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Retriever 定义业务数据获取接口。
// 对未知的 source 不返回错误，而是返回空记录，由下游容忍空输入。
type Retriever interface {
	FetchBusinessData(ctx context.Context, source string) (Record, error)
}

// DefaultSource 是提交任务时未指定数据源的默认值。
const DefaultSource = "dummy"

// StaticRetriever 基于内置与配置文件加载的静态数据源提供业务数据，
// 生产环境可替换为调用订单系统等真实数据源的实现。
type StaticRetriever struct {
	sources map[string]Record
}

// NewStaticRetriever 创建仅含内置 dummy 数据源的 StaticRetriever。
func NewStaticRetriever() *StaticRetriever {
	return &StaticRetriever{
		sources: map[string]Record{
			DefaultSource: {
				"customer_id": "CUST-12345",
				"order_id":    "ORD-67890",
				"amount":      1250.00,
				"status":      "pending_review",
				"items":       []string{"Product A", "Product B"},
				"priority":    "high",
			},
		},
	}
}

// sourceDefinitions 对应数据源定义文件 configs/sources.yaml 的结构。
type sourceDefinitions struct {
	Sources map[string]map[string]any `yaml:"sources"`
}

// LoadSources 从 YAML 文件加载额外的数据源定义，同名数据源覆盖内置值。
func (r *StaticRetriever) LoadSources(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("数据源定义文件路径不能为空")
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("读取数据源定义失败: %w", err)
	}
	var defs sourceDefinitions
	if err := yaml.Unmarshal(content, &defs); err != nil {
		return fmt.Errorf("解析数据源定义失败: %w", err)
	}
	for name, fields := range defs.Sources {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		r.sources[name] = Record(fields)
	}
	return nil
}

// FetchBusinessData 返回指定数据源的业务记录。未知数据源返回空记录。
func (r *StaticRetriever) FetchBusinessData(_ context.Context, source string) (Record, error) {
	if record, ok := r.sources[source]; ok {
		return record.Clone(), nil
	}
	return Record{}, nil
}

var _ Retriever = (*StaticRetriever)(nil)
