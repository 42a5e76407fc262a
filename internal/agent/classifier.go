package agent

import (
	"fmt"
	"strings"
)

// Category 是业务记录的分类标签，驱动后续的动作选择。
type Category string

const (
	CategoryHighValueOrder     Category = "high_value_order"
	CategorySuspiciousActivity Category = "suspicious_activity"
	CategoryUrgentRequest      Category = "urgent_request"
	CategoryRoutineProcessing  Category = "routine_processing"
	CategoryStandardReview     Category = "standard_review"
)

// Classifier 将业务记录映射为分类标签与可读的推理说明。
type Classifier interface {
	Categorize(data Record) (Category, string)
}

// RuleClassifier 按固定顺序评估阈值规则，首个命中的规则决定分类。
// 规则不互斥，顺序即业务优先级：高价值订单优先于高优先级请求。
type RuleClassifier struct{}

// NewRuleClassifier 创建规则分类器。
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

// Categorize 实现 Classifier。对任意记录都返回结果，不会失败；
// 缺失的金额按 0 处理，缺失的优先级按 normal 处理。
func (*RuleClassifier) Categorize(data Record) (Category, string) {
	amount := data.Float("amount")
	status := data.String("status")
	priority := data.StringOr("priority", "normal")

	if amount > 1000 && status == "pending_review" {
		return CategoryHighValueOrder,
			fmt.Sprintf("Order amount ($%v) exceeds threshold and requires review. Priority: %s.", amount, priority)
	}

	if priority == "high" || strings.Contains(strings.ToLower(status), "urgent") {
		return CategoryUrgentRequest, "High priority item detected. Immediate attention required."
	}

	if amount < 100 {
		return CategoryRoutineProcessing,
			fmt.Sprintf("Low-value transaction ($%v). Standard processing applied.", amount)
	}

	return CategoryStandardReview,
		fmt.Sprintf("Standard order processing. Amount: $%v, Status: %s.", amount, status)
}

var _ Classifier = (*RuleClassifier)(nil)
