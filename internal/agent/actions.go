package agent

import "fmt"

// ActionType 标识一种可执行的动作。
type ActionType string

const (
	ActionApproveOrder     ActionType = "approve_order"
	ActionFlagForReview    ActionType = "flag_for_review"
	ActionSendNotification ActionType = "send_notification"
	ActionUpdateStatus     ActionType = "update_status"
)

// ActionSpec 是动作解析的结果：动作类型加上执行所需的参数。
type ActionSpec struct {
	Type   ActionType     `json:"action_type"`
	Params map[string]any `json:"params"`
}

// Resolver 根据分类标签与业务记录决定要执行的动作。
type Resolver interface {
	Resolve(category Category, data Record) ActionSpec
}

// StandardResolver 是纯函数式的一对一映射表。
type StandardResolver struct{}

// NewStandardResolver 创建标准动作解析器。
func NewStandardResolver() *StandardResolver {
	return &StandardResolver{}
}

// Resolve 实现 Resolver。对每个分类返回确定的动作，
// 未识别的分类落入默认分支，保证流水线不会因脏数据中断。
func (*StandardResolver) Resolve(category Category, data Record) ActionSpec {
	switch category {
	case CategoryHighValueOrder:
		return ActionSpec{
			Type: ActionApproveOrder,
			Params: map[string]any{
				"order_id": data["order_id"],
				"amount":   data["amount"],
			},
		}
	case CategorySuspiciousActivity:
		// 分类规则目前不会产出该类别，映射保留给业务方补齐规则后启用。
		return ActionSpec{
			Type: ActionFlagForReview,
			Params: map[string]any{
				"order_id": data["order_id"],
				"reason":   "Suspicious pattern detected",
			},
		}
	case CategoryUrgentRequest:
		return ActionSpec{
			Type: ActionSendNotification,
			Params: map[string]any{
				"recipient": "support@company.com",
				"priority":  "high",
				"subject":   fmt.Sprintf("Urgent: %s", data.String("order_id")),
			},
		}
	case CategoryRoutineProcessing:
		return ActionSpec{
			Type: ActionUpdateStatus,
			Params: map[string]any{
				"entity_id":  data["order_id"],
				"new_status": "processed",
			},
		}
	default:
		// 缺失的 order_id 才落到哨兵值，已有的值原样透传。
		entityID, ok := data["order_id"]
		if !ok {
			entityID = "unknown"
		}
		return ActionSpec{
			Type: ActionUpdateStatus,
			Params: map[string]any{
				"entity_id":  entityID,
				"new_status": "reviewed",
			},
		}
	}
}

var _ Resolver = (*StandardResolver)(nil)
