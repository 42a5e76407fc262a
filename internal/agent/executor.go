package agent

import (
	"context"
	"fmt"
)

// Executor 执行动作并返回结果载荷。
// 接口保留 error 返回值，真实实现（订单系统、通知服务）可能出现 I/O 失败。
type Executor interface {
	Execute(ctx context.Context, spec ActionSpec) (map[string]any, error)
}

// StubExecutor 是当前范围内的动作执行器：不产生外部副作用，
// 仅构造与真实系统一致的结果载荷。未识别的动作类型走默认处理。
type StubExecutor struct{}

// NewStubExecutor 创建动作执行器。
func NewStubExecutor() *StubExecutor {
	return &StubExecutor{}
}

// Execute 按动作类型分发到对应处理函数。
func (*StubExecutor) Execute(_ context.Context, spec ActionSpec) (map[string]any, error) {
	switch spec.Type {
	case ActionApproveOrder:
		return approveOrder(spec.Params), nil
	case ActionFlagForReview:
		return flagForReview(spec.Params), nil
	case ActionSendNotification:
		return sendNotification(spec.Params), nil
	case ActionUpdateStatus:
		return updateStatus(spec.Params), nil
	default:
		return defaultAction(spec.Params), nil
	}
}

func approveOrder(params map[string]any) map[string]any {
	return map[string]any{
		"action":   string(ActionApproveOrder),
		"order_id": params["order_id"],
		"status":   "approved",
		"message":  "Order approved successfully",
	}
}

func flagForReview(params map[string]any) map[string]any {
	return map[string]any{
		"action":   string(ActionFlagForReview),
		"order_id": params["order_id"],
		"status":   "flagged",
		"message":  "Order flagged for manual review",
	}
}

func sendNotification(params map[string]any) map[string]any {
	return map[string]any{
		"action":    string(ActionSendNotification),
		"recipient": params["recipient"],
		"status":    "sent",
		"message":   fmt.Sprintf("Notification sent to %v", params["recipient"]),
	}
}

func updateStatus(params map[string]any) map[string]any {
	return map[string]any{
		"action":     string(ActionUpdateStatus),
		"entity_id":  params["entity_id"],
		"new_status": params["new_status"],
		"message":    "Status updated successfully",
	}
}

func defaultAction(map[string]any) map[string]any {
	return map[string]any{
		"action":  "default",
		"status":  "completed",
		"message": "Default action executed",
	}
}

var _ Executor = (*StubExecutor)(nil)
