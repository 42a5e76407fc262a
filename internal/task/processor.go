package task

import (
	"context"
	"log/slog"
	"time"

	"AutoFlow-Agent/internal/agent"
	xerrors "AutoFlow-Agent/internal/errors"
	"AutoFlow-Agent/internal/observability/alerting"
	"AutoFlow-Agent/pkg/logger"
)

// Executor 定义了处理器所需的流水线能力。
type Executor interface {
	Process(ctx context.Context, taskID string, params map[string]any) (*agent.Result, error)
}

// Processor 负责从队列消费任务并交给流水线执行。
// 单个任务的失败只影响它自己：worker 把失败落库为终态后继续排空队列。
type Processor struct {
	pipeline    Executor
	store       Store
	consumer    Consumer
	workerCount int
	logger      *slog.Logger
	alerter     alerting.Dispatcher
}

// ProcessorOption 定义可选配置。
type ProcessorOption func(*Processor)

// WithProcessorLogger 指定日志输出。
func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithWorkerCount 设置消费协程数量。
// 默认为 1：只有单 worker 才能保证 FIFO 顺序与同一时刻至多一个任务在处理。
func WithWorkerCount(workers int) ProcessorOption {
	return func(p *Processor) {
		if workers > 0 {
			p.workerCount = workers
		}
	}
}

// WithAlertDispatcher 配置告警派发器。
func WithAlertDispatcher(dispatcher alerting.Dispatcher) ProcessorOption {
	return func(p *Processor) {
		p.alerter = dispatcher
	}
}

// NewProcessor 构造 Processor。
func NewProcessor(pipeline Executor, store Store, consumer Consumer, opts ...ProcessorOption) *Processor {
	p := &Processor{
		pipeline:    pipeline,
		store:       store,
		consumer:    consumer,
		workerCount: 1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.workerCount <= 0 {
		p.workerCount = 1
	}
	return p
}

// Start 启动任务处理循环，阻塞直到上下文取消。
func (p *Processor) Start(ctx context.Context) error {
	if p.consumer == nil {
		return xerrors.New(xerrors.CodeInitializationFailure, "未配置任务消费者")
	}
	return p.consumer.Consume(ctx, p.workerCount, p.handle)
}

// handle 处理单个队列项。返回值恒为 nil——任何失败都已落库为终态，
// 不允许传播到消费循环影响后续任务。
func (p *Processor) handle(ctx context.Context, env Envelope) error {
	if p.store == nil || p.pipeline == nil {
		logger.L().Error("处理器未初始化", slog.String("task_id", env.TaskID))
		return nil
	}

	// 先落 processing 状态，再进入流水线。
	if err := p.store.Save(ctx, &Task{ID: env.TaskID, Status: StatusProcessing}); err != nil {
		logger.L().Error("写入处理中状态失败", slog.Any("error", err), slog.String("task_id", env.TaskID))
		p.emitAlert(ctx, env.TaskID, xerrors.CodeStorageFailure, err)
		return nil
	}

	result, execErr := p.pipeline.Process(ctx, env.TaskID, env.Params)
	if execErr != nil {
		p.persistFailure(ctx, env.TaskID, execErr)
		return nil
	}

	completed := &Task{
		ID:          env.TaskID,
		Status:      StatusCompleted,
		Category:    string(result.Category),
		Reasoning:   result.Reasoning,
		ActionTaken: string(result.ActionTaken),
		Result:      resultPayload(result),
	}
	if err := p.store.Save(ctx, completed); err != nil {
		logger.L().Error("写入完成状态失败", slog.Any("error", err), slog.String("task_id", env.TaskID))
		p.emitAlert(ctx, env.TaskID, xerrors.CodeStorageFailure, err)
		return nil
	}
	logger.Audit().Info("任务执行成功",
		slog.String("task_id", env.TaskID),
		slog.String("category", string(result.Category)),
		slog.String("action_taken", string(result.ActionTaken)),
	)
	p.logDebug("任务处理完成", slog.String("task_id", env.TaskID))
	return nil
}

// persistFailure 把流水线失败记录为终态 failed。
func (p *Processor) persistFailure(ctx context.Context, taskID string, execErr error) {
	failed := &Task{
		ID:     taskID,
		Status: StatusFailed,
		Result: map[string]any{"error": execErr.Error()},
	}
	if err := p.store.Save(ctx, failed); err != nil {
		logger.L().Error("写入失败状态出错", slog.Any("error", err), slog.String("task_id", taskID))
	}
	code := xerrors.CodeOf(execErr)
	if code == xerrors.CodeUnknown {
		code = CodeTaskProcessing
	}
	logger.Audit().Warn("任务执行失败",
		slog.String("task_id", taskID),
		slog.String("error", execErr.Error()),
		slog.String("error_code", string(code)),
	)
	p.emitAlert(ctx, taskID, code, execErr)
}

// resultPayload 构造与任务一起持久化的结果载荷。
func resultPayload(result *agent.Result) map[string]any {
	if result == nil {
		return nil
	}
	return map[string]any{
		"task_id":        result.TaskID,
		"status":         string(StatusCompleted),
		"data_retrieved": map[string]any(result.DataRetrieved),
		"category":       string(result.Category),
		"reasoning":      result.Reasoning,
		"action_taken":   string(result.ActionTaken),
		"action_result":  result.ActionResult,
	}
}

func (p *Processor) logDebug(msg string, attrs ...slog.Attr) {
	if p.logger != nil {
		args := make([]any, len(attrs))
		for i, attr := range attrs {
			args[i] = attr
		}
		p.logger.Debug(msg, args...)
	}
}

func (p *Processor) emitAlert(ctx context.Context, taskID string, code xerrors.Code, cause error) {
	if p == nil || p.alerter == nil {
		return
	}
	attrs := xerrors.AttributesOf(code)
	message := attrs.Message
	if cause != nil {
		message = cause.Error()
	}
	event := alerting.Event{
		Code:       code,
		Message:    message,
		Severity:   attrs.Severity,
		TaskID:     taskID,
		OccurredAt: time.Now(),
	}
	if err := p.alerter.Notify(ctx, event); err != nil {
		logger.L().Error("告警通知失败",
			slog.Any("error", err),
			slog.String("task_id", taskID),
		)
	}
}
