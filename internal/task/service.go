package task

import (
	"context"
	"encoding/hex"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"AutoFlow-Agent/internal/agent"
	xerrors "AutoFlow-Agent/internal/errors"
	"AutoFlow-Agent/pkg/logger"
)

// SubmitRequest 描述提交到服务的一个新任务。
type SubmitRequest struct {
	DataSource string         `json:"data_source,omitempty"`
	Params     map[string]any `json:"params,omitempty"`
}

// Service 负责任务的创建与查询。状态查询只读存储，不触碰队列。
type Service struct {
	store         Store
	producer      Producer
	defaultSource string
}

// ServiceOption 定义可选的服务配置。
type ServiceOption func(*Service)

// WithDefaultSource 指定提交任务未携带数据源时使用的默认数据源。
func WithDefaultSource(source string) ServiceOption {
	return func(s *Service) {
		if strings.TrimSpace(source) != "" {
			s.defaultSource = strings.TrimSpace(source)
		}
	}
}

// NewService 构造任务服务。
func NewService(store Store, producer Producer, opts ...ServiceOption) *Service {
	s := &Service{
		store:         store,
		producer:      producer,
		defaultSource: agent.DefaultSource,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Submit 创建一个新任务并推送到队列。
// 记录先以 queued 状态落库，然后才入队，保证 worker 取到任务时记录已可见。
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*Task, error) {
	if s.store == nil || s.producer == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "任务服务未初始化")
	}

	taskID := newTaskID()

	params := make(map[string]any, len(req.Params)+1)
	source := strings.TrimSpace(req.DataSource)
	if source == "" {
		source = s.defaultSource
	}
	params["data_source"] = source
	for key, value := range req.Params {
		params[key] = value
	}

	created := &Task{ID: taskID, Status: StatusQueued}
	if err := s.store.Save(ctx, created); err != nil {
		return nil, err
	}

	if err := s.producer.Publish(ctx, Envelope{TaskID: taskID, Params: params}); err != nil {
		logger.L().Error("任务入队失败", slog.Any("error", err), slog.String("task_id", taskID))
		wrapped := xerrors.Wrap(CodeTaskPublish, err, "发布任务到队列失败")
		_ = s.store.Save(ctx, &Task{
			ID:     taskID,
			Status: StatusFailed,
			Result: map[string]any{"error": wrapped.Error()},
		})
		return nil, wrapped
	}
	logger.Audit().Info("任务入队成功",
		slog.String("task_id", taskID),
		slog.String("data_source", source),
	)
	created.Status = StatusQueued
	return created, nil
}

// Get 返回指定任务的状态。
func (s *Service) Get(ctx context.Context, id string) (*Task, error) {
	if s.store == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "任务存储未初始化")
	}
	return s.store.Get(ctx, id)
}

// List 返回符合过滤条件的任务列表。
func (s *Service) List(ctx context.Context, opts ...ListOption) ([]*Task, error) {
	if s.store == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "任务存储未初始化")
	}
	options := buildListOptions(opts)
	return s.store.List(ctx, options)
}

// Stats 返回符合过滤条件的任务统计信息。
func (s *Service) Stats(ctx context.Context, opts ...ListOption) (TaskStats, error) {
	if s.store == nil {
		return TaskStats{}, xerrors.New(xerrors.CodeInitializationFailure, "任务存储未初始化")
	}
	options := buildListOptions(opts)
	return s.store.Stats(ctx, options)
}

// Close 释放资源。
func (s *Service) Close() error {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			return err
		}
	}
	if s.producer != nil {
		return s.producer.Close()
	}
	return nil
}

// newTaskID 生成对外可见的任务标识，形如 task_1a2b3c4d。
func newTaskID() string {
	id := uuid.New()
	return "task_" + hex.EncodeToString(id[:4])
}
