package agent

import (
	"context"

	xerrors "AutoFlow-Agent/internal/errors"
)

// Result 汇总一次任务流水线执行得到的最终记录。
type Result struct {
	TaskID        string         `json:"task_id"`
	Category      Category       `json:"category"`
	Reasoning     string         `json:"reasoning"`
	ActionTaken   ActionType     `json:"action_taken"`
	ActionResult  map[string]any `json:"action_result"`
	DataRetrieved Record         `json:"data_retrieved"`
}

// Pipeline 协调数据获取、分类、动作解析与动作执行，是系统的业务核心。
// Pipeline 自身不持有跨调用状态，每次 Process 相互独立。
type Pipeline struct {
	retriever  Retriever
	classifier Classifier
	resolver   Resolver
	executor   Executor
}

// Option 定义可选的 Pipeline 配置。
type Option func(*Pipeline)

// WithRetriever 替换业务数据获取实现。
func WithRetriever(retriever Retriever) Option {
	return func(p *Pipeline) {
		if retriever != nil {
			p.retriever = retriever
		}
	}
}

// WithClassifier 替换分类器实现。
func WithClassifier(classifier Classifier) Option {
	return func(p *Pipeline) {
		if classifier != nil {
			p.classifier = classifier
		}
	}
}

// WithResolver 替换动作解析实现。
func WithResolver(resolver Resolver) Option {
	return func(p *Pipeline) {
		if resolver != nil {
			p.resolver = resolver
		}
	}
}

// WithExecutor 替换动作执行实现。
func WithExecutor(executor Executor) Option {
	return func(p *Pipeline) {
		if executor != nil {
			p.executor = executor
		}
	}
}

// NewPipeline 创建 Pipeline，未显式配置的协作方使用内置实现。
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		retriever:  NewStaticRetriever(),
		classifier: NewRuleClassifier(),
		resolver:   NewStandardResolver(),
		executor:   NewStubExecutor(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Process 对单个任务顺序执行：获取数据 → 分类 → 解析动作 → 执行动作 → 汇总结果。
// 任一步骤失败直接向调用方（worker）传播，内部不做重试。
func (p *Pipeline) Process(ctx context.Context, taskID string, params map[string]any) (*Result, error) {
	if p.retriever == nil || p.classifier == nil || p.resolver == nil || p.executor == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "流水线协作方未配置")
	}

	// 获取业务数据。未指定数据源时使用默认 dummy 源。
	source := DefaultSource
	if v, ok := params["data_source"].(string); ok && v != "" {
		source = v
	}
	data, err := p.retriever.FetchBusinessData(ctx, source)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodePipelineFailure, err, "获取业务数据失败")
	}

	// 分类与推理。
	category, reasoning := p.classifier.Categorize(data)

	// 由分类决定动作。
	spec := p.resolver.Resolve(category, data)

	// 执行动作。
	actionResult, err := p.executor.Execute(ctx, spec)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodePipelineFailure, err, "执行动作失败")
	}

	return &Result{
		TaskID:        taskID,
		Category:      category,
		Reasoning:     reasoning,
		ActionTaken:   spec.Type,
		ActionResult:  actionResult,
		DataRetrieved: data,
	}, nil
}
