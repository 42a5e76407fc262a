package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"AutoFlow-Agent/internal/observability/metrics"
	"AutoFlow-Agent/internal/task"
)

// Server 负责暴露 REST 接口，供外部提交任务并查询处理结果。
type Server struct {
	addr    string
	service *task.Service
}

// NewServer 构造 API 服务实例。
func NewServer(addr string, service *task.Service) *Server {
	return &Server{addr: addr, service: service}
}

// Start 启动 HTTP 服务，直到上下文取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/api/run-task", instrument("run_task", s.handleRunTask))
	mux.Handle("/api/task/", instrument("task_detail", s.handleTaskDetail))
	mux.Handle("/api/tasks", instrument("task_list", s.handleTaskList))
	mux.Handle("/api/stats", instrument("task_stats", s.handleTaskStats))
	mux.Handle("/api/health", instrument("health", s.handleHealth))
	mux.Handle("/metrics", metrics.Handler())

	server := &http.Server{
		Addr:              s.addr,
		Handler:           withContext(ctx, mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// runTaskResponse 是任务提交接口的响应体。
type runTaskResponse struct {
	TaskID  string `json:"task_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// handleRunTask 处理任务提交请求。
func (s *Server) handleRunTask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "仅支持 POST", http.StatusMethodNotAllowed)
		return
	}
	if s.service == nil {
		http.Error(w, "任务服务未初始化", http.StatusServiceUnavailable)
		return
	}

	var req task.SubmitRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "请求体解析失败", http.StatusBadRequest)
			return
		}
	}

	created, err := s.service.Submit(r.Context(), req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, runTaskResponse{
		TaskID:  created.ID,
		Status:  string(created.Status),
		Message: fmt.Sprintf("Task %s queued for processing", created.ID),
	})
}

// taskResponse 是对外暴露的任务记录，时间戳按 RFC3339 输出。
type taskResponse struct {
	TaskID      string         `json:"task_id"`
	Status      string         `json:"status"`
	Category    *string        `json:"category"`
	Reasoning   *string        `json:"reasoning"`
	ActionTaken *string        `json:"action_taken"`
	Result      map[string]any `json:"result"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   string         `json:"updated_at"`
}

func newTaskResponse(t *task.Task) taskResponse {
	resp := taskResponse{
		TaskID:    t.ID,
		Status:    string(t.Status),
		Result:    t.Result,
		CreatedAt: time.Unix(t.CreatedAt, 0).UTC().Format(time.RFC3339),
		UpdatedAt: time.Unix(t.UpdatedAt, 0).UTC().Format(time.RFC3339),
	}
	if t.Category != "" {
		resp.Category = &t.Category
	}
	if t.Reasoning != "" {
		resp.Reasoning = &t.Reasoning
	}
	if t.ActionTaken != "" {
		resp.ActionTaken = &t.ActionTaken
	}
	return resp
}

// handleTaskDetail 处理任务状态查询。未知任务返回 404，不与 failed 状态混淆。
func (s *Server) handleTaskDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "仅支持 GET", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/task/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "无效的任务 ID", http.StatusBadRequest)
		return
	}

	found, err := s.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, task.ErrTaskNotFound) {
			http.Error(w, "Task not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, newTaskResponse(found))
}

// handleTaskList 返回最近的任务列表。
func (s *Server) handleTaskList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "仅支持 GET", http.StatusMethodNotAllowed)
		return
	}

	opts := []task.ListOption{}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		var limit int
		if _, err := fmt.Sscanf(raw, "%d", &limit); err == nil && limit > 0 {
			opts = append(opts, task.WithLimit(limit))
		}
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		opts = append(opts, task.WithStatuses(task.Status(raw)))
	}

	tasks, err := s.service.List(r.Context(), opts...)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	responses := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		responses = append(responses, newTaskResponse(t))
	}
	writeJSON(w, http.StatusOK, responses)
}

// handleTaskStats 返回任务统计信息。
func (s *Server) handleTaskStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "仅支持 GET", http.StatusMethodNotAllowed)
		return
	}
	stats, err := s.service.Stats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleHealth 处理健康检查。
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "仅支持 GET", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "autoflow-agent",
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// statusRecorder 捕获写入的状态码，供指标采集使用。
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument 为处理器包装请求指标采集。
func instrument(name string, handler http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		handler(recorder, r)
		metrics.ObserveHTTPRequest(name, r.Method, recorder.status, time.Since(start))
	})
}

// withContext 确保请求处理能够感知根上下文取消。
func withContext(ctx context.Context, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-ctx.Done():
			http.Error(w, "服务已关闭", http.StatusServiceUnavailable)
			return
		default:
		}
		handler.ServeHTTP(w, r)
	})
}
