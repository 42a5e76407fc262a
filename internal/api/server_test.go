package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"AutoFlow-Agent/internal/agent"
	"AutoFlow-Agent/internal/task"
)

func newTestServer(t *testing.T) (*Server, *task.MemoryStore, *task.MemoryQueue) {
	t.Helper()
	store := task.NewMemoryStore()
	queue := task.NewMemoryQueue()
	service := task.NewService(store, queue)
	return NewServer(":0", service), store, queue
}

func TestHandleRunTask(t *testing.T) {
	server, store, queue := newTestServer(t)
	defer queue.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/run-task", strings.NewReader(`{"params":{"note":"hi"}}`))
	rec := httptest.NewRecorder()
	server.handleRunTask(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d, body %s", rec.Code, rec.Body.String())
	}
	var resp runTaskResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TaskID == "" || resp.Status != string(task.StatusQueued) {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if !strings.Contains(resp.Message, resp.TaskID) {
		t.Fatalf("message should reference the task id: %s", resp.Message)
	}

	stored, err := store.Get(context.Background(), resp.TaskID)
	if err != nil {
		t.Fatalf("task should be persisted before the response: %v", err)
	}
	if stored.Status != task.StatusQueued {
		t.Fatalf("unexpected stored status: %s", stored.Status)
	}
}

func TestHandleRunTaskEmptyBody(t *testing.T) {
	server, _, queue := newTestServer(t)
	defer queue.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/run-task", strings.NewReader(""))
	rec := httptest.NewRecorder()
	server.handleRunTask(rec, req)

	// 空请求体按默认数据源提交。
	if rec.Code != http.StatusOK {
		t.Fatalf("empty body should be accepted, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleRunTaskRejectsBadInput(t *testing.T) {
	server, _, queue := newTestServer(t)
	defer queue.Close()

	req := httptest.NewRequest(http.MethodGet, "/api/run-task", nil)
	rec := httptest.NewRecorder()
	server.handleRunTask(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET should be rejected, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/run-task", strings.NewReader("{not json"))
	rec = httptest.NewRecorder()
	server.handleRunTask(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed body should be rejected, got %d", rec.Code)
	}
}

func TestHandleTaskDetail(t *testing.T) {
	server, store, queue := newTestServer(t)
	defer queue.Close()

	seeded := &task.Task{
		ID:          "task_abcd1234",
		Status:      task.StatusCompleted,
		Category:    string(agent.CategoryHighValueOrder),
		Reasoning:   "threshold exceeded",
		ActionTaken: string(agent.ActionApproveOrder),
		Result:      map[string]any{"status": "approved"},
	}
	if err := store.Save(context.Background(), seeded); err != nil {
		t.Fatalf("seed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/task/task_abcd1234", nil)
	rec := httptest.NewRecorder()
	server.handleTaskDetail(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d, body %s", rec.Code, rec.Body.String())
	}
	var resp taskResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TaskID != "task_abcd1234" || resp.Status != string(task.StatusCompleted) {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Category == nil || *resp.Category != string(agent.CategoryHighValueOrder) {
		t.Fatalf("category missing: %+v", resp)
	}
	if _, err := time.Parse(time.RFC3339, resp.CreatedAt); err != nil {
		t.Fatalf("created_at is not RFC3339: %s", resp.CreatedAt)
	}
	if _, err := time.Parse(time.RFC3339, resp.UpdatedAt); err != nil {
		t.Fatalf("updated_at is not RFC3339: %s", resp.UpdatedAt)
	}
}

func TestHandleTaskDetailPendingFieldsAreNull(t *testing.T) {
	server, store, queue := newTestServer(t)
	defer queue.Close()

	if err := store.Save(context.Background(), &task.Task{ID: "task_pending1", Status: task.StatusQueued}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/task/task_pending1", nil)
	rec := httptest.NewRecorder()
	server.handleTaskDetail(rec, req)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	for _, field := range []string{"category", "reasoning", "action_taken"} {
		if string(raw[field]) != "null" {
			t.Fatalf("field %s should be null while pending, got %s", field, raw[field])
		}
	}
}

func TestHandleTaskDetailNotFound(t *testing.T) {
	server, _, queue := newTestServer(t)
	defer queue.Close()

	req := httptest.NewRequest(http.MethodGet, "/api/task/task_missing", nil)
	rec := httptest.NewRecorder()
	server.handleTaskDetail(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown task should return 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Task not found") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestHandleTaskDetailBadPath(t *testing.T) {
	server, _, queue := newTestServer(t)
	defer queue.Close()

	for _, path := range []string{"/api/task/", "/api/task/a/b"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		server.handleTaskDetail(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("path %s should return 400, got %d", path, rec.Code)
		}
	}
}

func TestHandleTaskList(t *testing.T) {
	server, store, queue := newTestServer(t)
	defer queue.Close()

	ctx := context.Background()
	seed := []*task.Task{
		{ID: "task_1", Status: task.StatusQueued},
		{ID: "task_2", Status: task.StatusCompleted},
		{ID: "task_3", Status: task.StatusFailed},
	}
	for _, item := range seed {
		if err := store.Save(ctx, item); err != nil {
			t.Fatalf("seed %s: %v", item.ID, err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/tasks?status=completed", nil)
	rec := httptest.NewRecorder()
	server.handleTaskList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var resp []taskResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 1 || resp[0].TaskID != "task_2" {
		t.Fatalf("unexpected filtered list: %+v", resp)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/tasks?limit=2", nil)
	rec = httptest.NewRecorder()
	server.handleTaskList(rec, req)
	resp = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("limit not applied: %d", len(resp))
	}
}

func TestHandleTaskStats(t *testing.T) {
	server, store, queue := newTestServer(t)
	defer queue.Close()

	ctx := context.Background()
	if err := store.Save(ctx, &task.Task{ID: "task_1", Status: task.StatusQueued}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := store.Save(ctx, &task.Task{ID: "task_2", Status: task.StatusCompleted}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	server.handleTaskStats(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var stats task.TaskStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if stats.Total != 2 || stats.Queued != 1 || stats.Completed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestHandleHealth(t *testing.T) {
	server, _, queue := newTestServer(t)
	defer queue.Close()

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	server.handleHealth(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "healthy" || resp["service"] != "autoflow-agent" {
		t.Fatalf("unexpected health payload: %v", resp)
	}
}
