package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/ByteCraftsmanY/fastapi-crud/internal/api"
	"github.com/ByteCraftsmanY/fastapi-crud/internal/entity"
	"github.com/ByteCraftsmanY/fastapi-crud/internal/repository"
	"github.com/ByteCraftsmanY/fastapi-crud/internal/usecase"
)

// FakeTaskRepository - in-memory реализация ITaskRepository для тестов хендлеров
type FakeTaskRepository struct {
	tasks  map[int]*entity.Task
	nextID int
}

var _ repository.ITaskRepository = (*FakeTaskRepository)(nil)

func NewFakeTaskRepository() *FakeTaskRepository {
	return &FakeTaskRepository{
		tasks:  make(map[int]*entity.Task),
		nextID: 1,
	}
}

func (f *FakeTaskRepository) Create(ctx context.Context, req *entity.CreateTaskRequest) (*entity.Task, error) {
	for _, task := range f.tasks {
		if task.TaskCode == req.TaskCode {
			return nil, entity.ErrTaskCodeExists
		}
	}

	task := &entity.Task{
		ID:          f.nextID,
		Title:       req.Title,
		Description: req.Description,
		TaskCode:    req.TaskCode,
		Priority:    req.Priority,
		Status:      entity.StatusTodo,
		CreatedAt:   time.Now(),
	}
	f.tasks[task.ID] = task
	f.nextID++

	copied := *task
	return &copied, nil
}

func (f *FakeTaskRepository) GetByTaskId(ctx context.Context, taskId int) (*entity.Task, error) {
	task, ok := f.tasks[taskId]
	if !ok {
		return nil, nil
	}
	copied := *task
	return &copied, nil
}

func (f *FakeTaskRepository) Update(ctx context.Context, id int, updates map[string]interface{}) (*entity.Task, error) {
	task, ok := f.tasks[id]
	if !ok {
		return nil, entity.ErrTaskNotFound
	}

	for field, value := range updates {
		switch field {
		case "title":
			task.Title = value.(string)
		case "description":
			ptr, _ := value.(*string)
			task.Description = ptr
		case "priority":
			task.Priority = value.(int)
		case "status":
			task.Status = value.(entity.TaskStatus)
		}
	}
	now := time.Now()
	task.UpdatedAt = &now

	copied := *task
	return &copied, nil
}

func (f *FakeTaskRepository) Delete(ctx context.Context, id int) error {
	if _, ok := f.tasks[id]; !ok {
		return entity.ErrTaskNotFound
	}
	delete(f.tasks, id)
	return nil
}

func (f *FakeTaskRepository) List(ctx context.Context, filter entity.TaskFilter) ([]entity.Task, error) {
	result := make([]entity.Task, 0)
	for _, task := range f.tasks {
		if filter.Status != nil && task.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && task.Priority != *filter.Priority {
			continue
		}
		result = append(result, *task)
	}

	sort.Slice(result, func(i, j int) bool {
		if filter.Sort == entity.SortCreatedAt && filter.SortOrder == "desc" {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})

	if filter.Offset >= len(result) {
		return []entity.Task{}, nil
	}
	result = result[filter.Offset:]
	if len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

type NopPublisher struct{}

func (NopPublisher) PublishAuditMessage(ctx context.Context, message *entity.AuditMessage) error {
	return nil
}

func newTestServer() (*httptest.Server, *FakeTaskRepository) {
	repo := NewFakeTaskRepository()
	service := usecase.NewTaskService(repo, NopPublisher{})
	return httptest.NewServer(api.NewRouter(service)), repo
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, map[string]interface{}) {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do error: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestHealthCheck(t *testing.T) {
	server, _ := newTestServer()
	defer server.Close()

	resp, body := doJSON(t, http.MethodGet, server.URL+"/", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if body["status"] != "healthy" {
		t.Errorf("Expected status healthy, got %v", body["status"])
	}
	if body["message"] != "FastAPI CRUD Service is running" {
		t.Errorf("Unexpected message: %v", body["message"])
	}
}

func TestCreateTask(t *testing.T) {
	server, _ := newTestServer()
	defer server.Close()

	payload := `{"title":"Test Task","description":"Test Description","priority":1,"task_code":"TEST-123"}`
	resp, body := doJSON(t, http.MethodPost, server.URL+"/task/", payload)

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", resp.StatusCode)
	}

	if body["title"] != "Test Task" {
		t.Errorf("Expected title Test Task, got %v", body["title"])
	}
	if body["description"] != "Test Description" {
		t.Errorf("Expected description Test Description, got %v", body["description"])
	}
	if body["task_code"] != "TEST-123" {
		t.Errorf("Expected task_code TEST-123, got %v", body["task_code"])
	}
	if body["priority"] != float64(1) {
		t.Errorf("Expected priority 1, got %v", body["priority"])
	}
	if body["status"] != "todo" {
		t.Errorf("Expected status todo, got %v", body["status"])
	}
	if body["id"] == nil {
		t.Error("Expected id to be set")
	}
	if body["created_at"] == nil {
		t.Error("Expected created_at to be set")
	}
	if body["updated_at"] != nil {
		t.Errorf("Expected null updated_at, got %v", body["updated_at"])
	}
}

func TestCreateTaskDuplicateCode(t *testing.T) {
	server, _ := newTestServer()
	defer server.Close()

	payload := `{"title":"Test Task","task_code":"TEST-123"}`
	resp, _ := doJSON(t, http.MethodPost, server.URL+"/task/", payload)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", resp.StatusCode)
	}

	resp, body := doJSON(t, http.MethodPost, server.URL+"/task/", `{"title":"Other Task","task_code":"TEST-123"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("Expected 409, got %d", resp.StatusCode)
	}
	if body["path"] != "/task/" {
		t.Errorf("Expected path /task/ in error envelope, got %v", body["path"])
	}

	// первая задача осталась читаемой с исходными данными
	resp, body = doJSON(t, http.MethodGet, server.URL+"/task/1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if body["title"] != "Test Task" {
		t.Errorf("Expected title Test Task, got %v", body["title"])
	}
}

func TestCreateTaskInvalidPriority(t *testing.T) {
	server, _ := newTestServer()
	defer server.Close()

	resp, body := doJSON(t, http.MethodPost, server.URL+"/task/", `{"title":"T","task_code":"C","priority":6}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422, got %d", resp.StatusCode)
	}

	message, _ := body["message"].(string)
	if !strings.Contains(message, "priority") {
		t.Errorf("Expected message to name the priority field, got %q", message)
	}
}

func TestListUnknownParamRejected(t *testing.T) {
	server, _ := newTestServer()
	defer server.Close()

	resp, _ := doJSON(t, http.MethodGet, server.URL+"/task/?color=red", "")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422, got %d", resp.StatusCode)
	}
}

func TestListInvalidLimit(t *testing.T) {
	server, _ := newTestServer()
	defer server.Close()

	for _, query := range []string{"limit=0", "limit=21", "limit=abc", "offset=-1", "sort=title", "sort_order=up", "status=done", "priority=9"} {
		resp, _ := doJSON(t, http.MethodGet, server.URL+"/task/?"+query, "")
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Errorf("%s: expected 422, got %d", query, resp.StatusCode)
		}
	}
}

func TestListFiltersAndPagination(t *testing.T) {
	server, _ := newTestServer()
	defer server.Close()

	for i := 0; i < 15; i++ {
		code := "TEST-" + string(rune('A'+i))
		payload := `{"title":"Task","task_code":"` + code + `","priority":2}`
		resp, _ := doJSON(t, http.MethodPost, server.URL+"/task/", payload)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("seed: expected 201, got %d", resp.StatusCode)
		}
	}

	// default limit 10
	resp, _ := doJSON(t, http.MethodGet, server.URL+"/task/", "")
	tasks := decodeTaskList(t, server.URL+"/task/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if len(tasks) != 10 {
		t.Errorf("Expected 10 tasks by default, got %d", len(tasks))
	}

	tasks = decodeTaskList(t, server.URL+"/task/?limit=5&offset=12")
	if len(tasks) != 3 {
		t.Errorf("Expected 3 tasks after offset 12, got %d", len(tasks))
	}

	tasks = decodeTaskList(t, server.URL+"/task/?status=completed")
	if len(tasks) != 0 {
		t.Errorf("Expected no completed tasks, got %d", len(tasks))
	}

	tasks = decodeTaskList(t, server.URL+"/task/?priority=2&limit=20")
	if len(tasks) != 15 {
		t.Errorf("Expected 15 tasks with priority 2, got %d", len(tasks))
	}
}

func decodeTaskList(t *testing.T, url string) []entity.Task {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	defer resp.Body.Close()

	var tasks []entity.Task
	if err := json.NewDecoder(resp.Body).Decode(&tasks); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return tasks
}

func TestGetTaskNotFound(t *testing.T) {
	server, _ := newTestServer()
	defer server.Close()

	resp, body := doJSON(t, http.MethodGet, server.URL+"/task/999999", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", resp.StatusCode)
	}
	if body["status"] != float64(http.StatusNotFound) {
		t.Errorf("Expected status 404 in envelope, got %v", body["status"])
	}
}

func TestGetTaskInvalidId(t *testing.T) {
	server, _ := newTestServer()
	defer server.Close()

	resp, _ := doJSON(t, http.MethodGet, server.URL+"/task/abc", "")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422, got %d", resp.StatusCode)
	}
}

func TestUpdateTaskPartialPatch(t *testing.T) {
	server, _ := newTestServer()
	defer server.Close()

	resp, created := doJSON(t, http.MethodPost, server.URL+"/task/", `{"title":"X","task_code":"TEST-1"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", resp.StatusCode)
	}
	id := created["id"].(float64)

	resp, body := doJSON(t, http.MethodPatch, server.URL+"/task/1", `{"priority": 3}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	if body["title"] != "X" {
		t.Errorf("Expected title X preserved, got %v", body["title"])
	}
	if body["priority"] != float64(3) {
		t.Errorf("Expected priority 3, got %v", body["priority"])
	}
	if body["updated_at"] == nil {
		t.Error("Expected non-null updated_at after update")
	}
	if body["id"] != id {
		t.Errorf("Expected id %v, got %v", id, body["id"])
	}
}

func TestUpdateTaskNotFound(t *testing.T) {
	server, _ := newTestServer()
	defer server.Close()

	resp, _ := doJSON(t, http.MethodPatch, server.URL+"/task/999999", `{"priority": 3}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", resp.StatusCode)
	}
}

func TestUpdateTaskInvalidStatus(t *testing.T) {
	server, _ := newTestServer()
	defer server.Close()

	doJSON(t, http.MethodPost, server.URL+"/task/", `{"title":"X","task_code":"TEST-1"}`)

	resp, _ := doJSON(t, http.MethodPatch, server.URL+"/task/1", `{"status": "done"}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422, got %d", resp.StatusCode)
	}
}

func TestDeleteTask(t *testing.T) {
	server, _ := newTestServer()
	defer server.Close()

	doJSON(t, http.MethodPost, server.URL+"/task/", `{"title":"X","task_code":"TEST-1"}`)

	resp, body := doJSON(t, http.MethodDelete, server.URL+"/task/1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if body["success"] != true {
		t.Errorf("Expected success true, got %v", body["success"])
	}
	if body["message"] != "task 1 deleted" {
		t.Errorf("Unexpected message: %v", body["message"])
	}

	// после удаления задачи больше нет
	resp, _ = doJSON(t, http.MethodGet, server.URL+"/task/1", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("Expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestDeleteTaskNotFound(t *testing.T) {
	server, _ := newTestServer()
	defer server.Close()

	resp, _ := doJSON(t, http.MethodDelete, server.URL+"/task/999999", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", resp.StatusCode)
	}
}
