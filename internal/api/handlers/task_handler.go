package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ByteCraftsmanY/fastapi-crud/internal/entity"
	"github.com/ByteCraftsmanY/fastapi-crud/internal/usecase"
	"github.com/go-chi/chi/v5"
)

type TaskHandler struct {
	taskService *usecase.TaskService
}

func NewTaskHandler(taskService *usecase.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// создаем новую задачу
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {

	var req entity.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusUnprocessableEntity, "Invalid JSON")
		return
	}

	// валидация до бизнес-логики
	if err := req.Validate(); err != nil {
		respondError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	task, err := h.taskService.CreateTask(r.Context(), &req)
	if err != nil {
		switch err {
		case entity.ErrTaskCodeExists:
			respondError(w, r, http.StatusConflict, "task code already exists") // 409
		default:
			respondError(w, r, http.StatusInternalServerError, "Internal server error") // 500
		}
		return
	}

	respondJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	taskIdStr := chi.URLParam(r, "id") // id задачи
	taskId, err := strconv.Atoi(taskIdStr)
	if err != nil {
		respondError(w, r, http.StatusUnprocessableEntity, "Invalid task Id")
		return
	}

	task, err := h.taskService.GetTask(r.Context(), taskId)
	if err != nil {
		switch err {
		case entity.ErrTaskNotFound:
			respondError(w, r, http.StatusNotFound, fmt.Sprintf("Task with ID %d not found", taskId))
		default:
			respondError(w, r, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respondJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	taskIdStr := chi.URLParam(r, "id")
	taskId, err := strconv.Atoi(taskIdStr)
	if err != nil {
		respondError(w, r, http.StatusUnprocessableEntity, "Invalid task Id")
		return
	}

	var req entity.UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusUnprocessableEntity, "Invalid JSON")
		return
	}

	if err := req.Validate(); err != nil {
		respondError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	task, err := h.taskService.UpdateTask(r.Context(), taskId, &req)
	if err != nil {
		switch err {
		case entity.ErrTaskNotFound:
			respondError(w, r, http.StatusNotFound, fmt.Sprintf("Task with ID %d not found", taskId))
		default:
			respondError(w, r, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respondJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	taskIdStr := chi.URLParam(r, "id")
	taskId, err := strconv.Atoi(taskIdStr)
	if err != nil {
		respondError(w, r, http.StatusUnprocessableEntity, "Invalid task Id")
		return
	}

	err = h.taskService.DeleteTask(r.Context(), taskId)
	if err != nil {
		switch err {
		case entity.ErrTaskNotFound:
			respondError(w, r, http.StatusNotFound, fmt.Sprintf("Task with ID %d not found", taskId))
		default:
			respondError(w, r, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("task %d deleted", taskId),
	})
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r.URL.Query())
	if err != nil {
		respondError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	tasks, err := h.taskService.ListTasks(r.Context(), filter)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, tasks)
}

// parseListFilter - строгий разбор query-параметров списка,
// неизвестные ключи отклоняем
func parseListFilter(values url.Values) (entity.TaskFilter, error) {
	filter := entity.TaskFilter{
		Limit: entity.DefaultListLimit,
	}

	for key := range values {
		switch key {
		case "status", "priority", "offset", "limit", "sort", "sort_order":
		default:
			return filter, &entity.ValidationError{Field: key, Message: "unknown query parameter"}
		}
	}

	if raw := values.Get("status"); raw != "" {
		status := entity.TaskStatus(raw)
		switch status {
		case entity.StatusTodo, entity.StatusInProgress, entity.StatusCompleted, entity.StatusCancelled:
			filter.Status = &status
		default:
			return filter, &entity.ValidationError{Field: "status", Message: "must be one of: todo in_progress completed cancelled"}
		}
	}

	if raw := values.Get("priority"); raw != "" {
		priority, err := strconv.Atoi(raw)
		if err != nil || priority < 0 || priority > 5 {
			return filter, &entity.ValidationError{Field: "priority", Message: "must be an integer between 0 and 5"}
		}
		filter.Priority = &priority
	}

	if raw := values.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return filter, &entity.ValidationError{Field: "offset", Message: "must be a non-negative integer"}
		}
		filter.Offset = offset
	}

	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > entity.MaxListLimit {
			return filter, &entity.ValidationError{Field: "limit", Message: "must be an integer between 1 and 20"}
		}
		filter.Limit = limit
	}

	if raw := values.Get("sort"); raw != "" {
		if raw != entity.SortCreatedAt && raw != entity.SortUpdatedAt {
			return filter, &entity.ValidationError{Field: "sort", Message: "must be one of: created_at updated_at"}
		}
		filter.Sort = raw
	}

	if raw := values.Get("sort_order"); raw != "" {
		if raw != "asc" && raw != "desc" {
			return filter, &entity.ValidationError{Field: "sort_order", Message: "must be one of: asc desc"}
		}
		filter.SortOrder = raw
	}

	return filter, nil
}
