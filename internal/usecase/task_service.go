package usecase

import (
	"context"
	"log"
	"time"

	"github.com/ByteCraftsmanY/fastapi-crud/internal/entity"
	"github.com/ByteCraftsmanY/fastapi-crud/internal/repository"
)

// RabbitMQPublisher интерфейс для публикации в RabbitMQ
type RabbitMQPublisher interface {
	PublishAuditMessage(ctx context.Context, message *entity.AuditMessage) error
}

type TaskService struct {
	taskRepo repository.ITaskRepository
	rabbitMQ RabbitMQPublisher
}

func NewTaskService(taskRepo repository.ITaskRepository, rabbitMQ RabbitMQPublisher) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		rabbitMQ: rabbitMQ,
	}
}

func (s *TaskService) CreateTask(ctx context.Context, req *entity.CreateTaskRequest) (*entity.Task, error) {
	// status, id и created_at выставляет хранилище
	task, err := s.taskRepo.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	// Асинхронно отправляем аудит
	s.sendAuditMessage(entity.ActionCreate, task.ID, nil, task, nil)

	return task, nil
}

func (s *TaskService) GetTask(ctx context.Context, taskID int) (*entity.Task, error) {
	task, err := s.taskRepo.GetByTaskId(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, entity.ErrTaskNotFound
	}

	return task, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, taskID int, req *entity.UpdateTaskRequest) (*entity.Task, error) {
	// 1. Получаем текущую задачу (для аудита)
	oldTask, err := s.taskRepo.GetByTaskId(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if oldTask == nil {
		return nil, entity.ErrTaskNotFound
	}

	// 2. Подготавливаем обновления: берем только поля, пришедшие в запросе.
	// description - nullable колонка, явный null ее очищает
	updates := make(map[string]interface{})

	if req.Has("title") {
		updates["title"] = *req.Title
	}
	if req.Has("description") {
		updates["description"] = req.Description
	}
	if req.Has("priority") {
		updates["priority"] = *req.Priority
	}
	if req.Has("status") {
		updates["status"] = *req.Status
	}

	// 3. Обновляем задачу. Пустой patch тоже проходит:
	// updated_at обновляется в любом случае
	updatedTask, err := s.taskRepo.Update(ctx, taskID, updates)
	if err != nil {
		return nil, err
	}

	// 4. Асинхронно отправляем аудит
	s.sendAuditMessage(entity.ActionUpdate, taskID, oldTask, updatedTask, updates)

	return updatedTask, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, taskID int) error {
	// 1. Получаем задачу (для аудита)
	task, err := s.taskRepo.GetByTaskId(ctx, taskID)
	if err != nil {
		return err
	}
	if task == nil {
		return entity.ErrTaskNotFound
	}

	// 2. Удаляем задачу
	err = s.taskRepo.Delete(ctx, taskID)
	if err != nil {
		return err
	}

	// 3. Асинхронно отправляем аудит
	s.sendAuditMessage(entity.ActionDelete, taskID, task, nil, nil)

	return nil
}

func (s *TaskService) ListTasks(ctx context.Context, filter entity.TaskFilter) ([]entity.Task, error) {
	return s.taskRepo.List(ctx, filter)
}

func taskValues(task *entity.Task) map[string]interface{} {
	return map[string]interface{}{
		"title":       task.Title,
		"description": task.Description,
		"task_code":   task.TaskCode,
		"priority":    task.Priority,
		"status":      task.Status,
	}
}

// Вспомогательный метод для отправки аудита
func (s *TaskService) sendAuditMessage(
	action entity.ActionType,
	taskID int,
	oldTask *entity.Task,
	newTask *entity.Task,
	updates map[string]interface{},
) {
	auditMsg := &entity.AuditMessage{
		Action:    action,
		EntityID:  taskID,
		Timestamp: time.Now(),
	}

	if oldTask != nil {
		auditMsg.OldValues = taskValues(oldTask)
	}
	if newTask != nil {
		auditMsg.NewValues = taskValues(newTask)
	}

	if action == entity.ActionUpdate && oldTask != nil && newTask != nil {
		// Вычисляем изменения по затронутым полям
		changes := make(map[string]interface{})
		for field := range updates {
			old, ok := auditMsg.OldValues[field]
			if !ok {
				continue
			}
			changes[field] = map[string]interface{}{"old": old, "new": auditMsg.NewValues[field]}
		}
		auditMsg.Changes = changes
	}

	// Асинхронная отправка в RabbitMQ, ошибка не роняет запрос
	go func() {
		if err := s.rabbitMQ.PublishAuditMessage(context.Background(), auditMsg); err != nil {
			log.Printf("❌ Ошибка отправки аудита в RabbitMQ: %v", err)
		}
	}()
}
