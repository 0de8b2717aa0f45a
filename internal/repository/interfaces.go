package repository

import (
	"context"

	"github.com/ByteCraftsmanY/fastapi-crud/internal/entity"
)

// ITaskRepository - интерфейс для TaskRepository
type ITaskRepository interface {
	Create(ctx context.Context, task *entity.CreateTaskRequest) (*entity.Task, error)
	GetByTaskId(ctx context.Context, taskId int) (*entity.Task, error)
	Update(ctx context.Context, id int, updates map[string]interface{}) (*entity.Task, error)
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, filter entity.TaskFilter) ([]entity.Task, error)
}

// ITaskAuditRepository - интерфейс для TaskAuditRepository
type ITaskAuditRepository interface {
	Create(ctx context.Context, audit *entity.TaskAudit) error
	GetByEntityId(ctx context.Context, entityId int) ([]entity.TaskAudit, error)
}
