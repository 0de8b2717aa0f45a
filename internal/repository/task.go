package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/ByteCraftsmanY/fastapi-crud/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// код ошибки Postgres для нарушения уникальности
const uniqueViolationCode = "23505"

type TaskRepository struct {
	db *pgxpool.Pool
}

func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{
		db: db,
	}
}

func (r *TaskRepository) Create(ctx context.Context, task *entity.CreateTaskRequest) (*entity.Task, error) {

	query := `
	INSERT INTO "task" (title, description, task_code, priority, status)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, title, description, task_code, priority, status, created_at, updated_at
	`

	var createdTask entity.Task
	err := r.db.QueryRow(ctx, query,
		task.Title,
		task.Description,
		task.TaskCode,
		task.Priority,
		entity.StatusTodo,
	).Scan(
		&createdTask.ID,
		&createdTask.Title,
		&createdTask.Description,
		&createdTask.TaskCode,
		&createdTask.Priority,
		&createdTask.Status,
		&createdTask.CreatedAt,
		&createdTask.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, entity.ErrTaskCodeExists
		}
		return nil, err
	}

	return &createdTask, nil
}

func (r *TaskRepository) GetByTaskId(ctx context.Context, taskId int) (*entity.Task, error) {

	query := `
	SELECT id, title, description, task_code, priority, status, created_at, updated_at
	FROM "task"
	WHERE id = $1
	`
	var task entity.Task

	err := r.db.QueryRow(ctx, query, taskId).Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.TaskCode,
		&task.Priority,
		&task.Status,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &task, nil
}

// Update - обновление задачи одним атомарным UPDATE.
// updated_at обновляется всегда, даже если updates пустой
func (r *TaskRepository) Update(ctx context.Context, id int, updates map[string]interface{}) (*entity.Task, error) {
	// Динамически строим SET часть запроса
	setClause := "updated_at = CURRENT_TIMESTAMP"
	args := []interface{}{}
	argIndex := 1

	for field, value := range updates {
		if field == "updated_at" {
			continue // не обновляем вручную
		}
		setClause += ", " + field + " = $" + strconv.Itoa(argIndex)
		args = append(args, value)
		argIndex++
	}

	query := `
        UPDATE task
        SET ` + setClause + `
        WHERE id = $` + strconv.Itoa(argIndex) + `
        RETURNING id, title, description, task_code, priority, status, created_at, updated_at
    `
	args = append(args, id)

	var task entity.Task
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.TaskCode,
		&task.Priority,
		&task.Status,
		&task.CreatedAt,
		&task.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, entity.ErrTaskNotFound
		}
		return nil, err
	}

	return &task, nil
}

// Delete - удаление задачи
func (r *TaskRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM task WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrTaskNotFound
	}
	return nil
}

// List - список задач с фильтрацией, сортировкой и пагинацией
func (r *TaskRepository) List(ctx context.Context, filter entity.TaskFilter) ([]entity.Task, error) {
	query := `
        SELECT id, title, description, task_code, priority, status, created_at, updated_at
        FROM task
    `
	args := []interface{}{}
	argIndex := 1

	where := ""
	if filter.Status != nil {
		where = " WHERE status = $" + strconv.Itoa(argIndex)
		args = append(args, *filter.Status)
		argIndex++
	}
	if filter.Priority != nil {
		if where == "" {
			where = " WHERE "
		} else {
			where += " AND "
		}
		where += "priority = $" + strconv.Itoa(argIndex)
		args = append(args, *filter.Priority)
		argIndex++
	}
	query += where

	// колонку сортировки берем только из фиксированного набора,
	// клиентский ввод в ORDER BY не попадает
	switch filter.Sort {
	case entity.SortCreatedAt:
		query += " ORDER BY created_at"
	case entity.SortUpdatedAt:
		query += " ORDER BY updated_at"
	}
	if filter.Sort != "" && filter.SortOrder == "desc" {
		query += " DESC"
	}

	query += " OFFSET $" + strconv.Itoa(argIndex) + " LIMIT $" + strconv.Itoa(argIndex+1)
	args = append(args, filter.Offset, filter.Limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]entity.Task, 0)
	for rows.Next() {
		var task entity.Task
		err := rows.Scan(
			&task.ID,
			&task.Title,
			&task.Description,
			&task.TaskCode,
			&task.Priority,
			&task.Status,
			&task.CreatedAt,
			&task.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}
