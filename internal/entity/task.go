package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusCancelled  TaskStatus = "cancelled"
)

type Task struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	TaskCode    string     `json:"task_code"`
	Priority    int        `json:"priority"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

// валидация
type CreateTaskRequest struct {
	Title       string  `json:"title" validate:"required,min=1,max=255"`
	Description *string `json:"description" validate:"omitnil,max=1000"`
	TaskCode    string  `json:"task_code" validate:"required"`
	Priority    int     `json:"priority" validate:"min=0,max=5"`
}

// UpdateTaskRequest - частичное обновление: применяем только поля,
// которые реально пришли в JSON (Fields), отсутствие != null
type UpdateTaskRequest struct {
	Title       *string     `json:"title" validate:"omitnil,min=1,max=255"`
	Description *string     `json:"description" validate:"omitnil,max=1000"`
	Priority    *int        `json:"priority" validate:"omitnil,min=0,max=5"`
	Status      *TaskStatus `json:"status" validate:"omitnil,oneof=todo in_progress completed cancelled"`

	Fields map[string]struct{} `json:"-"`
}

func (r *UpdateTaskRequest) UnmarshalJSON(data []byte) error {
	type plain UpdateTaskRequest
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	// запоминаем какие ключи были в запросе
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = UpdateTaskRequest(p)
	r.Fields = make(map[string]struct{}, len(raw))
	for key := range raw {
		r.Fields[key] = struct{}{}
	}
	return nil
}

// Has - пришло ли поле в запросе
func (r *UpdateTaskRequest) Has(field string) bool {
	_, ok := r.Fields[field]
	return ok
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// в ошибках показываем имена полей как в json
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (r *CreateTaskRequest) Validate() error {
	return checkStruct(r)
}

func (r *UpdateTaskRequest) Validate() error {
	// null для NOT NULL колонок запрещен
	for _, field := range []string{"title", "priority", "status"} {
		if r.Has(field) && r.isNull(field) {
			return &ValidationError{Field: field, Message: "must not be null"}
		}
	}
	return checkStruct(r)
}

func (r *UpdateTaskRequest) isNull(field string) bool {
	switch field {
	case "title":
		return r.Title == nil
	case "priority":
		return r.Priority == nil
	case "status":
		return r.Status == nil
	}
	return false
}

func checkStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ValidationError{Field: fe.Field(), Message: fieldMessage(fe)}
	}
	return err
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed on %s", fe.Tag())
	}
}
