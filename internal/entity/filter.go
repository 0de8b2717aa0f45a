package entity

const (
	DefaultListLimit = 10
	MaxListLimit     = 20
)

const (
	SortCreatedAt = "created_at"
	SortUpdatedAt = "updated_at"
)

// TaskFilter - параметры выборки задач
type TaskFilter struct {
	Status    *TaskStatus
	Priority  *int
	Offset    int
	Limit     int
	Sort      string // created_at | updated_at, пусто = порядок хранилища
	SortOrder string // asc | desc
}
