package repository

import (
	"context"

	"github.com/ByteCraftsmanY/fastapi-crud/internal/entity"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TaskAuditRepository struct {
	db *pgxpool.Pool
}

func NewTaskAuditRepository(db *pgxpool.Pool) *TaskAuditRepository {
	return &TaskAuditRepository{
		db: db,
	}
}

func (r *TaskAuditRepository) Create(ctx context.Context, audit *entity.TaskAudit) error {
	query := `
	INSERT INTO "task_audit" (action, entity_type, entity_id, old_values, new_values, changes)
	VALUES ($1,$2,$3,$4,$5,$6)
	RETURNING id, changed_at
	`

	err := r.db.QueryRow(
		ctx,
		query,
		audit.Action,
		audit.EntityType,
		audit.EntityID,
		audit.OldValues,
		audit.NewValues,
		audit.Changes,
	).Scan(&audit.ID, &audit.ChangedAt)

	return err
}

func (r *TaskAuditRepository) GetByEntityId(ctx context.Context, entityId int) ([]entity.TaskAudit, error) {
	query := `
	SELECT id, action, entity_type, entity_id, old_values, new_values, changes, changed_at
	FROM "task_audit"
	WHERE entity_id = $1 and entity_type = 'task'
	ORDER BY changed_at DESC
	`
	rows, err := r.db.Query(ctx, query, entityId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var audits []entity.TaskAudit
	for rows.Next() {
		var audit entity.TaskAudit
		err := rows.Scan(
			&audit.ID,
			&audit.Action,
			&audit.EntityType,
			&audit.EntityID,
			&audit.OldValues,
			&audit.NewValues,
			&audit.Changes,
			&audit.ChangedAt,
		)
		if err != nil {
			return nil, err
		}
		audits = append(audits, audit)
	}
	return audits, rows.Err()
}
