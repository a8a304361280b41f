package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/postgres/generated"
	"github.com/iho/gobank/internal/usecase"
)

// AuditRepository implements audit log persistence
type AuditRepository struct {
	db generated.DBTX
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return newAuditRepository(pool)
}

func newAuditRepository(db generated.DBTX) *AuditRepository {
	return &AuditRepository{db: db}
}

const insertAuditLog = `
	INSERT INTO audit_logs (
		id, action, resource_type, resource_id, state, status, error_message, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

// Create inserts a new audit log entry outside any transaction
func (r *AuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	return r.insert(ctx, r.db, log)
}

// CreateTx inserts an audit log entry as part of tx
func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	return r.insert(ctx, tx.(*Tx).PgxTx(), log)
}

func (r *AuditRepository) insert(ctx context.Context, db generated.DBTX, log *domain.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}

	var state []byte
	if log.State != nil {
		var err error
		state, err = json.Marshal(log.State)
		if err != nil {
			return err
		}
	}

	_, err := db.Exec(ctx, insertAuditLog,
		log.ID,
		string(log.Action),
		log.ResourceType,
		log.ResourceID,
		state,
		string(log.Status),
		log.ErrorMessage,
		log.CreatedAt,
	)

	return convertErr(err, nil, "audit.create %s", log.ID)
}

// List retrieves audit logs with filtering, newest first
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	query := `
		SELECT id, action, resource_type, resource_id, state, status, error_message, created_at
		FROM audit_logs
		WHERE 1=1`
	args := []any{}

	add := func(clause string, value any) {
		args = append(args, value)
		query += fmt.Sprintf(clause, len(args))
	}

	if filter.Action != "" {
		add(` AND action = $%d`, string(filter.Action))
	}
	if filter.ResourceType != "" {
		add(` AND resource_type = $%d`, filter.ResourceType)
	}
	if filter.ResourceID != "" {
		add(` AND resource_id = $%d`, filter.ResourceID)
	}
	if filter.StartDate != nil {
		add(` AND created_at >= $%d`, *filter.StartDate)
	}
	if filter.EndDate != nil {
		add(` AND created_at <= $%d`, *filter.EndDate)
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		add(` LIMIT $%d`, filter.Limit)
	}
	if filter.Offset > 0 {
		add(` OFFSET $%d`, filter.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, convertErr(err, nil, "audit.list")
	}
	defer rows.Close()

	var logs []*domain.AuditLog
	for rows.Next() {
		var (
			log    domain.AuditLog
			state  []byte
			action string
			status string
		)

		err := rows.Scan(
			&log.ID,
			&action,
			&log.ResourceType,
			&log.ResourceID,
			&state,
			&status,
			&log.ErrorMessage,
			&log.CreatedAt,
		)
		if err != nil {
			return nil, convertErr(err, nil, "audit.list")
		}

		log.Action = domain.AuditAction(action)
		log.Status = domain.AuditStatus(status)
		if state != nil {
			_ = json.Unmarshal(state, &log.State)
		}

		logs = append(logs, &log)
	}

	if err := rows.Err(); err != nil {
		return nil, convertErr(err, nil, "audit.list")
	}

	return logs, nil
}
