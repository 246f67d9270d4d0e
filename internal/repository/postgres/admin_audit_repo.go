package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	admindomain "github.com/loangraph/portal/internal/domain/admin"
)

type AdminAuditRepository struct {
	pool *pgxpool.Pool
}

func NewAdminAuditRepository(pool *pgxpool.Pool) *AdminAuditRepository {
	return &AdminAuditRepository{pool: pool}
}

// Log records one admin decision. Loan service ids are opaque strings, so no uuid casts.
func (r *AdminAuditRepository) Log(ctx context.Context, in admindomain.AuditLogInput) error {
	q := `
INSERT INTO admin_audit_logs (admin_user_id, action, target_type, target_id, payload)
VALUES ($1, $2, $3, $4, COALESCE(NULLIF($5, '')::jsonb, '{}'::jsonb))
`
	_, err := r.pool.Exec(ctx, q, in.AdminUserID, in.Action, in.TargetType, in.TargetID, string(in.Payload))
	return err
}

type AuditEntry struct {
	ID          int64
	AdminUserID string
	Action      string
	TargetType  string
	TargetID    string
	Payload     []byte
	CreatedAt   time.Time
}

// ListByTarget returns the audit trail of one application, newest first.
func (r *AdminAuditRepository) ListByTarget(ctx context.Context, targetType, targetID string, limit int32) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `
SELECT id, admin_user_id, action, target_type, target_id, payload, created_at
FROM admin_audit_logs
WHERE target_type = $1 AND target_id = $2
ORDER BY id DESC
LIMIT $3
`
	rows, err := r.pool.Query(ctx, q, targetType, targetID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]AuditEntry, 0)
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.AdminUserID, &e.Action, &e.TargetType, &e.TargetID, &e.Payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
