package admin

import (
	"context"
	"log/slog"
)

// LogAuditRepository writes audit entries to the structured log. It is used when no
// database is configured.
type LogAuditRepository struct {
	logger *slog.Logger
}

func NewLogAuditRepository(logger *slog.Logger) *LogAuditRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogAuditRepository{logger: logger}
}

func (r *LogAuditRepository) Log(ctx context.Context, in AuditLogInput) error {
	r.logger.InfoContext(ctx, "admin audit",
		"admin_user_id", in.AdminUserID,
		"action", in.Action,
		"target_type", in.TargetType,
		"target_id", in.TargetID,
		"payload", string(in.Payload),
	)
	return nil
}
