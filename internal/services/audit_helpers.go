package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/charlesng35/userprofile/pkg/logger"
)

// recordAudit logs the supplied entry while tolerating audit failures. It must not be
// called inside an open transaction.
func recordAudit(audit *AuditService, ctx context.Context, entry AuditEntry) {
	if audit == nil {
		return
	}
	if err := audit.Log(ctx, entry); err != nil {
		logger.For(ctx, "audit").Warn("failed to record audit entry",
			zap.String("action", entry.Action),
			zap.Error(err),
		)
	}
}

func actorID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
