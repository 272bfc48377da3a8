package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 監査ログの保存。Webhookによる状態変更とチャージバックを残す
type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error
}
