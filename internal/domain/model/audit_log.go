package model

import "time"

// 決済イベントによるステータス変更、チャージバックなど。
type AuditAction string

const (
	//決済ステータスの変更
	AuditActionUpdatePaymentStatus AuditAction = "UPDATE_PAYMENT_STATUS"
	//注文ステータスの変更
	AuditActionUpdateOrderStatus AuditAction = "UPDATE_ORDER_STATUS"
	//返金で在庫を戻した
	AuditActionRestock AuditAction = "RESTOCK"
	//チャージバック。手動対応が必要
	AuditActionDisputeOpened AuditAction = "DISPUTE_OPENED"
)

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceOrder   AuditResourceType = "order"
	AuditResourceProduct AuditResourceType = "product"
)

// システム（Webhook）による操作
const SystemActorID int64 = 0

// 監査ログ。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作したユーザーのID。Webhookは0
	ActorUserID int64 `gorm:"not null;index" json:"actor_user_id"`

	Action AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`

	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`

	ResourceID int64 `gorm:"not null;index" json:"resource_id"`

	//JSON文字列で保存する。
	BeforeJSON string `gorm:"type:text" json:"before_json"`
	AfterJSON  string `gorm:"type:text" json:"after_json"`

	//決済プロバイダのイベントID
	ExternalRef string `gorm:"type:varchar(255);index" json:"external_ref"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
