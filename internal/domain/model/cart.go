package model

import "time"

// カートはユーザーかセッション（ゲスト）のどちらか一方が所有する。
// 同じ持ち主のカートは常に1つ（user_id / session_id にユニーク制約）
type Cart struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         *int64    `gorm:"uniqueIndex" json:"user_id,omitempty"`
	SessionID      *string   `gorm:"type:varchar(128);uniqueIndex" json:"-"`
	DiscountCodeID *int64    `gorm:"index" json:"discount_code_id,omitempty"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// ユーザーorセッションが持ち主か
func (c Cart) OwnedBy(userID *int64, sessionID string) bool {
	if c.UserID != nil {
		return userID != nil && *c.UserID == *userID
	}
	return c.SessionID != nil && sessionID != "" && *c.SessionID == sessionID
}
