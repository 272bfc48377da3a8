package usecase

// カートの持ち主。ログイン中ならUserID、ゲストならSessionID（cookie）
type Identity struct {
	UserID    *int64
	SessionID string
}

func (i Identity) IsZero() bool {
	return i.UserID == nil && i.SessionID == ""
}

func (i Identity) IsUser() bool {
	return i.UserID != nil
}
