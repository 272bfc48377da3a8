package model

// 配送先・請求先住所。注文に埋め込んでスナップショットとして持つ
type Address struct {
	Name       string `gorm:"type:varchar(255)" json:"name" validate:"required,max=255"`
	Line1      string `gorm:"type:varchar(255)" json:"line1" validate:"required,max=255"`
	Line2      string `gorm:"type:varchar(255)" json:"line2,omitempty" validate:"max=255"`
	City       string `gorm:"type:varchar(255)" json:"city" validate:"required,max=255"`
	State      string `gorm:"type:varchar(100)" json:"state" validate:"required,max=100"`
	PostalCode string `gorm:"type:varchar(20)" json:"postal_code" validate:"required,max=20"`
	Country    string `gorm:"type:varchar(2)" json:"country" validate:"required,len=2"`
	Phone      string `gorm:"type:varchar(30)" json:"phone,omitempty" validate:"max=30"`
}
