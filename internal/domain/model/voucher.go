package model

import "time"

type DiscountType string

const (
	DiscountTypePercent  DiscountType = "PERCENT"
	DiscountTypeFixed    DiscountType = "FIXED"
	DiscountTypeFreeship DiscountType = "FREESHIP"
)

// 割引クーポン。
// Codeは大文字に正規化して保存し、照合は大文字小文字を区別しない。
type Voucher struct {
	ID           int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	Code         string       `gorm:"type:varchar(50);not null;uniqueIndex" json:"code"`
	DiscountType DiscountType `gorm:"type:varchar(20);not null" json:"discount_type"`

	//PERCENTなら百分率、FIXEDなら金額
	DiscountValue int64 `gorm:"not null" json:"discount_value"`

	//PERCENT割引の上限額（nilなら上限なし）
	MaxDiscount *int64 `json:"max_discount"`

	//適用に必要な注文金額の下限（nilなら下限なし）
	MinOrderValue *int64 `json:"min_order_value"`

	StartDate time.Time `gorm:"not null" json:"start_date"`
	EndDate   time.Time `gorm:"not null;index" json:"end_date"`

	//残り使用回数（nilなら無制限）。0になった時点で行ごと削除する
	UsageLimit *int64 `json:"usage_limit"`

	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 使用可能判定に使う時刻込みの条件はvoucherパッケージ側に置く
func (v Voucher) HasUsageLeft() bool {
	return v.UsageLimit == nil || *v.UsageLimit > 0
}
