package model

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipping   OrderStatus = "SHIPPING"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "UNPAID"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

type PaymentMethod string

const (
	PaymentMethodCOD  PaymentMethod = "COD"
	PaymentMethodBank PaymentMethod = "BANK"
	//受け付けるが専用処理は無い（CODと同じ扱いになる）
	PaymentMethodMomo PaymentMethod = "MOMO"
)

type Order struct {
	ID            int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64         `gorm:"not null;index" json:"user_id"`
	TotalAmount   int64         `gorm:"not null" json:"total_amount"`
	PaymentMethod PaymentMethod `gorm:"type:varchar(20);not null" json:"payment_method"`

	//使用したクーポン（未使用ならnil）。参照のみで所有はしない
	VoucherID *int64 `gorm:"index" json:"voucher_id"`

	Status        OrderStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null;index" json:"payment_status"`

	//配送先は注文時点の値をそのまま持つ（住所マスタとは切り離す）
	ShipName       string `gorm:"type:varchar(255);not null" json:"ship_name"`
	ShipPhone      string `gorm:"type:varchar(30);not null" json:"ship_phone"`
	ShipPostalCode string `gorm:"type:varchar(20)" json:"ship_postal_code"`
	ShipCity       string `gorm:"type:varchar(255);not null" json:"ship_city"`
	ShipLine1      string `gorm:"type:varchar(255);not null" json:"ship_line1"`
	ShipLine2      string `gorm:"type:varchar(255)" json:"ship_line2"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 終端ステータスか（DELIVERED / CANCELLED からは遷移できない）
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}
