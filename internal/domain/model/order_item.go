package model

import "time"

// 注文明細。価格・商品名・画像は注文時点のスナップショットを持ち、
// 商品マスタの後からの変更に影響されない。
type OrderItem struct {
	ID        int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64 `gorm:"not null;index" json:"order_id"`
	ProductID int64 `gorm:"not null;index" json:"product_id"`

	//カラーバリエーション（指定なしならnil）
	ColorID *int64 `json:"color_id"`

	ProductNameSnapshot  string    `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	ProductImageSnapshot string    `gorm:"type:varchar(512)" json:"product_image_snapshot"`
	UnitPriceSnapshot    int64     `gorm:"not null" json:"unit_price_snapshot"`
	Quantity             int64     `gorm:"not null" json:"quantity"`
	CreatedAt            time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
