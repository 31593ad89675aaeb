package notify

import (
	"context"

	"github.com/google/uuid"
)

// 購読クライアントへ流すイベント名
const (
	EventOrderCreated = "orderCreated"
	EventOrderUpdated = "updateOrder"
	EventOrderDeleted = "deleteOrder"
)

type OrderEvent struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	OrderID int64       `json:"order_id"`
	Payload interface{} `json:"payload,omitempty"`
}

func NewOrderEvent(name string, orderID int64, payload interface{}) OrderEvent {
	return OrderEvent{
		ID:      uuid.NewString(),
		Name:    name,
		OrderID: orderID,
		Payload: payload,
	}
}

// Relay は注文イベントのベストエフォート配信。
// Publishは失敗してもエラーを返さず、呼び出し元のリクエストを止めない。
// usecaseへはコンストラクタ経由で注入する（グローバル参照は持たない）。
type Relay interface {
	Publish(ctx context.Context, event OrderEvent)
}

// テスト・配信無効時用
type Nop struct{}

func (Nop) Publish(ctx context.Context, event OrderEvent) {}
