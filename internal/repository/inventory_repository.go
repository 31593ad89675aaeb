package repository

import "context"

type InventoryRepository interface {
	// 在庫が足りるときだけ減算
	DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)

	// 在庫戻し（注文削除・キャンセル）
	IncreaseStock(ctx context.Context, productID int64, qty int64) error
}
