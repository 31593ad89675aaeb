package repository

import (
	"context"

	"app/internal/domain/model"
)

type CartItemRepository interface {
	ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)

	//注文で消費した商品の明細だけをカートから消す
	DeleteByCartAndProductIDs(ctx context.Context, cartID int64, productIDs []int64) error
}
