package repository

import (
	"context"

	"app/internal/domain/model"
)

type CartRepository interface {
	FindActiveByUserID(ctx context.Context, userID int64) (model.Cart, error)
}
