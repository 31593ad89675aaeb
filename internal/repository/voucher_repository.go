package repository

import (
	"context"
	"errors"
	"time"

	"app/internal/domain/model"
)

// 一意コード重複（作成・更新時）
var ErrDuplicateCode = errors.New("duplicate code")

// クーポンの永続化。
type VoucherRepository interface {
	FindByID(ctx context.Context, id int64) (model.Voucher, error)

	//大文字小文字を区別せずに照合する
	FindByCode(ctx context.Context, code string) (model.Voucher, error)

	List(ctx context.Context) ([]model.Voucher, error)
	Create(ctx context.Context, v model.Voucher) (model.Voucher, error)
	Update(ctx context.Context, v model.Voucher) error
	Delete(ctx context.Context, id int64) error

	//usage_limitが1以上のときだけ1減らす。減らせたらtrue
	DecrementUsage(ctx context.Context, id int64) (bool, error)

	//期限切れでまだ有効なクーポンを無効化して件数を返す
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)

	//全クーポンのusage_limitを一律で上書きして件数を返す
	ResetUsageLimits(ctx context.Context, limit int64) (int64, error)
}
