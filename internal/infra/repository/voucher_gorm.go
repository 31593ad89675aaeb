package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type VoucherGormRepository struct {
	db *gorm.DB
}

func NewVoucherGormRepository(db *gorm.DB) *VoucherGormRepository {
	return &VoucherGormRepository{db: db}
}

// コードは常に trim + 大文字で保存・照合する
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (r *VoucherGormRepository) FindByID(ctx context.Context, id int64) (model.Voucher, error) {
	var v model.Voucher
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Voucher{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Voucher{}, err
	}
	return v, nil
}

func (r *VoucherGormRepository) FindByCode(ctx context.Context, code string) (model.Voucher, error) {
	var v model.Voucher
	err := r.db.WithContext(ctx).
		Where("UPPER(code) = ?", NormalizeCode(code)).
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Voucher{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Voucher{}, err
	}
	return v, nil
}

func (r *VoucherGormRepository) List(ctx context.Context) ([]model.Voucher, error) {
	var items []model.Voucher
	if err := r.db.WithContext(ctx).Order("id desc").Find(&items).Error; err != nil {
		return []model.Voucher{}, err
	}
	return items, nil
}

func (r *VoucherGormRepository) Create(ctx context.Context, v model.Voucher) (model.Voucher, error) {
	v.Code = NormalizeCode(v.Code)
	if err := r.db.WithContext(ctx).Create(&v).Error; err != nil {
		if isDuplicateKey(err) {
			return model.Voucher{}, repo.ErrDuplicateCode
		}
		return model.Voucher{}, err
	}
	return v, nil
}

func (r *VoucherGormRepository) Update(ctx context.Context, v model.Voucher) error {
	v.Code = NormalizeCode(v.Code)
	res := r.db.WithContext(ctx).Model(&model.Voucher{}).
		Where("id = ?", v.ID).
		Updates(map[string]interface{}{
			"code":            v.Code,
			"discount_type":   v.DiscountType,
			"discount_value":  v.DiscountValue,
			"max_discount":    v.MaxDiscount,
			"min_order_value": v.MinOrderValue,
			"start_date":      v.StartDate,
			"end_date":        v.EndDate,
			"usage_limit":     v.UsageLimit,
			"is_active":       v.IsActive,
		})
	if res.Error != nil {
		if isDuplicateKey(res.Error) {
			return repo.ErrDuplicateCode
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *VoucherGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Voucher{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// usage_limitが1以上のときだけ1減らす（条件付きの一発更新）
func (r *VoucherGormRepository) DecrementUsage(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Voucher{}).
		Where("id = ? AND usage_limit IS NOT NULL AND usage_limit > 0", id).
		Update("usage_limit", gorm.Expr("usage_limit - 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *VoucherGormRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Voucher{}).
		Where("is_active = ? AND end_date < ?", true, now).
		Update("is_active", false)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *VoucherGormRepository) ResetUsageLimits(ctx context.Context, limit int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Model(&model.Voucher{}).
		Update("usage_limit", limit)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// postgresの一意制約違反（23505）か
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
