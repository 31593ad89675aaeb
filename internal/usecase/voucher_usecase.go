package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/voucher"
)

type VoucherUsecase struct {
	vouchers repo.VoucherRepository
	now      func() time.Time
}

func NewVoucherUsecase(vouchers repo.VoucherRepository) *VoucherUsecase {
	return &VoucherUsecase{vouchers: vouchers, now: time.Now}
}

type VoucherInput struct {
	Code          string
	DiscountType  string
	DiscountValue int64
	MaxDiscount   *int64
	MinOrderValue *int64
	StartDate     time.Time
	EndDate       time.Time
	UsageLimit    *int64
	IsActive      *bool
}

// 適用プレビューの結果。クーポン本体に計算結果を重ねて返す
type ApplyVoucherOutput struct {
	model.Voucher
	voucher.Evaluation
}

func (u *VoucherUsecase) validate(in VoucherInput) error {
	if strings.TrimSpace(in.Code) == "" {
		return NewHTTPError(http.StatusBadRequest, CodeValidation, "code is required")
	}

	t := model.DiscountType(strings.ToUpper(strings.TrimSpace(in.DiscountType)))
	//未知タイプは実行時に黙って割引0になるより、ここで弾く
	if !voucher.ValidType(t) {
		return NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid discount_type")
	}

	switch t {
	case model.DiscountTypePercent:
		if in.DiscountValue < 1 || in.DiscountValue > 100 {
			return NewHTTPError(http.StatusBadRequest, CodeValidation, "discount_value must be 1-100 for PERCENT")
		}
	case model.DiscountTypeFixed:
		if in.DiscountValue <= 0 {
			return NewHTTPError(http.StatusBadRequest, CodeValidation, "discount_value must be positive for FIXED")
		}
	case model.DiscountTypeFreeship:
		if in.DiscountValue != 0 {
			return NewHTTPError(http.StatusBadRequest, CodeValidation, "discount_value must be 0 for FREESHIP")
		}
	}

	if in.StartDate.IsZero() || in.EndDate.IsZero() || !in.EndDate.After(in.StartDate) {
		return NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid date range")
	}
	if in.MaxDiscount != nil && *in.MaxDiscount <= 0 {
		return NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid max_discount")
	}
	if in.MinOrderValue != nil && *in.MinOrderValue < 0 {
		return NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid min_order_value")
	}
	if in.UsageLimit != nil && *in.UsageLimit < 0 {
		return NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid usage_limit")
	}
	return nil
}

func (u *VoucherUsecase) Create(ctx context.Context, in VoucherInput) (model.Voucher, error) {
	if err := u.validate(in); err != nil {
		return model.Voucher{}, err
	}

	isActive := true
	if in.IsActive != nil {
		isActive = *in.IsActive
	}

	v, err := u.vouchers.Create(ctx, model.Voucher{
		Code:          in.Code,
		DiscountType:  model.DiscountType(strings.ToUpper(strings.TrimSpace(in.DiscountType))),
		DiscountValue: in.DiscountValue,
		MaxDiscount:   in.MaxDiscount,
		MinOrderValue: in.MinOrderValue,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		UsageLimit:    in.UsageLimit,
		IsActive:      isActive,
	})
	if errors.Is(err, repo.ErrDuplicateCode) {
		return model.Voucher{}, NewHTTPError(http.StatusBadRequest, CodeConflict, "voucher code already exists")
	}
	if err != nil {
		return model.Voucher{}, WrapInternal(err)
	}
	return v, nil
}

func (u *VoucherUsecase) List(ctx context.Context) ([]model.Voucher, error) {
	items, err := u.vouchers.List(ctx)
	if err != nil {
		return []model.Voucher{}, WrapInternal(err)
	}
	return items, nil
}

func (u *VoucherUsecase) Update(ctx context.Context, id int64, in VoucherInput) (model.Voucher, error) {
	if id <= 0 {
		return model.Voucher{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid id")
	}
	if err := u.validate(in); err != nil {
		return model.Voucher{}, err
	}

	isActive := true
	if in.IsActive != nil {
		isActive = *in.IsActive
	}

	err := u.vouchers.Update(ctx, model.Voucher{
		ID:            id,
		Code:          in.Code,
		DiscountType:  model.DiscountType(strings.ToUpper(strings.TrimSpace(in.DiscountType))),
		DiscountValue: in.DiscountValue,
		MaxDiscount:   in.MaxDiscount,
		MinOrderValue: in.MinOrderValue,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		UsageLimit:    in.UsageLimit,
		IsActive:      isActive,
	})
	if errors.Is(err, repo.ErrNotFound) {
		return model.Voucher{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
	}
	if errors.Is(err, repo.ErrDuplicateCode) {
		return model.Voucher{}, NewHTTPError(http.StatusBadRequest, CodeConflict, "voucher code already exists")
	}
	if err != nil {
		return model.Voucher{}, WrapInternal(err)
	}

	v, err := u.vouchers.FindByID(ctx, id)
	if err != nil {
		return model.Voucher{}, WrapInternal(err)
	}
	return v, nil
}

func (u *VoucherUsecase) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid id")
	}
	err := u.vouchers.Delete(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
	}
	if err != nil {
		return WrapInternal(err)
	}
	return nil
}

// Apply は適用プレビュー。割引後の金額を見せるだけで、使用回数は消費しない
// （消費は注文確定時）。
func (u *VoucherUsecase) Apply(ctx context.Context, code string, orderTotal int64) (ApplyVoucherOutput, error) {
	if strings.TrimSpace(code) == "" {
		return ApplyVoucherOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "code is required")
	}
	if orderTotal <= 0 {
		return ApplyVoucherOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid order_total")
	}

	v, err := u.vouchers.FindByCode(ctx, code)
	if errors.Is(err, repo.ErrNotFound) {
		return ApplyVoucherOutput{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "voucher not found")
	}
	if err != nil {
		return ApplyVoucherOutput{}, WrapInternal(err)
	}

	if err := voucher.Usable(v, orderTotal, u.now()); err != nil {
		return ApplyVoucherOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, usableMessage(err))
	}

	return ApplyVoucherOutput{
		Voucher:    v,
		Evaluation: voucher.Evaluate(v, orderTotal),
	}, nil
}
