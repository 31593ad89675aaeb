package voucher

import (
	"testing"
	"time"

	"app/internal/domain/model"

	"github.com/stretchr/testify/assert"
)

func i64(v int64) *int64 { return &v }

// Test: PERCENTはmaxDiscountでクランプされる
func TestEvaluatePercentClampedToMaxDiscount(t *testing.T) {
	v := model.Voucher{
		Code:          "SUMMER10",
		DiscountType:  model.DiscountTypePercent,
		DiscountValue: 10,
		MaxDiscount:   i64(50000),
	}

	got := Evaluate(v, 1_000_000)

	//素の割引100,000が50,000に抑えられる
	assert.Equal(t, int64(50_000), got.DiscountAmount)
	assert.Equal(t, StandardShippingFee, got.FinalShipping)
	//1,000,000 + VAT100,000 - 50,000 + 送料500,000
	assert.Equal(t, int64(1_550_000), got.FinalTotal)
}

// Test: PERCENTは上限未設定ならそのまま
func TestEvaluatePercentNoCap(t *testing.T) {
	v := model.Voucher{
		DiscountType:  model.DiscountTypePercent,
		DiscountValue: 20,
	}

	got := Evaluate(v, 1_000_000)

	assert.Equal(t, int64(200_000), got.DiscountAmount)
	assert.Equal(t, int64(1_000_000+100_000-200_000+500_000), got.FinalTotal)
}

// Test: FIXEDは注文金額を超えない
func TestEvaluateFixedClampedToOrderTotal(t *testing.T) {
	v := model.Voucher{
		DiscountType:  model.DiscountTypeFixed,
		DiscountValue: 300_000,
	}

	got := Evaluate(v, 200_000)

	assert.Equal(t, int64(200_000), got.DiscountAmount)
	//VATはクランプ前のorderTotalから計算される（20,000のまま）
	assert.Equal(t, int64(200_000+20_000-200_000+500_000), got.FinalTotal)
}

func TestEvaluateFixedSmallerThanOrderTotal(t *testing.T) {
	v := model.Voucher{
		DiscountType:  model.DiscountTypeFixed,
		DiscountValue: 100_000,
	}

	got := Evaluate(v, 1_000_000)

	assert.Equal(t, int64(100_000), got.DiscountAmount)
	assert.Equal(t, int64(1_000_000+100_000-100_000+500_000), got.FinalTotal)
}

// Test: FREESHIPは割引0、minOrderValue以上なら送料0
func TestEvaluateFreeship(t *testing.T) {
	v := model.Voucher{
		DiscountType:  model.DiscountTypeFreeship,
		MinOrderValue: i64(500_000),
	}

	got := Evaluate(v, 600_000)
	assert.Equal(t, int64(0), got.DiscountAmount)
	assert.Equal(t, int64(0), got.FinalShipping)
	assert.Equal(t, int64(600_000+60_000), got.FinalTotal)

	//下限未満なら標準送料のまま
	got = Evaluate(v, 400_000)
	assert.Equal(t, int64(0), got.DiscountAmount)
	assert.Equal(t, StandardShippingFee, got.FinalShipping)
	assert.Equal(t, int64(400_000+40_000+500_000), got.FinalTotal)
}

// Test: FREESHIPでminOrderValue未設定は0扱い（常に送料0）
func TestEvaluateFreeshipNoMinimum(t *testing.T) {
	v := model.Voucher{DiscountType: model.DiscountTypeFreeship}

	got := Evaluate(v, 100_000)
	assert.Equal(t, int64(0), got.FinalShipping)
}

// Test: 未知タイプは割引0（エラーにはしない）
func TestEvaluateUnknownTypeFallsBackToZero(t *testing.T) {
	v := model.Voucher{DiscountType: "MYSTERY", DiscountValue: 50}

	got := Evaluate(v, 1_000_000)

	assert.Equal(t, int64(0), got.DiscountAmount)
	assert.Equal(t, StandardShippingFee, got.FinalShipping)
	assert.Equal(t, int64(1_000_000+100_000+500_000), got.FinalTotal)
}

func TestUsable(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	base := model.Voucher{
		IsActive:  true,
		StartDate: now.AddDate(0, 0, -7),
		EndDate:   now.AddDate(0, 0, 7),
	}

	//使える
	assert.NoError(t, Usable(base, 100_000, now))

	//無効化済み
	v := base
	v.IsActive = false
	assert.ErrorIs(t, Usable(v, 100_000, now), ErrInactive)

	//開始前
	v = base
	v.StartDate = now.AddDate(0, 0, 1)
	assert.ErrorIs(t, Usable(v, 100_000, now), ErrNotStarted)

	//期限切れ
	v = base
	v.EndDate = now.AddDate(0, 0, -1)
	assert.ErrorIs(t, Usable(v, 100_000, now), ErrExpired)

	//使い切り
	v = base
	v.UsageLimit = i64(0)
	assert.ErrorIs(t, Usable(v, 100_000, now), ErrExhausted)

	//残りあり・無制限はOK
	v = base
	v.UsageLimit = i64(1)
	assert.NoError(t, Usable(v, 100_000, now))

	//注文金額が下限未満
	v = base
	v.MinOrderValue = i64(200_000)
	assert.ErrorIs(t, Usable(v, 100_000, now), ErrMinOrder)
	assert.NoError(t, Usable(v, 200_000, now))
}

func TestValidType(t *testing.T) {
	assert.True(t, ValidType(model.DiscountTypePercent))
	assert.True(t, ValidType(model.DiscountTypeFixed))
	assert.True(t, ValidType(model.DiscountTypeFreeship))
	assert.False(t, ValidType("MYSTERY"))
	assert.False(t, ValidType(""))
}
