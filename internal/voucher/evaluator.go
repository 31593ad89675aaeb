package voucher

import (
	"errors"
	"time"

	"app/internal/domain/model"
)

const (
	//標準送料（VNDの最小単位）
	StandardShippingFee int64 = 500000

	//注文金額に常に乗せるVAT
	VATRatePercent int64 = 10
)

// 適用不可の理由。handler側でユーザー向けメッセージに変換する
var (
	ErrInactive   = errors.New("voucher inactive")
	ErrNotStarted = errors.New("voucher not started")
	ErrExpired    = errors.New("voucher expired")
	ErrExhausted  = errors.New("voucher exhausted")
	ErrMinOrder   = errors.New("order total below voucher minimum")
)

type Evaluation struct {
	DiscountAmount int64 `json:"discount_amount"`
	FinalShipping  int64 `json:"final_shipping"`
	FinalTotal     int64 `json:"final_total"`
}

// Usable は適用前提条件をまとめて確認する。
// 違反は理由ごとのエラーで返す（例外扱いにしない）。
func Usable(v model.Voucher, orderTotal int64, now time.Time) error {
	if !v.IsActive {
		return ErrInactive
	}
	if now.Before(v.StartDate) {
		return ErrNotStarted
	}
	if now.After(v.EndDate) {
		return ErrExpired
	}
	if !v.HasUsageLeft() {
		return ErrExhausted
	}
	if v.MinOrderValue != nil && orderTotal < *v.MinOrderValue {
		return ErrMinOrder
	}
	return nil
}

// Evaluate は割引額・送料・最終金額を計算する純関数。永続化には触らない。
//
//	FinalTotal = orderTotal + VAT - DiscountAmount + FinalShipping
//
// 割引は最後にorderTotalでクランプする。VATはクランプ前のorderTotalから
// 計算するので、このクランプの影響を受けない。
func Evaluate(v model.Voucher, orderTotal int64) Evaluation {
	vat := orderTotal * VATRatePercent / 100
	shipping := StandardShippingFee

	var discount int64
	switch v.DiscountType {
	case model.DiscountTypePercent:
		discount = orderTotal * v.DiscountValue / 100
		if v.MaxDiscount != nil && discount > *v.MaxDiscount {
			discount = *v.MaxDiscount
		}
	case model.DiscountTypeFixed:
		discount = v.DiscountValue
	case model.DiscountTypeFreeship:
		//minOrderValue未設定なら0扱い
		var min int64
		if v.MinOrderValue != nil {
			min = *v.MinOrderValue
		}
		if orderTotal >= min {
			shipping = 0
		}
	default:
		//未知タイプは割引0。作成時にValidTypeで弾いているので通常は来ない
	}

	if discount > orderTotal {
		discount = orderTotal
	}

	return Evaluation{
		DiscountAmount: discount,
		FinalShipping:  shipping,
		FinalTotal:     orderTotal + vat - discount + shipping,
	}
}

// 作成・更新時のタイプ検証
func ValidType(t model.DiscountType) bool {
	switch t {
	case model.DiscountTypePercent, model.DiscountTypeFixed, model.DiscountTypeFreeship:
		return true
	}
	return false
}
