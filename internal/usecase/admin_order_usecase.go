package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"app/internal/domain/model"
	"app/internal/notify"
	repo "app/internal/repository"
)

type AdminOrderUsecase struct {
	tx    repo.TransactionManager
	relay notify.Relay
}

func NewAdminOrderUsecase(tx repo.TransactionManager, relay notify.Relay) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, relay: relay}
}

type AdminUpdateOrderStatusInput struct {
	//nilなら触らない
	Status        *string
	PaymentStatus *string
}

// ステータスの遷移表。元の実装は任意の上書きを許していたが、
// ここでは正規の流れだけ通す。CANCELLEDは非終端ならどこからでも可。
var nextStatuses = map[model.OrderStatus][]model.OrderStatus{
	model.OrderStatusPending:    {model.OrderStatusConfirmed, model.OrderStatusCancelled},
	model.OrderStatusConfirmed:  {model.OrderStatusProcessing, model.OrderStatusCancelled},
	model.OrderStatusProcessing: {model.OrderStatusShipping, model.OrderStatusCancelled},
	model.OrderStatusShipping:   {model.OrderStatusDelivered, model.OrderStatusCancelled},
}

func canTransition(from model.OrderStatus, to model.OrderStatus) bool {
	for _, s := range nextStatuses[from] {
		if s == to {
			return true
		}
	}
	return false
}

var nextPaymentStatuses = map[model.PaymentStatus]model.PaymentStatus{
	model.PaymentStatusUnpaid: model.PaymentStatusPaid,
	model.PaymentStatusPaid:   model.PaymentStatusRefunded,
}

// 注文一覧（管理者）
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) ([]OrderOutput, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid limit")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return WrapInternal(err)
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return WrapInternal(err)
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})
	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

// ステータス更新。CANCELLEDへの遷移時だけ在庫を戻す
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, orderID int64, in AdminUpdateOrderStatusInput) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid id")
	}
	if in.Status == nil && in.PaymentStatus == nil {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "nothing to update")
	}

	var newStatus *model.OrderStatus
	if in.Status != nil {
		s := model.OrderStatus(strings.ToUpper(strings.TrimSpace(*in.Status)))
		switch s {
		case model.OrderStatusPending, model.OrderStatusConfirmed, model.OrderStatusProcessing,
			model.OrderStatusShipping, model.OrderStatusDelivered, model.OrderStatusCancelled:
			newStatus = &s
		default:
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid status")
		}
	}

	var newPayment *model.PaymentStatus
	if in.PaymentStatus != nil {
		p := model.PaymentStatus(strings.ToUpper(strings.TrimSpace(*in.PaymentStatus)))
		switch p {
		case model.PaymentStatusUnpaid, model.PaymentStatusPaid, model.PaymentStatusRefunded:
			newPayment = &p
		default:
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid payment_status")
		}
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
		}
		if err != nil {
			return WrapInternal(err)
		}

		if newStatus != nil && *newStatus != o.Status {
			if !canTransition(o.Status, *newStatus) {
				return NewHTTPError(http.StatusBadRequest, CodeValidation, "illegal status transition")
			}

			//キャンセル時だけ在庫を戻す
			if *newStatus == model.OrderStatusCancelled {
				items, err := r.OrderItems().ListByOrderID(ctx, orderID)
				if err != nil {
					return WrapInternal(err)
				}
				for _, it := range items {
					if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
						return WrapInternal(err)
					}
				}
			}
		}

		if newPayment != nil && *newPayment != o.PaymentStatus {
			if nextPaymentStatuses[o.PaymentStatus] != *newPayment {
				return NewHTTPError(http.StatusBadRequest, CodeValidation, "illegal payment_status transition")
			}
		}

		if err := r.Orders().UpdateStatuses(ctx, orderID, newStatus, newPayment); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
			}
			return WrapInternal(err)
		}

		if newStatus != nil {
			o.Status = *newStatus
		}
		if newPayment != nil {
			o.PaymentStatus = *newPayment
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return WrapInternal(err)
		}
		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	u.relay.Publish(ctx, notify.NewOrderEvent(notify.EventOrderUpdated, out.ID, out))
	return out, nil
}

// 注文削除。明細の数量どおり在庫を戻してから明細→注文の順で消す。
// すでにCANCELLEDの注文はキャンセル時に戻し済みなので二重に戻さない。
func (u *AdminOrderUsecase) Delete(ctx context.Context, orderID int64) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
		}
		if err != nil {
			return WrapInternal(err)
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return WrapInternal(err)
		}

		if o.Status != model.OrderStatusCancelled {
			for _, it := range items {
				if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
					return WrapInternal(err)
				}
			}
		}

		if err := r.OrderItems().DeleteByOrderID(ctx, orderID); err != nil {
			return WrapInternal(err)
		}
		if err := r.Orders().Delete(ctx, orderID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
			}
			return WrapInternal(err)
		}

		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	u.relay.Publish(ctx, notify.NewOrderEvent(notify.EventOrderDeleted, out.ID, nil))
	return out, nil
}
