package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	"app/internal/notify"
	"app/internal/payment"
	repo "app/internal/repository"
	"app/internal/voucher"
)

type OrderUsecase struct {
	tx    repo.TransactionManager
	relay notify.Relay
	bank  payment.BankInfo
	now   func() time.Time
}

func NewOrderUsecase(tx repo.TransactionManager, relay notify.Relay, bank payment.BankInfo) *OrderUsecase {
	return &OrderUsecase{tx: tx, relay: relay, bank: bank, now: time.Now}
}

type OrderItemInput struct {
	ProductID int64  `json:"product_id"`
	ColorID   *int64 `json:"color_id"`
	Quantity  int64  `json:"quantity"`
	Price     int64  `json:"price"`
}

type AddressInput struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
}

type PlaceOrderInput struct {
	PaymentMethod string
	VoucherID     *int64
	TotalAmount   int64

	//空ならカートから組み立てる。非空なら内容をそのまま信用する
	Items []OrderItemInput

	Address AddressInput
}

type OrderItemOutput struct {
	ProductID int64  `json:"product_id"`
	ColorID   *int64 `json:"color_id,omitempty"`
	Name      string `json:"name"`
	Image     string `json:"image,omitempty"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
}

type OrderOutput struct {
	ID            int64             `json:"id"`
	UserID        int64             `json:"user_id"`
	TotalAmount   int64             `json:"total_amount"`
	PaymentMethod string            `json:"payment_method"`
	VoucherID     *int64            `json:"voucher_id,omitempty"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	Address       AddressInput      `json:"address"`
	CreatedAt     time.Time         `json:"created_at"`
	Items         []OrderItemOutput `json:"items"`
}

type PlaceOrderOutput struct {
	Order     OrderOutput       `json:"order"`
	Message   string            `json:"message"`
	BankInfo  *payment.BankInfo `json:"bank_info,omitempty"`
	QRCodeURL string            `json:"qr_code_url,omitempty"`
}

// 自分の注文一覧の1行。明細は展開せず件数と先頭商品の情報だけ付ける
type MyOrderSummary struct {
	ID             int64     `json:"id"`
	TotalAmount    int64     `json:"total_amount"`
	Status         string    `json:"status"`
	PaymentStatus  string    `json:"payment_status"`
	CreatedAt      time.Time `json:"created_at"`
	ItemCount      int       `json:"item_count"`
	FirstItemName  string    `json:"first_item_name"`
	FirstItemImage string    `json:"first_item_image,omitempty"`
}

// PlaceOrder は注文確定の一連の処理を1トランザクションで実行する。
// 途中で失敗したら全部ロールバックする（部分状態を残さない）。
// 在庫は条件付きの一発更新で減らすので、同時注文で在庫がマイナスになることはない。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (PlaceOrderOutput, error) {
	if userID <= 0 {
		return PlaceOrderOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}

	method := model.PaymentMethod(strings.ToUpper(strings.TrimSpace(in.PaymentMethod)))
	switch method {
	case model.PaymentMethodCOD, model.PaymentMethodBank, model.PaymentMethodMomo:
		// OK
	default:
		return PlaceOrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid payment_method")
	}

	if in.TotalAmount <= 0 {
		return PlaceOrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid total_amount")
	}
	if strings.TrimSpace(in.Address.Name) == "" ||
		strings.TrimSpace(in.Address.Phone) == "" ||
		strings.TrimSpace(in.Address.City) == "" ||
		strings.TrimSpace(in.Address.Line1) == "" {
		return PlaceOrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid address")
	}

	now := u.now()
	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//クーポンは注文金額に対して使えるかを先に確認する
		if in.VoucherID != nil {
			v, err := r.Vouchers().FindByID(ctx, *in.VoucherID)
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, CodeNotFound, "voucher not found")
			}
			if err != nil {
				return WrapInternal(err)
			}
			if err := voucher.Usable(v, in.TotalAmount, now); err != nil {
				return NewHTTPError(http.StatusBadRequest, CodeValidation, usableMessage(err))
			}
		}

		//明細を確定する（body指定が優先、無ければカート）
		orderItems, cartID, err := u.resolveItems(ctx, r, userID, in.Items)
		if err != nil {
			return err
		}

		//注文作成
		orderID, err := r.Orders().Create(ctx, model.Order{
			UserID:         userID,
			TotalAmount:    in.TotalAmount,
			PaymentMethod:  method,
			VoucherID:      in.VoucherID,
			Status:         model.OrderStatusPending,
			PaymentStatus:  model.PaymentStatusUnpaid,
			ShipName:       in.Address.Name,
			ShipPhone:      in.Address.Phone,
			ShipPostalCode: in.Address.PostalCode,
			ShipCity:       in.Address.City,
			ShipLine1:      in.Address.Line1,
			ShipLine2:      in.Address.Line2,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if err != nil {
			return WrapInternal(err)
		}

		//明細一括作成
		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return WrapInternal(err)
		}

		//在庫減算（足りない商品が1つでもあれば全体を巻き戻す）
		consumed := make([]int64, 0, len(orderItems))
		for _, it := range orderItems {
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return WrapInternal(err)
			}
			if !ok {
				return NewHTTPError(http.StatusBadRequest, CodeOutOfStock, "out of stock")
			}
			consumed = append(consumed, it.ProductID)
		}

		//カート経由なら消費した商品の明細を消す
		if cartID != 0 {
			if err := r.CartItems().DeleteByCartAndProductIDs(ctx, cartID, consumed); err != nil {
				return WrapInternal(err)
			}
		}

		//クーポンの使用回数を消費する
		if in.VoucherID != nil {
			if err := consumeVoucherUsage(ctx, r, *in.VoucherID); err != nil {
				return WrapInternal(err)
			}
		}

		out = toOrderOutput(model.Order{
			ID:             orderID,
			UserID:         userID,
			TotalAmount:    in.TotalAmount,
			PaymentMethod:  method,
			VoucherID:      in.VoucherID,
			Status:         model.OrderStatusPending,
			PaymentStatus:  model.PaymentStatusUnpaid,
			ShipName:       in.Address.Name,
			ShipPhone:      in.Address.Phone,
			ShipPostalCode: in.Address.PostalCode,
			ShipCity:       in.Address.City,
			ShipLine1:      in.Address.Line1,
			ShipLine2:      in.Address.Line2,
			CreatedAt:      now,
		}, orderItems)
		return nil
	})
	if err != nil {
		return PlaceOrderOutput{}, err
	}

	//配信はベストエフォート。失敗してもレスポンスは返す
	u.relay.Publish(ctx, notify.NewOrderEvent(notify.EventOrderCreated, out.ID, out))

	res := PlaceOrderOutput{Order: out}
	switch method {
	case model.PaymentMethodBank:
		res.Message = "order placed, awaiting bank transfer"
		res.BankInfo = &u.bank
		res.QRCodeURL = payment.QRCodeURL(u.bank, out.ID, out.TotalAmount)
	case model.PaymentMethodCOD:
		res.Message = "order placed"
	default:
		//MOMO: 受け付けるだけで専用フローは無い
		res.Message = "order placed"
	}
	return res, nil
}

// 明細の確定。bodyのitemsが非空ならそれを信用し、
// 空ならACTIVEカートを読む。カート経由のときはcartIDを返す（それ以外は0）。
func (u *OrderUsecase) resolveItems(ctx context.Context, r repo.TxRepos, userID int64, items []OrderItemInput) ([]model.OrderItem, int64, error) {
	now := u.now()

	if len(items) > 0 {
		out := make([]model.OrderItem, 0, len(items))
		for _, it := range items {
			if it.ProductID <= 0 || it.Quantity <= 0 || it.Price < 0 {
				return nil, 0, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid item")
			}

			//スナップショット用に商品だけ読む（価格と数量はbodyを信用する）
			p, err := r.Products().FindByID(ctx, it.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				return nil, 0, NewHTTPError(http.StatusNotFound, CodeNotFound, "product not found")
			}
			if err != nil {
				return nil, 0, WrapInternal(err)
			}

			out = append(out, model.OrderItem{
				ProductID:            it.ProductID,
				ColorID:              it.ColorID,
				ProductNameSnapshot:  p.Name,
				ProductImageSnapshot: p.ImageURL,
				UnitPriceSnapshot:    it.Price,
				Quantity:             it.Quantity,
				CreatedAt:            now,
			})
		}
		return out, 0, nil
	}

	cart, err := r.Carts().FindActiveByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, 0, NewHTTPError(http.StatusBadRequest, CodeValidation, "cart empty")
	}
	if err != nil {
		return nil, 0, WrapInternal(err)
	}

	cartItems, err := r.CartItems().ListByCartID(ctx, cart.ID)
	if err != nil {
		return nil, 0, WrapInternal(err)
	}
	if len(cartItems) == 0 {
		return nil, 0, NewHTTPError(http.StatusBadRequest, CodeValidation, "cart empty")
	}

	out := make([]model.OrderItem, 0, len(cartItems))
	for _, ci := range cartItems {
		p, err := r.Products().FindByID(ctx, ci.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, 0, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid cart item")
		}
		if err != nil {
			return nil, 0, WrapInternal(err)
		}
		if !p.IsActive {
			return nil, 0, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid cart item")
		}

		out = append(out, model.OrderItem{
			ProductID:            ci.ProductID,
			ColorID:              ci.ColorID,
			ProductNameSnapshot:  p.Name,
			ProductImageSnapshot: p.ImageURL,
			UnitPriceSnapshot:    ci.UnitPriceSnapshot,
			Quantity:             ci.Quantity,
			CreatedAt:            now,
		})
	}
	return out, cart.ID, nil
}

// クーポンの使用回数を1消費する。
//   - もう存在しない場合は何もしない
//   - usage_limitがnil（無制限）なら何もしない
//   - 0になったら行ごと削除する（使い切り＝削除の仕様をそのまま維持）
func consumeVoucherUsage(ctx context.Context, r repo.TxRepos, voucherID int64) error {
	v, err := r.Vouchers().FindByID(ctx, voucherID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if v.UsageLimit == nil {
		return nil
	}

	ok, err := r.Vouchers().DecrementUsage(ctx, voucherID)
	if err != nil {
		return err
	}
	if ok && *v.UsageLimit == 1 {
		//ちょうど0に到達
		if err := r.Vouchers().Delete(ctx, voucherID); err != nil && !errors.Is(err, repo.ErrNotFound) {
			return err
		}
	}
	return nil
}

// 適用不可理由をユーザー向けメッセージへ
func usableMessage(err error) string {
	switch {
	case errors.Is(err, voucher.ErrInactive):
		return "voucher is not active"
	case errors.Is(err, voucher.ErrNotStarted):
		return "voucher is not valid yet"
	case errors.Is(err, voucher.ErrExpired):
		return "voucher has expired"
	case errors.Is(err, voucher.ErrExhausted):
		return "voucher usage limit reached"
	case errors.Is(err, voucher.ErrMinOrder):
		return "order total does not meet voucher minimum"
	}
	return "voucher cannot be applied"
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64) ([]MyOrderSummary, error) {
	if userID <= 0 {
		return []MyOrderSummary{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}

	//ページングはまず固定で取る
	var outs []MyOrderSummary

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListByUserID(ctx, userID, 1, 50)
		if err != nil {
			return WrapInternal(err)
		}

		outs = make([]MyOrderSummary, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return WrapInternal(err)
			}

			s := MyOrderSummary{
				ID:            o.ID,
				TotalAmount:   o.TotalAmount,
				Status:        string(o.Status),
				PaymentStatus: string(o.PaymentStatus),
				CreatedAt:     o.CreatedAt,
				ItemCount:     len(items),
			}
			if len(items) > 0 {
				s.FirstItemName = items[0].ProductNameSnapshot
				s.FirstItemImage = items[0].ProductImageSnapshot
			}
			outs = append(outs, s)
		}
		return nil
	})
	if err != nil {
		return []MyOrderSummary{}, err
	}
	return outs, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
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
		if o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
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
	return out, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			ColorID:   it.ColorID,
			Name:      it.ProductNameSnapshot,
			Image:     it.ProductImageSnapshot,
			Price:     it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
		})
	}

	return OrderOutput{
		ID:            o.ID,
		UserID:        o.UserID,
		TotalAmount:   o.TotalAmount,
		PaymentMethod: string(o.PaymentMethod),
		VoucherID:     o.VoucherID,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		Address: AddressInput{
			Name:       o.ShipName,
			Phone:      o.ShipPhone,
			PostalCode: o.ShipPostalCode,
			City:       o.ShipCity,
			Line1:      o.ShipLine1,
			Line2:      o.ShipLine2,
		},
		CreatedAt: o.CreatedAt,
		Items:     outItems,
	}
}
