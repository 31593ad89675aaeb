package payment

import (
	"fmt"
	"net/url"
	"strconv"
)

// 振込先。レスポンスにそのまま含める
type BankInfo struct {
	BankCode    string `json:"bank_code"`
	AccountNo   string `json:"account_no"`
	AccountName string `json:"account_name"`
}

// QRCodeURL は銀行振込用QR画像のURLを組み立てる。
// 画像の描画は外部サービス任せで、署名も入金検証もしない
// （入金確認はオペレーターの手作業）。
func QRCodeURL(info BankInfo, orderID int64, amount int64) string {
	q := url.Values{}
	q.Set("amount", strconv.FormatInt(amount, 10))
	q.Set("addInfo", fmt.Sprintf("Thanh toan don hang %d", orderID))
	q.Set("accountName", info.AccountName)

	return fmt.Sprintf(
		"https://img.vietqr.io/image/%s-%s-compact2.png?%s",
		url.PathEscape(info.BankCode),
		url.PathEscape(info.AccountNo),
		q.Encode(),
	)
}
