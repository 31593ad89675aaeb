package usecase

import "errors"

// 機械可読コード。messageは表示用でいつでも変えられるので、
// クライアントの分岐はこちらに依存させる
const (
	CodeUnauthorized = "UNAUTHORIZED"
	CodeValidation   = "VALIDATION"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeOutOfStock   = "OUT_OF_STOCK"
	CodeInternal     = "INTERNAL"
)

type HTTPError struct {
	Status  int
	Code    string
	Message string

	//500の元エラー。本番では外に出さない
	Cause error
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Cause
}

func NewHTTPError(status int, code string, message string) error {
	return &HTTPError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

// DB等の低レベル失敗を500に包む。causeはdev環境でだけ露出する
func WrapInternal(err error) error {
	return &HTTPError{
		Status:  500,
		Code:    CodeInternal,
		Message: "internal error",
		Cause:   err,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}
