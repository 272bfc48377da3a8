package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

// エラーの種類。レスポンスの code にそのまま出す
type ErrorKind string

const (
	KindValidation   ErrorKind = "VALIDATION_ERROR"
	KindNotFound     ErrorKind = "NOT_FOUND"
	KindUnauthorized ErrorKind = "UNAUTHORIZED"
	KindForbidden    ErrorKind = "FORBIDDEN"
	KindConflict     ErrorKind = "CONFLICT"
	KindInventory    ErrorKind = "INVENTORY_ERROR"
	KindUpstream     ErrorKind = "UPSTREAM_ERROR"
	KindInternal     ErrorKind = "INTERNAL_ERROR"
)

func (k ErrorKind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict, KindInventory:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type HTTPError struct {
	Status  int
	Kind    ErrorKind
	Message string
	Details interface{}

	//ログ用。クライアントには出さない
	cause error
}

func (e *HTTPError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%d: %s: %v", e.Status, e.Message, e.cause)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.cause
}

func NewHTTPError(kind ErrorKind, message string) error {
	return &HTTPError{
		Status:  kind.Status(),
		Kind:    kind,
		Message: message,
	}
}

func NewHTTPErrorWithDetails(kind ErrorKind, message string, details interface{}) error {
	return &HTTPError{
		Status:  kind.Status(),
		Kind:    kind,
		Message: message,
		Details: details,
	}
}

// 想定外のエラー。メッセージは固定で、原因はログにだけ出す
func internalError(cause error) error {
	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Kind:    KindInternal,
		Message: "internal error",
		cause:   cause,
	}
}

// 決済プロバイダの失敗
func upstreamError(message string, cause error) error {
	return &HTTPError{
		Status:  http.StatusBadGateway,
		Kind:    KindUpstream,
		Message: message,
		cause:   cause,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// HTTPErrorならそのまま、それ以外はINTERNAL_ERRORに包む
func asUsecaseError(err error) error {
	if _, ok := AsHTTPError(err); ok {
		return err
	}
	return internalError(err)
}
