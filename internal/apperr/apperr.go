// Package apperr 提供带类别标签的业务错误，供 handler 层映射为 HTTP 状态码。
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 标识错误的类别。
type Kind int

const (
	// KindInternal 未分类的内部错误。
	KindInternal Kind = iota
	// KindInvalid 请求参数或输入不合法。
	KindInvalid
	// KindNotAuthenticated 缺少或无效的身份凭证。
	KindNotAuthenticated
	// KindUnauthorized 已认证但无权访问该资源。
	KindUnauthorized
	// KindNotFound 资源不存在。
	KindNotFound
	// KindUnavailable 下游依赖（存储、模型服务等）调用失败。
	KindUnavailable
)

// Error 是带类别的错误值。
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New 创建一个指定类别的错误。
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap 包装底层错误并附加类别与描述。
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Is 判断 err 的类别是否为 kind。
func Is(err error, kind Kind) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}

// HTTPStatus 将错误映射为 HTTP 状态码。
func HTTPStatus(err error) int {
	var ae *Error
	if !errors.As(err, &ae) {
		return http.StatusInternalServerError
	}
	switch ae.Kind {
	case KindInvalid:
		return http.StatusBadRequest
	case KindNotAuthenticated:
		return http.StatusUnauthorized
	case KindUnauthorized:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message 返回适合放入响应体的简短描述。
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Msg
	}
	return "internal server error"
}
