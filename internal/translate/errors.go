package translate

import (
	"errors"
	"fmt"
)

// ErrEmptyInput 输入为空（去除空白后）
var ErrEmptyInput = errors.New("empty text provided")

// Kind 错误类别
type Kind string

const (
	KindTransport   Kind = "transport"    // 网络、超时或 HTTP 状态
	KindParse       Kind = "parse"        // 响应格式不符合预期
	KindEmptyResult Kind = "empty_result" // 服务返回空译文
)

// Error 翻译错误
type Error struct {
	Kind     Kind
	Provider string
	Cause    error
}

// Error 实现error接口
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Provider, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Provider)
}

// Unwrap 返回原因错误
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsTransport 是否为传输错误
func IsTransport(err error) bool {
	return isKind(err, KindTransport)
}

// IsParse 是否为解析错误
func IsParse(err error) bool {
	return isKind(err, KindParse)
}

func isKind(err error, kind Kind) bool {
	var terr *Error
	return errors.As(err, &terr) && terr.Kind == kind
}
