package core

import "errors"

// DomainError 是各模块对外暴露的错误类型，按 Module + Code 分类，可穿透 fmt.Errorf("%w") 包装。
//
//   - profile: INVALID_INPUT（列表响应缺字段）
//   - source:  NOT_FOUND（用户不存在）、UNAVAILABLE（上游不可用、熔断）、INVALID_INPUT（响应结构不符）
//   - filter:  INVALID_INPUT（过滤表达式非法），HTTP 层据此返回 400
//   - store:   NOT_FOUND、NOT_SUPPORTED、UNAVAILABLE
type DomainError struct {
	Module  string
	Code    string
	Message string
	Err     error // 原始错误，可为空
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is 让 errors.Is 按 Module + Code 匹配，而不是按指针。
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Module == t.Module && e.Code == t.Code
}

// GetDomainError 返回错误链中最外层的 DomainError，没有则返回 nil。
func GetDomainError(err error) *DomainError {
	var de *DomainError
	if errors.As(err, &de) {
		return de
	}
	return nil
}

func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{Module: module, Code: code, Message: message}
}

func WrapDomainError(module, code, message string, err error) *DomainError {
	return &DomainError{Module: module, Code: code, Message: message, Err: err}
}

const (
	ErrorCodeNotFound     = "NOT_FOUND"
	ErrorCodeNotSupported = "NOT_SUPPORTED"
	ErrorCodeUnavailable  = "UNAVAILABLE"
	ErrorCodeInvalidInput = "INVALID_INPUT"
)

const (
	ModuleStore   = "store"
	ModuleProfile = "profile"
	ModuleSource  = "source"
	ModuleFilter  = "filter"
)

// Match 报告错误链中的 DomainError 是否属于 module 且 code 相同；module 为空时只比较 code。
func Match(err error, module, code string) bool {
	de := GetDomainError(err)
	if de == nil || de.Code != code {
		return false
	}
	return module == "" || de.Module == module
}

func IsNotFound(err error) bool     { return Match(err, "", ErrorCodeNotFound) }
func IsUnavailable(err error) bool  { return Match(err, "", ErrorCodeUnavailable) }
func IsInvalidInput(err error) bool { return Match(err, "", ErrorCodeInvalidInput) }
