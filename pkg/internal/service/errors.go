package service

import (
	"errors"
	"fmt"

	"github.com/yeisme/imagevault/pkg/rule"
)

var (
	// ErrNotFound 资源不存在，或链接无效、已过期.
	ErrNotFound = errors.New("not found")
	// ErrForbidden 无权访问资源或套餐不允许该操作.
	ErrForbidden = errors.New("forbidden")
	// ErrUnavailable 依赖未初始化.
	ErrUnavailable = errors.New("dependency unavailable")
)

// ValidationError 输入校验失败，携带字段名与约束说明.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// fromRuleError 把 rule 校验错误转换为 ValidationError，字段取第一个出错字段.
func fromRuleError(err error) error {
	if err == nil {
		return nil
	}

	errs := rule.Errors(err)
	if len(errs) == 0 {
		return err
	}

	field, msg := firstError(errs)

	return &ValidationError{Field: field, Message: msg}
}

func firstError(errs rule.ValidationErrors) (string, string) {
	var field string
	for f := range errs {
		if field == "" || f < field {
			field = f
		}
	}

	return field, errs[field]
}
