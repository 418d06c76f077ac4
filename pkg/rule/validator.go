// Package rule 提供结构体和字段验证功能的封装，基于 go-playground/validator 实现.
package rule

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// OriginalIdentifier 表示"原图"的链接标识.
const OriginalIdentifier = "original"

// identifierPattern 缩略图尺寸标识：不以 0 开头的十进制正整数，最多 10 位.
var identifierPattern = regexp.MustCompile(`^[1-9][0-9]{0,9}$`)

var (
	inst *validator.Validate
	once sync.Once
)

// initValidator 尝试复用 gin 的 validator 引擎；若不可用则新建并注册 tag name 函数.
func initValidator() {
	inst = nil

	if engine := binding.Validator.Engine(); engine != nil {
		if v, ok := engine.(*validator.Validate); ok {
			inst = v
		}
	}

	if inst == nil {
		inst = validator.New()
	}

	inst.SetTagName("rule")
	inst.RegisterTagNameFunc(jsonFieldName)
	_ = inst.RegisterValidation("link_identifier", validateIdentifier)
}

// jsonFieldName 错误中的字段名使用 json 标签，没有标签时使用结构体字段名.
func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	default:
		return name
	}
}

// validateIdentifier 校验链接标识：original 或缩略图尺寸.
func validateIdentifier(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	return IsIdentifier(s)
}

// IsIdentifier 判断 s 是否为合法的链接标识.
func IsIdentifier(s string) bool {
	return s == OriginalIdentifier || identifierPattern.MatchString(s)
}

// lazyInit 初始化全局 validator（幂等）.
func lazyInit() {
	once.Do(initValidator)
}

// Engine 返回全局 *validator.Validate，若未初始化则先初始化.
func Engine() *validator.Validate {
	lazyInit()

	return inst
}

// ValidationErrors 是格式化后的验证错误字典，键为字段名，值为可读错误信息.
type ValidationErrors map[string]string

// Errors 把 validator 返回的错误转换为 ValidationErrors；非校验错误返回 nil.
func Errors(err error) ValidationErrors {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make(ValidationErrors, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = describe(fe)
	}

	return out
}

// describe 生成单个字段的错误描述.
func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "link_identifier":
		return fmt.Sprintf("must be %q or a positive size of at most 10 digits", OriginalIdentifier)
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
		}

		return "failed " + fe.Tag()
	}
}

// ValidateStruct 对结构体执行完整校验，返回原始 error（可用 Errors 解析）.
func ValidateStruct(s any) error {
	lazyInit()

	return inst.Struct(s)
}
