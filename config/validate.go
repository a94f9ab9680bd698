package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError 单个字段的校验失败信息
type FieldError struct {
	Field string
	Tag   string
	Param string
	Value interface{}
}

func (e FieldError) String() string {
	if e.Param != "" {
		return fmt.Sprintf("%s=%v violates %s=%s", e.Field, e.Value, e.Tag, e.Param)
	}
	return fmt.Sprintf("%s=%v violates %s", e.Field, e.Value, e.Tag)
}

// ValidationError 配置超出取值范围，属于致命错误，不会被静默修正
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid configuration"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return "invalid configuration: " + strings.Join(parts, "; ")
}

// Validator 返回单例校验器，注册了 finite 自定义规则
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
			f := fl.Field().Float()
			return !math.IsNaN(f) && !math.IsInf(f, 0)
		})
	})
	return validate
}

// Validate 校验排序系数
func (r Ranking) Validate() error {
	return validateStruct(r)
}

// Validate 校验整份配置（包括排序系数）
func (c *Config) Validate() error {
	return validateStruct(c)
}

// ValidateStruct 校验任意带 validate 标签的结构体（请求体等）
func ValidateStruct(s interface{}) error {
	return validateStruct(s)
}

func validateStruct(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field: fe.Namespace(),
			Tag:   fe.Tag(),
			Param: fe.Param(),
			Value: fe.Value(),
		})
	}
	return out
}
