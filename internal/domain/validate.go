package domain

import (
	"errors"
	"sync"

	"github.com/medref/revision-service/pkg/validator"

	v10 "github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *v10.Validate
)

func engine() *v10.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// FieldError 单个字段的校验失败
type FieldError struct {
	Field string
	Rule  string
}

func (e FieldError) String() string {
	return e.Field + ": " + e.Rule
}

// ValidationError collects every failed field of a payload
// ValidationError 汇总载荷中所有校验失败的字段
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msg := "invalid revision fields"
	for i, f := range e.Fields {
		if i == 0 {
			msg += ": "
		} else {
			msg += ", "
		}
		msg += f.String()
	}
	return msg
}

// Details 以字符串列表输出，供错误码详情使用
func (e *ValidationError) Details() []string {
	out := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		out = append(out, f.String())
	}
	return out
}

// Validate checks required fields and enum values, returning *ValidationError on failure
// Validate 校验必填字段与枚举取值，失败时返回 *ValidationError
func (f *RevisionFields) Validate() error {
	err := engine().Struct(f)
	if err == nil {
		return nil
	}
	var verrs v10.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: trimRoot(fe.Namespace()), Rule: fe.Tag()})
	}
	return out
}

// trimRoot 去掉命名空间开头的结构体名
func trimRoot(ns string) string {
	for i := 0; i < len(ns); i++ {
		if ns[i] == '.' {
			return ns[i+1:]
		}
	}
	return ns
}
