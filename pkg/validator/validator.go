// Package validator gin struct validator on top of go-playground/validator
// Package validator 基于 go-playground/validator 的 gin 结构体校验器
package validator

import (
	"reflect"
	"sync"

	"github.com/haierkeys/block-note-service/pkg/notepath"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// CustomValidator implements binding.StructValidator with lazy engine creation
// CustomValidator 实现 binding.StructValidator，引擎延迟创建
type CustomValidator struct {
	once     sync.Once
	validate *validator.Validate
}

var _ binding.StructValidator = (*CustomValidator)(nil)

func NewCustomValidator() *CustomValidator {
	return &CustomValidator{}
}

// ValidateStruct validates structs and pointers to structs, anything else passes
func (v *CustomValidator) ValidateStruct(obj interface{}) error {
	if obj == nil {
		return nil
	}
	t := reflect.TypeOf(obj)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	v.lazyinit()
	return v.validate.Struct(obj)
}

// Engine returns the underlying *validator.Validate
func (v *CustomValidator) Engine() interface{} {
	v.lazyinit()
	return v.validate
}

func (v *CustomValidator) lazyinit() {
	v.once.Do(func() {
		v.validate = validator.New()
		v.validate.SetTagName("binding")
	})
}

// RegisterCustom registers the project tags on the gin validator engine
// RegisterCustom 在 gin 校验引擎上注册自定义标签
//
//	notepath: the string normalizes to a note path
func RegisterCustom() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = RegisterOn(v)
	}
}

// RegisterOn registers the project tags on v
// RegisterOn 在 v 上注册自定义标签
func RegisterOn(v *validator.Validate) error {
	return v.RegisterValidation("notepath", func(fl validator.FieldLevel) bool {
		_, err := notepath.Normalize(fl.Field().String())
		return err == nil
	})
}
