// Package validate 基于 go-playground/validator 的输入校验
package validate

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"

	"hihitutor/internal/pkg/apperr"
	"hihitutor/internal/pkg/password"
)

var (
	v          *validator.Validate
	translator ut.Translator

	phonePattern = regexp.MustCompile(`^[2-9]\d{7}$`)
)

// 自定义校验标签
const (
	tagPassword = "password"
	tagPhone    = "hkphone"
	tagNotBlank = "notblank"
)

// ErrInvalidInput 通用参数错误
var ErrInvalidInput = apperr.Validation(40001, "请求参数错误")

func init() {
	v = validator.New()

	_zh := zh.New()
	uni := ut.New(_zh, _zh)
	translator, _ = uni.GetTranslator("zh")
	_ = zh_translations.RegisterDefaultTranslations(v, translator)

	// 错误信息使用 json 字段名
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})

	_ = v.RegisterValidation(tagPassword, func(fl validator.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	})
	_ = v.RegisterValidation(tagPhone, func(fl validator.FieldLevel) bool {
		return IsPhone(fl.Field().String())
	})
	_ = v.RegisterValidation(tagNotBlank, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	messages := map[string]string{
		tagPassword: "{0}需为8至72个字符，并同时包含英文字母与数字",
		tagPhone:    "{0}必须是有效的8位电话号码",
		tagNotBlank: "{0}不能为空",
	}
	for tag, msg := range messages {
		msg := msg
		_ = v.RegisterTranslation(tag, translator,
			func(t ut.Translator) error { return t.Add(tag, msg, true) },
			func(t ut.Translator, fe validator.FieldError) string {
				s, _ := t.T(fe.Tag(), fe.Field())
				return s
			})
	}
}

// Struct 校验结构体，失败时返回带字段信息的 *apperr.Error
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ErrInvalidInput.WithCause(err)
	}

	fields := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperr.FieldError{
			Field:   fe.Field(),
			Message: fe.Translate(translator),
		})
	}
	return ErrInvalidInput.WithFields(fields...)
}

// Var 校验单个值
func Var(field string, value any, tag string) error {
	err := v.Var(value, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		msg := strings.TrimSpace(verrs[0].Translate(translator))
		return ErrInvalidInput.WithFields(apperr.FieldError{Field: field, Message: field + msg})
	}
	return ErrInvalidInput.WithCause(err)
}

// IsStrongPassword 8 个字符至 72 字节，同时包含字母和数字
func IsStrongPassword(s string) bool {
	if len(s) < 8 || len(s) > password.MaxBytes {
		return false
	}
	var letter, digit bool
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return letter && digit
}

// IsPhone 香港8位电话号码
func IsPhone(s string) bool {
	return phonePattern.MatchString(s)
}

// IsEmail 简单判断标识是否为邮箱（用于登录时区分邮箱与电话）
func IsEmail(s string) bool {
	return v.Var(s, "required,email") == nil
}
