package validate

import (
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"hihitutor/internal/pkg/apperr"
)

type sample struct {
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"hkphone"`
	Password string `json:"password" validate:"password"`
	Name     string `json:"name" validate:"notblank"`
}

func TestStruct(t *testing.T) {
	Convey("Struct 校验", t, func() {
		Convey("合法输入", func() {
			So(Struct(&sample{Email: "a@x.com", Phone: "61234567", Password: "abcd1234", Name: "陈大文"}), ShouldBeNil)
		})

		Convey("非法输入返回字段错误", func() {
			err := Struct(&sample{Email: "bad", Phone: "123", Password: "abcdefgh", Name: "  "})
			So(err, ShouldNotBeNil)
			So(errors.Is(err, ErrInvalidInput), ShouldBeTrue)

			ae := apperr.From(err)
			So(ae.Kind, ShouldEqual, apperr.KindValidation)

			fields := map[string]bool{}
			for _, f := range ae.Fields {
				fields[f.Field] = true
				So(f.Message, ShouldNotBeBlank)
			}
			So(fields, ShouldContainKey, "email")
			So(fields, ShouldContainKey, "phone")
			So(fields, ShouldContainKey, "password")
			So(fields, ShouldContainKey, "name")
		})
	})
}

func TestHelpers(t *testing.T) {
	Convey("辅助函数", t, func() {
		So(IsStrongPassword("abc12345"), ShouldBeTrue)
		So(IsStrongPassword("12345678"), ShouldBeFalse)
		So(IsStrongPassword("abc123"), ShouldBeFalse)
		So(IsStrongPassword(strings.Repeat("ab12", 18)), ShouldBeTrue)
		So(IsStrongPassword(strings.Repeat("ab12", 20)), ShouldBeFalse)
		So(IsPhone("61234567"), ShouldBeTrue)
		So(IsPhone("01234567"), ShouldBeFalse)
		So(IsEmail("a@x.com"), ShouldBeTrue)
		So(IsEmail("61234567"), ShouldBeFalse)
	})
}
