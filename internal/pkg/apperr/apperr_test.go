package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestError(t *testing.T) {
	Convey("apperr.Error", t, func() {
		sentinel := Conflict(40901, "该电邮已被注册")

		Convey("副本仍然匹配哨兵错误", func() {
			wrapped := fmt.Errorf("register: %w", sentinel.WithCause(errors.New("dup key")))
			So(errors.Is(wrapped, sentinel), ShouldBeTrue)
			So(IsKind(wrapped, KindConflict), ShouldBeTrue)
			So(From(wrapped).HTTPStatus(), ShouldEqual, http.StatusConflict)
		})

		Convey("不同消息不匹配", func() {
			So(errors.Is(Conflict(40901, "电话已被注册"), sentinel), ShouldBeFalse)
		})

		Convey("未知错误视为 Internal", func() {
			ae := From(errors.New("socket closed"))
			So(ae.Kind, ShouldEqual, KindInternal)
			So(ae.HTTPStatus(), ShouldEqual, http.StatusInternalServerError)
			So(ae.Message, ShouldNotContainSubstring, "socket")
		})

		Convey("WithFields 不修改原错误", func() {
			base := Validation(40001, "参数错误")
			withField := base.WithFields(FieldError{Field: "email", Message: "格式不正确"})
			So(base.Fields, ShouldBeEmpty)
			So(withField.Fields, ShouldHaveLength, 1)
		})
	})
}
