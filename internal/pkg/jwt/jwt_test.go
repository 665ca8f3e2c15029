package jwt

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	. "github.com/smartystreets/goconvey/convey"
)

func TestIssuer(t *testing.T) {
	Convey("签发与校验", t, func() {
		iss := NewIssuer("secret", time.Hour)
		token, err := iss.Issue(Subject{UserID: "u1", UserCode: "T-00001", Role: "tutor"})
		So(err, ShouldBeNil)

		claims, err := iss.Parse(token)
		So(err, ShouldBeNil)
		So(claims.UserID(), ShouldEqual, "u1")
		So(claims.UserCode, ShouldEqual, "T-00001")
		So(claims.Role, ShouldEqual, "tutor")
		So(claims.Issuer, ShouldEqual, "hihitutor")

		Convey("密钥不同则无效", func() {
			_, err := NewIssuer("other", time.Hour).Parse(token)
			So(err, ShouldEqual, ErrInvalidToken)
		})

		Convey("过期", func() {
			later := NewIssuer("secret", time.Hour)
			later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
			_, err := later.Parse(token)
			So(err, ShouldEqual, ErrExpiredToken)
		})

		Convey("乱码", func() {
			_, err := iss.Parse("not-a-token")
			So(err, ShouldEqual, ErrInvalidToken)
		})

		Convey("其他签发方", func() {
			foreign, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.RegisteredClaims{
				Issuer:    "someone-else",
				Subject:   "u1",
				ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
			}).SignedString([]byte("secret"))
			So(err, ShouldBeNil)
			_, err = iss.Parse(foreign)
			So(err, ShouldEqual, ErrInvalidToken)
		})
	})

	Convey("缺少用户ID不签发", t, func() {
		_, err := NewIssuer("secret", time.Hour).Issue(Subject{Role: "user"})
		So(err, ShouldEqual, ErrInvalidToken)
	})

	Convey("Refresh Token 随机", t, func() {
		a, err := NewRefreshToken()
		So(err, ShouldBeNil)
		b, _ := NewRefreshToken()
		So(a, ShouldHaveLength, 64)
		So(a, ShouldNotEqual, b)
	})
}
