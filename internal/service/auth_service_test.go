package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"hihitutor/internal/model/auth"
	"hihitutor/internal/pkg/apperr"
)

func orgInput(email, phone string, files OrganizationFiles) *RegisterInput {
	return &RegisterInput{
		Name:                       "好学教育",
		Email:                      email,
		Phone:                      phone,
		Password:                   "abcd1234",
		UserType:                   auth.UserTypeOrganization,
		InstitutionName:            "好学教育中心",
		BusinessRegistrationNumber: "12345678",
		Documents:                  files,
	}
}

func fileInput(name string, data []byte) *FileInput {
	return &FileInput{Name: name, Reader: bytes.NewReader(data)}
}

func TestAuthService_Register(t *testing.T) {
	Convey("注册", t, func() {
		ctx := context.Background()
		env := newTestEnv(t)

		Convey("个人用户注册后获得 U- 编号与 Token", func() {
			res, err := env.registerIndividual("a@x.com", "61234567")
			So(err, ShouldBeNil)
			So(res.AccessToken, ShouldNotBeBlank)
			So(res.RefreshToken, ShouldNotBeBlank)
			So(res.Role, ShouldEqual, auth.RoleStudent)
			So(res.User.UserCode, ShouldEqual, "U-00001")
			So(res.User.Status, ShouldEqual, auth.UserStatusActive)
			So(res.User.Password, ShouldNotEqual, "abcd1234")
			So(env.mailer.Subjects(), ShouldHaveLength, 1)

			Convey("已验证状态只能使用一次", func() {
				verified, _ := env.store.IsVerified(ctx, "61234567")
				So(verified, ShouldBeFalse)
			})

			Convey("同一邮箱再次注册返回冲突", func() {
				_, err := env.registerIndividual("A@X.com", "62345678")
				So(errors.Is(err, ErrEmailTaken), ShouldBeTrue)
				So(apperr.From(err).HTTPStatus(), ShouldEqual, 409)
				So(env.users.Len(), ShouldEqual, 1)

				Convey("冲突不消耗已验证状态", func() {
					verified, _ := env.store.IsVerified(ctx, "62345678")
					So(verified, ShouldBeTrue)
				})
			})

			Convey("同一电话再次注册返回冲突", func() {
				_, err := env.registerIndividual("b@x.com", "61234567")
				So(errors.Is(err, ErrPhoneTaken), ShouldBeTrue)
			})

			Convey("第二个个人用户编号递增", func() {
				u := env.mustRegister(t, "b@x.com", "62345678")
				So(u.UserCode, ShouldEqual, "U-00002")
			})
		})

		Convey("电话未验证时拒绝且不写入", func() {
			_, err := env.auth.Register(ctx, &RegisterInput{
				Name: "陈大文", Email: "a@x.com", Phone: "61234567", Password: "abcd1234", UserType: auth.UserTypeIndividual,
			})
			So(errors.Is(err, ErrPhoneNotVerified), ShouldBeTrue)
			So(env.users.Len(), ShouldEqual, 0)
		})

		Convey("参数校验失败返回字段错误", func() {
			_, err := env.auth.Register(ctx, &RegisterInput{Email: "bad", Phone: "123", Password: "short", UserType: "robot"})
			ae := apperr.From(err)
			So(ae.Kind, ShouldEqual, apperr.KindValidation)
			So(len(ae.Fields), ShouldBeGreaterThanOrEqualTo, 4)
		})

		Convey("超过 72 字节的密码返回字段错误而不是服务器错误", func() {
			_ = env.store.MarkVerified(ctx, "61234567")
			_, err := env.auth.Register(ctx, &RegisterInput{
				Name: "陈大文", Email: "a@x.com", Phone: "61234567",
				Password: strings.Repeat("abcd1234", 10), UserType: auth.UserTypeIndividual,
			})
			ae := apperr.From(err)
			So(ae.Kind, ShouldEqual, apperr.KindValidation)
			So(ae.HTTPStatus(), ShouldEqual, 400)
			So(ae.Fields[0].Field, ShouldEqual, "password")
			So(env.users.Len(), ShouldEqual, 0)
		})

		Convey("停用后用同一邮箱注册会重新激活原记录", func() {
			u := env.mustRegister(t, "a@x.com", "61234567")
			_, err := env.user.Deactivate(ctx, auth.NewActor(u), u.ID)
			So(err, ShouldBeNil)

			res, err := env.registerIndividual("a@x.com", "62345678")
			So(err, ShouldBeNil)
			So(res.User.ID, ShouldEqual, u.ID)
			So(res.User.Status, ShouldEqual, auth.UserStatusActive)
			So(res.User.Phone, ShouldEqual, "62345678")
			So(res.User.UserCode, ShouldEqual, u.UserCode)
			So(env.users.Len(), ShouldEqual, 1)
		})

		Convey("出生日期计算年龄", func() {
			_ = env.store.MarkVerified(ctx, "61234567")
			res, err := env.auth.Register(ctx, &RegisterInput{
				Name: "小明", Email: "kid@x.com", Phone: "61234567", Password: "abcd1234",
				UserType: auth.UserTypeIndividual, Birthdate: "2015-01-01",
				Guardian: &auth.Guardian{Name: "陈太", Relationship: "母亲"},
			})
			So(err, ShouldBeNil)
			So(res.User.Birthdate, ShouldNotBeNil)
			So(res.User.Age, ShouldBeGreaterThan, 0)
			So(res.User.Guardian.Name, ShouldEqual, "陈太")
		})
	})
}

func TestAuthService_RegisterOrganization(t *testing.T) {
	Convey("机构注册", t, func() {
		ctx := context.Background()
		env := newTestEnv(t)
		_ = env.store.MarkVerified(ctx, "51234567")

		Convey("缺少文件时拒绝", func() {
			_, err := env.auth.Register(ctx, orgInput("org@x.com", "51234567", OrganizationFiles{
				BusinessRegistration: fileInput("br.pdf", pdfData),
			}))
			So(errors.Is(err, ErrMissingDocuments), ShouldBeTrue)
			So(len(apperr.From(err).Fields), ShouldEqual, 2)
			So(env.files.Len(), ShouldEqual, 0)
		})

		Convey("文件类型不允许时拒绝", func() {
			_, err := env.auth.Register(ctx, orgInput("org@x.com", "51234567", OrganizationFiles{
				BusinessRegistration: fileInput("br.pdf", pdfData),
				CR:                   fileInput("cr.txt", textData),
				AddressProof:         fileInput("addr.png", pngData),
			}))
			So(errors.Is(err, ErrInvalidFile), ShouldBeTrue)
			So(env.users.Len(), ShouldEqual, 0)
			So(env.files.Len(), ShouldEqual, 0)
		})

		Convey("文件齐全时创建待审核机构", func() {
			res, err := env.auth.Register(ctx, orgInput("org@x.com", "51234567", OrganizationFiles{
				BusinessRegistration: fileInput("br.pdf", pdfData),
				CR:                   fileInput("cr.pdf", pdfData),
				AddressProof:         fileInput("addr.png", pngData),
			}))
			So(err, ShouldBeNil)

			u := res.User
			So(u.UserCode, ShouldEqual, "ORG-00001")
			So(u.Tags, ShouldResemble, []string{auth.TagInstitution})
			So(u.OrgStatus, ShouldEqual, auth.OrgStatusPending)
			So(u.OrganizationDocs.Complete(), ShouldBeTrue)
			So(env.files.Len(), ShouldEqual, 3)

			f, err := env.files.FindByKey(ctx, u.OrganizationDocs.CR.Key)
			So(err, ShouldBeNil)
			So(f.OwnerID, ShouldEqual, u.ID)
			So(f.ContentType, ShouldEqual, "application/pdf")

			Convey("未审核前不能登录", func() {
				_, err := env.auth.Login(ctx, "org@x.com", "abcd1234")
				So(errors.Is(err, ErrOrganizationNotApproved), ShouldBeTrue)
			})

			Convey("审核通过后可以登录", func() {
				_, err := env.user.SetOrganizationStatus(ctx, adminActor, u.ID, auth.OrgStatusApproved)
				So(err, ShouldBeNil)

				res, err := env.auth.Login(ctx, "org@x.com", "abcd1234")
				So(err, ShouldBeNil)
				So(res.Role, ShouldEqual, auth.RoleOrganization)
			})

			Convey("文件缺失的机构不能登录", func() {
				stored, _ := env.users.FindByID(ctx, u.ID)
				stored.OrgStatus = auth.OrgStatusApproved
				stored.OrganizationDocs.AddressProof = nil
				env.users.put(stored)

				_, err := env.auth.Login(ctx, "org@x.com", "abcd1234")
				So(errors.Is(err, ErrOrganizationDocsMissing), ShouldBeTrue)
			})
		})
	})
}

func TestAuthService_Login(t *testing.T) {
	Convey("登录", t, func() {
		ctx := context.Background()
		env := newTestEnv(t)
		u := env.mustRegister(t, "a@x.com", "61234567")

		Convey("邮箱或电话均可登录", func() {
			res, err := env.auth.Login(ctx, "A@x.com", "abcd1234")
			So(err, ShouldBeNil)
			So(res.User.ID, ShouldEqual, u.ID)

			res, err = env.auth.Login(ctx, "61234567", "abcd1234")
			So(err, ShouldBeNil)
			So(res.TokenType, ShouldEqual, "Bearer")

			stored, _ := env.users.FindByID(ctx, u.ID)
			So(stored.LastLoginAt, ShouldNotBeNil)
		})

		Convey("密码错误与用户不存在返回同样的错误", func() {
			_, err1 := env.auth.Login(ctx, "a@x.com", "wrong1234")
			_, err2 := env.auth.Login(ctx, "nobody@x.com", "abcd1234")
			So(errors.Is(err1, ErrInvalidCredentials), ShouldBeTrue)
			So(errors.Is(err2, ErrInvalidCredentials), ShouldBeTrue)
		})

		Convey("停用用户不能登录", func() {
			_, err := env.user.Deactivate(ctx, auth.NewActor(u), u.ID)
			So(err, ShouldBeNil)
			_, err = env.auth.Login(ctx, "a@x.com", "abcd1234")
			So(errors.Is(err, ErrInvalidCredentials), ShouldBeTrue)
		})

		Convey("缺少参数", func() {
			_, err := env.auth.Login(ctx, " ", "abcd1234")
			So(errors.Is(err, ErrInvalidInput), ShouldBeTrue)
		})
	})
}

func TestAuthService_Tokens(t *testing.T) {
	Convey("Token", t, func() {
		ctx := context.Background()
		env := newTestEnv(t)
		res, err := env.registerIndividual("a@x.com", "61234567")
		So(err, ShouldBeNil)

		Convey("Access Token 解析出最新的用户记录", func() {
			u, err := env.auth.Authenticate(ctx, res.AccessToken)
			So(err, ShouldBeNil)
			So(u.ID, ShouldEqual, res.User.ID)

			Convey("停用后 Token 失效", func() {
				_, err := env.user.Deactivate(ctx, auth.NewActor(u), u.ID)
				So(err, ShouldBeNil)
				_, err = env.auth.Authenticate(ctx, res.AccessToken)
				So(errors.Is(err, ErrUserInactive), ShouldBeTrue)
			})
		})

		Convey("无效 Token", func() {
			_, err := env.auth.Authenticate(ctx, "not-a-token")
			So(errors.Is(err, ErrInvalidToken), ShouldBeTrue)
		})

		Convey("只保存令牌哈希", func() {
			_, plain := env.tokens.items[res.RefreshToken]
			So(plain, ShouldBeFalse)
			_, hashed := env.tokens.items[auth.HashRefreshToken(res.RefreshToken)]
			So(hashed, ShouldBeTrue)
		})

		Convey("刷新与注销", func() {
			refreshed, err := env.auth.RefreshToken(ctx, res.RefreshToken)
			So(err, ShouldBeNil)
			So(refreshed.AccessToken, ShouldNotBeBlank)

			So(env.auth.Logout(ctx, res.RefreshToken), ShouldBeNil)
			_, err = env.auth.RefreshToken(ctx, res.RefreshToken)
			So(errors.Is(err, ErrInvalidToken), ShouldBeTrue)
		})
	})
}

func TestAuthService_Availability(t *testing.T) {
	Convey("邮箱与电话可用性", t, func() {
		ctx := context.Background()
		env := newTestEnv(t)
		env.mustRegister(t, "a@x.com", "61234567")

		ok, err := env.auth.CheckEmail(ctx, "A@x.com")
		So(err, ShouldBeNil)
		So(ok, ShouldBeFalse)

		ok, err = env.auth.CheckEmail(ctx, "b@x.com")
		So(err, ShouldBeNil)
		So(ok, ShouldBeTrue)

		ok, err = env.auth.CheckPhone(ctx, "61234567")
		So(err, ShouldBeNil)
		So(ok, ShouldBeFalse)

		_, err = env.auth.CheckPhone(ctx, "123")
		So(errors.Is(err, ErrInvalidInput), ShouldBeTrue)
	})
}

func TestAuthService_ResetPassword(t *testing.T) {
	Convey("重设密码", t, func() {
		ctx := context.Background()
		env := newTestEnv(t)
		res, err := env.registerIndividual("a@x.com", "61234567")
		So(err, ShouldBeNil)

		code, err := env.store.Issue(ctx, "61234567")
		So(err, ShouldBeNil)

		Convey("验证码错误", func() {
			wrong := "000000"
			if code == wrong {
				wrong = "111111"
			}
			err := env.auth.ResetPassword(ctx, &ResetPasswordInput{Phone: "61234567", Code: wrong, NewPassword: "newpass99"})
			So(errors.Is(err, ErrCodeMismatch), ShouldBeTrue)
		})

		Convey("重设后旧密码失效，Refresh Token 被注销", func() {
			err := env.auth.ResetPassword(ctx, &ResetPasswordInput{Phone: "61234567", Code: code, NewPassword: "newpass99"})
			So(err, ShouldBeNil)

			_, err = env.auth.Login(ctx, "a@x.com", "abcd1234")
			So(errors.Is(err, ErrInvalidCredentials), ShouldBeTrue)
			_, err = env.auth.Login(ctx, "a@x.com", "newpass99")
			So(err, ShouldBeNil)

			_, err = env.auth.RefreshToken(ctx, res.RefreshToken)
			So(errors.Is(err, ErrInvalidToken), ShouldBeTrue)
		})
	})
}
