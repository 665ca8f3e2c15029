package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"hihitutor/internal/model/auth"
	"hihitutor/internal/model/profile"
	profileRepo "hihitutor/internal/repository/profile"
)

// stepClock 每次调用前进一秒
func stepClock() func() time.Time {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func TestParseSubmission(t *testing.T) {
	Convey("解析资料提交", t, func() {
		Convey("正常内容", func() {
			in, err := ParseSubmission([]byte(`{"fullName":"陈大文","gender":"男","certifications":["a.pdf"]}`))
			So(err, ShouldBeNil)
			So(in.FullName, ShouldEqual, "陈大文")
			So(in.Certifications, ShouldResemble, []string{"a.pdf"})
		})

		Convey("包含身份字段时整体拒绝", func() {
			for _, body := range []string{
				`{"fullName":"x","email":"e@x.com"}`,
				`{"fullName":"x","phone":"61234567"}`,
				`{"fullName":"x","_id":"abc"}`,
				`{"fullName":"x","password":"p"}`,
				`{"fullName":"x","userId":"u"}`,
			} {
				_, err := ParseSubmission([]byte(body))
				So(errors.Is(err, ErrForbiddenField), ShouldBeTrue)
			}
		})

		Convey("非法 JSON", func() {
			_, err := ParseSubmission([]byte(`{"fullName":`))
			So(errors.Is(err, ErrInvalidInput), ShouldBeTrue)
		})
	})
}

func TestProfileService_Approval(t *testing.T) {
	Convey("资料提交与审批", t, func() {
		ctx := context.Background()
		env := newTestEnv(t)
		env.profile.now = stepClock()

		u := env.mustRegister(t, "a@x.com", "61234567")
		self := auth.NewActor(u)

		_, err := env.profile.Submit(ctx, self, u.ID, &SubmitInput{
			FullName: "陈大文", Gender: profile.GenderMale, Education: "港大", Certifications: []string{"c1.pdf"},
		})
		So(err, ShouldBeNil)

		Convey("提交后处于待审状态，公开资料不可见", func() {
			mine, err := env.profile.GetMine(ctx, self)
			So(err, ShouldBeNil)
			So(mine.ProfileStatus, ShouldEqual, profile.StatusPending)
			So(mine.HasPendingProfile, ShouldBeTrue)
			So(mine.ApprovedProfile, ShouldBeNil)

			_, err = env.profile.GetApproved(ctx, u.ID)
			So(errors.Is(err, ErrProfileNotFound), ShouldBeTrue)
		})

		Convey("普通用户不能审批", func() {
			_, err := env.profile.Approve(ctx, self, u.ID)
			So(errors.Is(err, ErrForbidden), ShouldBeTrue)
		})

		Convey("审批通过发布最新版本并升级为导师", func() {
			approved, err := env.profile.Approve(ctx, adminActor, u.ID)
			So(err, ShouldBeNil)
			So(approved.ProfileStatus, ShouldEqual, profile.StatusApproved)
			So(approved.HasPendingProfile, ShouldBeFalse)
			So(approved.ApprovedProfile.Equal(approved.LatestProfile), ShouldBeTrue)

			stored, _ := env.users.FindByID(ctx, u.ID)
			So(stored.HasTag(auth.TagTutor), ShouldBeTrue)
			So(regexp.MustCompile(`^T-\d{5}$`).MatchString(stored.UserCode), ShouldBeTrue)
			So(env.tx.calls, ShouldEqual, 1)
			So(env.mailer.Subjects(), ShouldHaveLength, 2)

			pub, err := env.profile.GetApproved(ctx, u.ID)
			So(err, ShouldBeNil)
			So(pub.Education, ShouldEqual, "港大")

			Convey("再次审批同一版本结果不变", func() {
				again, err := env.profile.Approve(ctx, adminActor, u.ID)
				So(err, ShouldBeNil)
				So(again.ApprovedProfile.Equal(approved.ApprovedProfile), ShouldBeTrue)

				after, _ := env.users.FindByID(ctx, u.ID)
				So(after.UserCode, ShouldEqual, stored.UserCode)
				So(after.Tags, ShouldResemble, stored.Tags)
			})

			Convey("重新提交后公开版本不变，出现待审内容", func() {
				mine, err := env.profile.Submit(ctx, self, u.ID, &SubmitInput{FullName: "陈大文", Education: "中大"})
				So(err, ShouldBeNil)
				So(mine.HasPendingProfile, ShouldBeTrue)

				pub, err := env.profile.GetApproved(ctx, u.ID)
				So(err, ShouldBeNil)
				So(pub.Education, ShouldEqual, "港大")
			})

			Convey("驳回新版本时已发布版本保留", func() {
				_, err := env.profile.Submit(ctx, self, u.ID, &SubmitInput{FullName: "陈大文", Education: "中大"})
				So(err, ShouldBeNil)

				rejected, err := env.profile.Reject(ctx, adminActor, u.ID, &RejectInput{Reason: "资料不完整"})
				So(err, ShouldBeNil)
				So(rejected.ProfileStatus, ShouldEqual, profile.StatusRejected)
				So(rejected.RejectReason, ShouldEqual, "资料不完整")
				So(rejected.ApprovedProfile.Education, ShouldEqual, "港大")
			})
		})

		Convey("审批期间资料被修改时返回冲突", func() {
			env.tx.before = func(ctx context.Context) {
				_, _ = env.profile.Submit(ctx, self, u.ID, &SubmitInput{FullName: "陈大文", Education: "中大"})
			}
			_, err := env.profile.Approve(ctx, adminActor, u.ID)
			So(errors.Is(err, ErrProfileChanged), ShouldBeTrue)

			stored, _ := env.users.FindByID(ctx, u.ID)
			So(stored.UserCode, ShouldEqual, "U-00001")
		})

		Convey("机构用户审批后保留 ORG- 编号", func() {
			org := &auth.User{ID: "org-1", Email: "org@x.com", UserType: auth.UserTypeOrganization, Tags: []string{auth.TagInstitution}, Status: auth.UserStatusActive, UserCode: "ORG-00001"}
			env.users.put(org)
			_, err := env.profile.Submit(ctx, adminActor, org.ID, &SubmitInput{FullName: "好学教育"})
			So(err, ShouldBeNil)

			_, err = env.profile.Approve(ctx, adminActor, org.ID)
			So(err, ShouldBeNil)
			stored, _ := env.users.FindByID(ctx, org.ID)
			So(stored.UserCode, ShouldEqual, "ORG-00001")
			So(stored.HasTag(auth.TagTutor), ShouldBeFalse)
		})

		Convey("审批列表待审内容排在前面", func() {
			other := env.mustRegister(t, "b@x.com", "62345678")
			_, err := env.profile.Submit(ctx, auth.NewActor(other), other.ID, &SubmitInput{FullName: "李小明"})
			So(err, ShouldBeNil)
			_, err = env.profile.Approve(ctx, adminActor, other.ID)
			So(err, ShouldBeNil)

			items, err := env.profile.ListAll(ctx, adminActor)
			So(err, ShouldBeNil)
			So(items, ShouldHaveLength, 2)
			So(items[0].UserID, ShouldEqual, u.ID)
			So(items[0].HasPendingProfile, ShouldBeTrue)
			So(items[0].User.Email, ShouldEqual, "a@x.com")
			So(items[1].HasPendingProfile, ShouldBeFalse)

			_, err = env.profile.ListAll(ctx, self)
			So(errors.Is(err, ErrForbidden), ShouldBeTrue)
		})
	})
}

func TestProfileService_ListTutors(t *testing.T) {
	Convey("公开导师列表", t, func() {
		ctx := context.Background()
		env := newTestEnv(t)
		env.profile.now = stepClock()

		approve := func(u *auth.User, snap *SubmitInput) {
			_, err := env.profile.Submit(ctx, auth.NewActor(u), u.ID, snap)
			So(err, ShouldBeNil)
			_, err = env.profile.Approve(ctx, adminActor, u.ID)
			So(err, ShouldBeNil)
		}

		a := env.mustRegister(t, "a@x.com", "61234567")
		b := env.mustRegister(t, "b@x.com", "62345678")
		c := env.mustRegister(t, "c@x.com", "63456789")
		approve(a, &SubmitInput{FullName: "陈大文", IdentityNumber: "A1234567", Education: "港大"})
		approve(b, &SubmitInput{FullName: "李小明"})
		_, err := env.profile.Submit(ctx, auth.NewActor(c), c.ID, &SubmitInput{FullName: "张三"})
		So(err, ShouldBeNil)

		Convey("只列出已发布资料，不含身份证号码", func() {
			tutors, err := env.profile.ListTutors(ctx)
			So(err, ShouldBeNil)
			So(tutors, ShouldHaveLength, 2)

			byID := map[string]*TutorListing{}
			for _, tl := range tutors {
				byID[tl.UserID] = tl
			}
			So(byID, ShouldContainKey, a.ID)
			So(byID, ShouldContainKey, b.ID)
			So(byID, ShouldNotContainKey, c.ID)
			So(byID[a.ID].Role, ShouldEqual, auth.RoleTutor)
			So(byID[a.ID].UserCode, ShouldStartWith, "T-")
			So(byID[a.ID].Profile.Education, ShouldEqual, "港大")
			So(byID[a.ID].Profile.IdentityNumber, ShouldBeEmpty)

			stored, _ := env.profiles.FindByUserID(ctx, a.ID)
			So(stored.ApprovedProfile.IdentityNumber, ShouldEqual, "A1234567")
		})

		Convey("停用账号不出现在列表中", func() {
			stored, _ := env.users.FindByID(ctx, b.ID)
			stored.Status = auth.UserStatusInactive
			env.users.put(stored)

			tutors, err := env.profile.ListTutors(ctx)
			So(err, ShouldBeNil)
			So(tutors, ShouldHaveLength, 1)
			So(tutors[0].UserID, ShouldEqual, a.ID)

			_, err = env.profile.GetApproved(ctx, b.ID)
			So(errors.Is(err, ErrProfileNotFound), ShouldBeTrue)
		})
	})
}

func TestProfileService_ApproveMissing(t *testing.T) {
	Convey("没有资料时审批", t, func() {
		env := newTestEnv(t)
		_, err := env.profile.Approve(context.Background(), adminActor, "nobody")
		So(errors.Is(err, ErrProfileNotFound), ShouldBeTrue)

		_, err = env.profile.Reject(context.Background(), adminActor, "nobody", &RejectInput{})
		So(errors.Is(err, ErrProfileNotFound), ShouldBeTrue)
	})
}

func TestProfileStore_StaleSnapshot(t *testing.T) {
	Convey("按提交时间条件发布", t, func() {
		ctx := context.Background()
		store := newFakeProfiles()
		first := &profile.Snapshot{FullName: "a", SubmittedAt: time.Unix(100, 0)}
		second := &profile.Snapshot{FullName: "b", SubmittedAt: time.Unix(200, 0)}

		_, _ = store.UpsertLatest(ctx, "u1", first)
		_, _ = store.UpsertLatest(ctx, "u1", second)

		So(errors.Is(store.Approve(ctx, "u1", first, "admin"), profileRepo.ErrStaleSnapshot), ShouldBeTrue)
		So(store.Approve(ctx, "u1", second, "admin"), ShouldBeNil)
	})
}

func TestProfileService_Uploads(t *testing.T) {
	Convey("头像与证书上传", t, func() {
		ctx := context.Background()
		env := newTestEnv(t)
		env.profile.now = stepClock()
		u := env.mustRegister(t, "a@x.com", "61234567")
		self := auth.NewActor(u)

		Convey("没有资料时不能上传", func() {
			_, err := env.profile.UploadAvatar(ctx, self, u.ID, fileInput("me.png", pngData))
			So(errors.Is(err, ErrProfileNotFound), ShouldBeTrue)
			So(env.files.Len(), ShouldEqual, 0)
		})

		Convey("已有资料", func() {
			_, err := env.profile.Submit(ctx, self, u.ID, &SubmitInput{FullName: "陈大文", Certifications: []string{"old.pdf"}})
			So(err, ShouldBeNil)

			Convey("头像写入最新资料", func() {
				mine, err := env.profile.UploadAvatar(ctx, self, u.ID, fileInput("me.png", pngData))
				So(err, ShouldBeNil)
				So(mine.LatestProfile.ProfileImage, ShouldStartWith, "/uploads/avatars/"+u.ID+"/")
				So(mine.LatestProfile.FullName, ShouldEqual, "陈大文")
				So(env.files.Len(), ShouldEqual, 1)
			})

			Convey("头像类型不允许", func() {
				_, err := env.profile.UploadAvatar(ctx, self, u.ID, fileInput("me.pdf", pdfData))
				So(errors.Is(err, ErrInvalidFile), ShouldBeTrue)
			})

			Convey("证书追加到列表末尾", func() {
				mine, err := env.profile.UploadCertificates(ctx, self, u.ID, []*FileInput{
					fileInput("c1.pdf", pdfData),
					fileInput("c2.png", pngData),
				})
				So(err, ShouldBeNil)
				So(mine.LatestProfile.Certifications, ShouldHaveLength, 3)
				So(mine.LatestProfile.Certifications[0], ShouldEqual, "old.pdf")
				So(env.files.Len(), ShouldEqual, 2)
			})

			Convey("证书数量超限", func() {
				ins := make([]*FileInput, 6)
				for i := range ins {
					ins[i] = fileInput("c.pdf", pdfData)
				}
				_, err := env.profile.UploadCertificates(ctx, self, u.ID, ins)
				So(errors.Is(err, ErrInvalidFile), ShouldBeTrue)
				So(env.files.Len(), ShouldEqual, 0)
			})

			Convey("不能替他人上传", func() {
				other := env.mustRegister(t, "b@x.com", "62345678")
				_, err := env.profile.UploadAvatar(ctx, auth.NewActor(other), u.ID, fileInput("me.png", pngData))
				So(errors.Is(err, ErrForbidden), ShouldBeTrue)
			})
		})
	})
}
