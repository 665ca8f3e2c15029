package auth

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDeriveRole(t *testing.T) {
	Convey("DeriveRole", t, func() {
		cases := []struct {
			tags    []string
			primary Role
			roles   []Role
		}{
			{nil, RoleUser, nil},
			{[]string{"vip"}, RoleUser, nil},
			{[]string{"student"}, RoleStudent, []Role{RoleStudent}},
			{[]string{"student", "tutor"}, RoleTutor, []Role{RoleTutor, RoleStudent}},
			{[]string{"teacher"}, RoleTutor, []Role{RoleTutor, RoleStudent}},
			{[]string{"provider"}, RoleOrganization, []Role{RoleOrganization}},
			{[]string{"institution", "tutor"}, RoleOrganization, []Role{RoleOrganization, RoleTutor, RoleStudent}},
			{[]string{"Admin", "institution"}, RoleAdmin, []Role{RoleAdmin, RoleOrganization, RoleTutor, RoleStudent}},
		}

		for _, c := range cases {
			primary, set := DeriveRole(c.tags)
			So(primary, ShouldEqual, c.primary)
			So(set.Roles(), ShouldResemble, c.roles)
		}

		Convey("继承关系 admin ⊇ tutor ⊇ student ⊇ 空集", func() {
			_, admin := DeriveRole([]string{TagAdmin})
			_, tutor := DeriveRole([]string{TagTutor})
			_, student := DeriveRole([]string{TagStudent})
			_, none := DeriveRole(nil)
			So(admin.Covers(tutor), ShouldBeTrue)
			So(tutor.Covers(student), ShouldBeTrue)
			So(student.Covers(none), ShouldBeTrue)
			So(tutor.Covers(admin), ShouldBeFalse)
		})

		Convey("机构不继承 tutor", func() {
			_, set := DeriveRole([]string{"organization"})
			So(set.Has(RoleTutor), ShouldBeFalse)
			So(set.Has(RoleStudent), ShouldBeFalse)
		})

		Convey("同样输入结果相同", func() {
			tags := []string{"student", "org", "teacher"}
			p1, s1 := DeriveRole(tags)
			p2, s2 := DeriveRole(tags)
			So(p1, ShouldEqual, p2)
			So(s1, ShouldResemble, s2)
		})
	})
}

func TestCodePrefixForTags(t *testing.T) {
	Convey("CodePrefixForTags", t, func() {
		So(CodePrefixForTags([]string{"student"}), ShouldEqual, CodePrefixUser)
		So(CodePrefixForTags(nil), ShouldEqual, CodePrefixUser)
		So(CodePrefixForTags([]string{"provider"}), ShouldEqual, CodePrefixOrganization)
		So(CodePrefixForTags([]string{"institution", "tutor"}), ShouldEqual, CodePrefixTutor)
		So(CodePrefixForTags([]string{"tutor", "admin"}), ShouldEqual, CodePrefixAdmin)
	})
}

func TestNormalizeTags(t *testing.T) {
	Convey("NormalizeTags 去重并映射别名", t, func() {
		So(NormalizeTags([]string{" Tutor", "teacher", "org", "", "student"}), ShouldResemble,
			[]string{TagTutor, TagInstitution, TagStudent})
	})
}

func TestAgeAt(t *testing.T) {
	Convey("AgeAt", t, func() {
		birth := time.Date(2008, 2, 29, 0, 0, 0, 0, time.UTC)
		So(AgeAt(birth, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)), ShouldEqual, 17)
		So(AgeAt(birth, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)), ShouldEqual, 18)

		birth = time.Date(2000, 10, 19, 0, 0, 0, 0, time.UTC)
		So(AgeAt(birth, time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)), ShouldEqual, 25)
		So(AgeAt(birth, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)), ShouldEqual, 26)
		So(AgeAt(birth, time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)), ShouldEqual, 0)
	})

	Convey("OrganizationDocs.Complete", t, func() {
		var docs *OrganizationDocs
		So(docs.Complete(), ShouldBeFalse)
		docs = &OrganizationDocs{
			BusinessRegistration: &FileRef{URL: "/uploads/a.pdf"},
			CR:                   &FileRef{URL: "/uploads/b.pdf"},
		}
		So(docs.Complete(), ShouldBeFalse)
		docs.AddressProof = &FileRef{URL: "/uploads/c.png"}
		So(docs.Complete(), ShouldBeTrue)
		So(docs.Refs(), ShouldHaveLength, 3)
	})
}
