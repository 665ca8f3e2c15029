package auth

import (
	"slices"
	"strings"
)

// 规范标签
const (
	TagAdmin       = "admin"
	TagTutor       = "tutor"
	TagInstitution = "institution"
	TagStudent     = "student"
)

// tagAliases 历史数据中出现过的同义标签
var tagAliases = map[string]string{
	"organization": TagInstitution,
	"provider":     TagInstitution,
	"org":          TagInstitution,
	"teacher":      TagTutor,
}

// NormalizeTag 统一大小写并把别名映射到规范标签，未知标签原样保留
func NormalizeTag(tag string) string {
	t := strings.ToLower(strings.TrimSpace(tag))
	if canonical, ok := tagAliases[t]; ok {
		return canonical
	}
	return t
}

// NormalizeTags 规范化并去重，保持原有顺序
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		t := NormalizeTag(tag)
		if t == "" || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Role 主角色
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleOrganization Role = "organization"
	RoleTutor        Role = "tutor"
	RoleStudent      Role = "student"
	RoleUser         Role = "user"
)

// RoleSet 继承后的角色集合，用于权限判断
type RoleSet map[Role]struct{}

// NewRoleSet 由角色列表构造集合
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Has 是否拥有某个角色
func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

// Roles 按固定顺序返回集合内容
func (s RoleSet) Roles() []Role {
	var roles []Role
	for _, r := range []Role{RoleAdmin, RoleOrganization, RoleTutor, RoleStudent} {
		if s.Has(r) {
			roles = append(roles, r)
		}
	}
	return roles
}

// Covers 判断 s 是否包含 other 的全部角色
func (s RoleSet) Covers(other RoleSet) bool {
	for r := range other {
		if !s.Has(r) {
			return false
		}
	}
	return true
}

// closures 每个规范标签带来的角色
// 机构不继承 tutor / student
var closures = map[string][]Role{
	TagAdmin:       {RoleAdmin, RoleTutor, RoleStudent},
	TagTutor:       {RoleTutor, RoleStudent},
	TagStudent:     {RoleStudent},
	TagInstitution: {RoleOrganization},
}

// DeriveRole 根据标签计算主角色和继承角色集合
// 纯函数；没有可识别标签时返回 user 和空集合
func DeriveRole(tags []string) (Role, RoleSet) {
	set := RoleSet{}
	for _, tag := range tags {
		for _, r := range closures[NormalizeTag(tag)] {
			set[r] = struct{}{}
		}
	}

	has := func(tag string) bool {
		for _, t := range tags {
			if NormalizeTag(t) == tag {
				return true
			}
		}
		return false
	}

	switch {
	case has(TagAdmin):
		return RoleAdmin, set
	case has(TagInstitution):
		return RoleOrganization, set
	case has(TagTutor):
		return RoleTutor, set
	case has(TagStudent):
		return RoleStudent, set
	default:
		return RoleUser, set
	}
}

// userCode 前缀
const (
	CodePrefixAdmin        = "ADM"
	CodePrefixTutor        = "T"
	CodePrefixOrganization = "ORG"
	CodePrefixUser         = "U"
)

// CodePrefixForTags 按最高权限标签决定 userCode 前缀（admin > tutor > institution > 其他）
func CodePrefixForTags(tags []string) string {
	norm := NormalizeTags(tags)
	switch {
	case slices.Contains(norm, TagAdmin):
		return CodePrefixAdmin
	case slices.Contains(norm, TagTutor):
		return CodePrefixTutor
	case slices.Contains(norm, TagInstitution):
		return CodePrefixOrganization
	default:
		return CodePrefixUser
	}
}

// Actor 当前请求的操作者，角色每次由数据库中的标签重新计算
type Actor struct {
	UserID string
	Role   Role
	Roles  RoleSet
}

// NewActor 根据用户记录构造操作者
func NewActor(u *User) *Actor {
	role, roles := DeriveRole(u.Tags)
	return &Actor{UserID: u.ID, Role: role, Roles: roles}
}

// IsAdmin 是否管理员
func (a *Actor) IsAdmin() bool {
	return a != nil && a.Roles.Has(RoleAdmin)
}

// IsSelf 是否操作自己的资源
func (a *Actor) IsSelf(userID string) bool {
	return a != nil && a.UserID != "" && a.UserID == userID
}

// CanManage 本人或管理员
func (a *Actor) CanManage(userID string) bool {
	return a.IsSelf(userID) || a.IsAdmin()
}
