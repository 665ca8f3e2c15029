package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"hihitutor/internal/model/auth"
	"hihitutor/internal/pkg/ctxutil"
)

// UserInfo 用户信息（用于响应，所有API共用）
type UserInfo struct {
	ID                         string            `json:"id"`
	UserCode                   string            `json:"userCode"`
	Name                       string            `json:"name"`
	Email                      string            `json:"email"`
	Phone                      string            `json:"phone,omitempty"`
	UserType                   string            `json:"userType"`
	Tags                       []string          `json:"tags"`
	Role                       string            `json:"role"`
	Roles                      []string          `json:"roles"` // 继承后的全部角色
	Status                     string            `json:"status"`
	Birthdate                  string            `json:"birthdate,omitempty"`
	Age                        int               `json:"age,omitempty"`
	Guardian                   *auth.Guardian    `json:"guardian,omitempty"`
	OrgStatus                  string            `json:"orgStatus,omitempty"`
	InstitutionName            string            `json:"institutionName,omitempty"`
	BusinessRegistrationNumber string            `json:"businessRegistrationNumber,omitempty"`
	OrganizationDocs           map[string]string `json:"organizationDocs,omitempty"` // 字段 → 文件URL
	TutorCertificates          []string          `json:"tutorCertificates,omitempty"`
	LastLoginAt                string            `json:"lastLoginAt,omitempty"`
	CreatedAt                  string            `json:"createdAt"`
}

// NewUserInfo 将User实体转换为UserInfo
func NewUserInfo(user *auth.User) UserInfo {
	role, set := auth.DeriveRole(user.Tags)
	info := UserInfo{
		ID:                         user.ID,
		UserCode:                   user.UserCode,
		Name:                       user.Name,
		Email:                      user.Email,
		Phone:                      user.Phone,
		UserType:                   string(user.UserType),
		Tags:                       user.Tags,
		Role:                       string(role),
		Status:                     string(user.Status),
		Age:                        user.Age,
		Guardian:                   user.Guardian,
		OrgStatus:                  string(user.OrgStatus),
		InstitutionName:            user.InstitutionName,
		BusinessRegistrationNumber: user.BusinessRegistrationNumber,
		TutorCertificates:          user.TutorCertificates,
		CreatedAt:                  user.CreatedAt.Format(time.RFC3339),
	}
	if info.Tags == nil {
		info.Tags = []string{}
	}
	info.Roles = make([]string, 0, len(set))
	for _, r := range set.Roles() {
		info.Roles = append(info.Roles, string(r))
	}
	if user.Birthdate != nil {
		info.Birthdate = user.Birthdate.Format("2006-01-02")
	}
	if user.LastLoginAt != nil {
		info.LastLoginAt = user.LastLoginAt.Format(time.RFC3339)
	}
	if docs := user.OrganizationDocs; docs != nil {
		info.OrganizationDocs = map[string]string{}
		for field, ref := range map[string]*auth.FileRef{
			"br":           docs.BusinessRegistration,
			"cr":           docs.CR,
			"addressProof": docs.AddressProof,
		} {
			if ref != nil {
				info.OrganizationDocs[field] = ref.URL
			}
		}
	}
	return info
}

// NewUserInfoList 批量转换
func NewUserInfoList(users []*auth.User) []UserInfo {
	list := make([]UserInfo, len(users))
	for i, u := range users {
		list[i] = NewUserInfo(u)
	}
	return list
}

// Actor 当前请求的调用者，未认证时为 nil
func Actor(c *gin.Context) *auth.Actor {
	actor, _ := ctxutil.GetActor(c.Request.Context())
	return actor
}
