package auth

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// User 用户实体
// ID使用UUID格式（string），避免ObjectID转换的麻烦
type User struct {
	ID        string     `bson:"_id,omitempty" json:"id"`                  // UUID格式的ID
	Name      string     `bson:"name" json:"name"`                         // 用户名称
	Email     string     `bson:"email" json:"email"`                       // 邮箱（active 用户中唯一）
	Phone     string     `bson:"phone,omitempty" json:"phone,omitempty"`   // 电话（active 用户中唯一）
	Password  string     `bson:"password" json:"-"`                        // 密码（加密存储，不返回）
	Birthdate *time.Time `bson:"birthdate,omitempty" json:"birthdate,omitempty"`
	Age       int        `bson:"age,omitempty" json:"age,omitempty"` // 每次保存时由出生日期计算

	UserType UserType   `bson:"user_type" json:"userType"`
	Tags     []string   `bson:"tags" json:"tags"`
	UserCode string     `bson:"user_code,omitempty" json:"userCode"`
	Status   UserStatus `bson:"status" json:"status"`

	// 机构专属
	OrgStatus                  OrgStatus         `bson:"org_status,omitempty" json:"orgStatus,omitempty"`
	OrganizationDocs           *OrganizationDocs `bson:"organization_docs,omitempty" json:"organizationDocs,omitempty"`
	InstitutionName            string            `bson:"institution_name,omitempty" json:"institutionName,omitempty"`
	BusinessRegistrationNumber string            `bson:"business_registration_number,omitempty" json:"businessRegistrationNumber,omitempty"`

	TutorCertificates []string  `bson:"tutor_certificates,omitempty" json:"tutorCertificates,omitempty"`
	Guardian          *Guardian `bson:"guardian,omitempty" json:"guardian,omitempty"`

	LastLoginAt *time.Time `bson:"last_login_at,omitempty" json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updatedAt"`
}

// Guardian 未成年用户的监护人信息，仅作记录
type Guardian struct {
	Name         string `bson:"name,omitempty" json:"name,omitempty"`
	Relationship string `bson:"relationship,omitempty" json:"relationship,omitempty"`
	ContactEmail string `bson:"contact_email,omitempty" json:"contactEmail,omitempty"`
	ContactPhone string `bson:"contact_phone,omitempty" json:"contactPhone,omitempty"`
}

// FileRef 已存储文件的引用
type FileRef struct {
	Key         string `bson:"key" json:"key"`
	URL         string `bson:"url" json:"url"`
	ContentType string `bson:"content_type,omitempty" json:"contentType,omitempty"`
	Size        int64  `bson:"size,omitempty" json:"size,omitempty"`
}

// OrganizationDocs 机构注册文件（BR / CR / 地址证明）
type OrganizationDocs struct {
	BusinessRegistration *FileRef `bson:"br,omitempty" json:"br,omitempty"`
	CR                   *FileRef `bson:"cr,omitempty" json:"cr,omitempty"`
	AddressProof         *FileRef `bson:"address_proof,omitempty" json:"addressProof,omitempty"`
}

// Complete 三份文件是否齐全
func (d *OrganizationDocs) Complete() bool {
	return d != nil &&
		d.BusinessRegistration != nil && d.BusinessRegistration.URL != "" &&
		d.CR != nil && d.CR.URL != "" &&
		d.AddressProof != nil && d.AddressProof.URL != ""
}

// Refs 返回所有已上传的文件
func (d *OrganizationDocs) Refs() []*FileRef {
	if d == nil {
		return nil
	}
	var refs []*FileRef
	for _, r := range []*FileRef{d.BusinessRegistration, d.CR, d.AddressProof} {
		if r != nil {
			refs = append(refs, r)
		}
	}
	return refs
}

// UserType 用户类型
type UserType string

const (
	UserTypeIndividual   UserType = "individual"
	UserTypeOrganization UserType = "organization"
)

// IsValid 检查用户类型是否有效
func (t UserType) IsValid() bool {
	return t == UserTypeIndividual || t == UserTypeOrganization
}

// DefaultTags 注册时根据用户类型给出的初始标签
func (t UserType) DefaultTags() []string {
	if t == UserTypeOrganization {
		return []string{TagInstitution}
	}
	return []string{TagStudent}
}

// UserStatus 用户状态
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"   // 正常
	UserStatusInactive UserStatus = "inactive" // 已停用（自行注销），邮箱/电话可重新注册
)

// IsValid 检查状态是否有效
func (s UserStatus) IsValid() bool {
	return s == UserStatusActive || s == UserStatusInactive
}

// OrgStatus 机构账号审核状态（与 profile 审批无关）
type OrgStatus string

const (
	OrgStatusPending  OrgStatus = "pending"
	OrgStatusApproved OrgStatus = "approved"
	OrgStatusRejected OrgStatus = "rejected"
)

// IsValid 检查审核状态是否有效
func (s OrgStatus) IsValid() bool {
	return s == OrgStatusPending || s == OrgStatusApproved || s == OrgStatusRejected
}

// HasTag 判断是否带有某个（规范化后的）标签
func (u *User) HasTag(tag string) bool {
	tag = NormalizeTag(tag)
	for _, t := range u.Tags {
		if NormalizeTag(t) == tag {
			return true
		}
	}
	return false
}

// CodePrefix 当前 userCode 的前缀，没有时返回空
func (u *User) CodePrefix() string {
	prefix, _, ok := strings.Cut(u.UserCode, "-")
	if !ok {
		return ""
	}
	return prefix
}

// RefreshAge 根据出生日期重新计算年龄
func (u *User) RefreshAge(now time.Time) {
	if u.Birthdate == nil {
		return
	}
	u.Age = AgeAt(*u.Birthdate, now)
}

// AgeAt 计算某个时间点的周岁，生日未到则减一
func AgeAt(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// 索引名称，仓库层通过名称判断是哪个唯一约束冲突
const (
	IndexEmailActive = "idx_email_active"
	IndexPhoneActive = "idx_phone_active"
	IndexUserCode    = "idx_user_code"
)

// Collection 返回集合名称
func (u *User) Collection() string {
	return "users"
}

// EnsureIndexes 创建和维护索引
// email / phone 只在 active 用户中唯一，停用后可以被重新注册
func (u *User) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(u.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{bson.E{Key: "email", Value: 1}},
			Options: options.Index().SetName(IndexEmailActive).SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": UserStatusActive}),
		},
		{
			Keys: bson.D{bson.E{Key: "phone", Value: 1}},
			Options: options.Index().SetName(IndexPhoneActive).SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": UserStatusActive, "phone": bson.M{"$gt": ""}}),
		},
		{
			Keys: bson.D{bson.E{Key: "user_code", Value: 1}},
			Options: options.Index().SetName(IndexUserCode).SetUnique(true).
				SetPartialFilterExpression(bson.M{"user_code": bson.M{"$gt": ""}}),
		},
		{
			Keys:    bson.D{bson.E{Key: "user_type", Value: 1}},
			Options: options.Index().SetName("idx_user_type"),
		},
		{
			Keys:    bson.D{bson.E{Key: "tags", Value: 1}},
			Options: options.Index().SetName("idx_tags"),
		},
		{
			Keys:    bson.D{bson.E{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_created_at"),
		},
	}

	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}
