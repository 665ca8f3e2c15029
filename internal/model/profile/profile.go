package profile

import (
	"context"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Gender 性别
type Gender string

const (
	GenderMale   Gender = "男"
	GenderFemale Gender = "女"
	GenderOther  Gender = "其他"
)

// IsValid 空值视为未填写
func (g Gender) IsValid() bool {
	return g == "" || g == GenderMale || g == GenderFemale || g == GenderOther
}

// Snapshot 一次提交的资料内容
type Snapshot struct {
	FullName       string    `bson:"full_name" json:"fullName" validate:"notblank"`
	Gender         Gender    `bson:"gender,omitempty" json:"gender,omitempty" validate:"omitempty,oneof=男 女 其他"`
	ProfileImage   string    `bson:"profile_image,omitempty" json:"profileImage,omitempty"`
	IdentityNumber string    `bson:"identity_number,omitempty" json:"identityNumber,omitempty"`
	Education      string    `bson:"education,omitempty" json:"education,omitempty"`
	Experience     string    `bson:"experience,omitempty" json:"experience,omitempty"`
	Certifications []string  `bson:"certifications,omitempty" json:"certifications,omitempty"`
	SelfIntro      string    `bson:"self_intro,omitempty" json:"selfIntro,omitempty"`
	SubmittedAt    time.Time `bson:"submitted_at" json:"submittedAt"`
}

// Equal 逐字段比较，时间使用 time.Equal，证书列表按顺序比较
func (s *Snapshot) Equal(o *Snapshot) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.FullName == o.FullName &&
		s.Gender == o.Gender &&
		s.ProfileImage == o.ProfileImage &&
		s.IdentityNumber == o.IdentityNumber &&
		s.Education == o.Education &&
		s.Experience == o.Experience &&
		slices.Equal(s.Certifications, o.Certifications) &&
		s.SelfIntro == o.SelfIntro &&
		s.SubmittedAt.Equal(o.SubmittedAt)
}

// Clone 深拷贝
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Certifications = slices.Clone(s.Certifications)
	return &cp
}

// Public 公开展示用的副本，不含身份证号码
func (s *Snapshot) Public() *Snapshot {
	cp := s.Clone()
	if cp != nil {
		cp.IdentityNumber = ""
	}
	return cp
}

// Status 审批状态
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// UserProfile 用户资料（每个用户一份）
type UserProfile struct {
	ID              string     `bson:"_id,omitempty" json:"id"`
	UserID          string     `bson:"user_id" json:"userId"`
	LatestProfile   *Snapshot  `bson:"latest_profile" json:"latestProfile"`
	ApprovedProfile *Snapshot  `bson:"approved_profile,omitempty" json:"approvedProfile,omitempty"`
	ProfileStatus   Status     `bson:"profile_status" json:"profileStatus"`
	RejectReason    string     `bson:"reject_reason,omitempty" json:"rejectReason,omitempty"`
	ReviewedBy      string     `bson:"reviewed_by,omitempty" json:"reviewedBy,omitempty"`
	ReviewedAt      *time.Time `bson:"reviewed_at,omitempty" json:"reviewedAt,omitempty"`
	CreatedAt       time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time  `bson:"updated_at" json:"updatedAt"`
}

// HasPendingProfile 最新提交与已发布版本不一致
func (p *UserProfile) HasPendingProfile() bool {
	if p.LatestProfile == nil {
		return false
	}
	return !p.LatestProfile.Equal(p.ApprovedProfile)
}

// Collection 返回集合名称
func (p *UserProfile) Collection() string {
	return "user_profiles"
}

// EnsureIndexes 创建和维护索引
func (p *UserProfile) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(p.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{bson.E{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_user_id").SetUnique(true),
		},
		{
			Keys:    bson.D{bson.E{Key: "profile_status", Value: 1}, bson.E{Key: "updated_at", Value: -1}},
			Options: options.Index().SetName("idx_status_updated"),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}
