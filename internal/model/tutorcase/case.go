package tutorcase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostType 个案类型
type PostType string

const (
	PostTypeStudentSeekingTutor PostType = "student-seeking-tutor"
	PostTypeTutorSeekingStudent PostType = "tutor-seeking-student"
)

// IsValid 检查类型是否有效
func (t PostType) IsValid() bool {
	return t == PostTypeStudentSeekingTutor || t == PostTypeTutorSeekingStudent
}

// Status 个案状态，存储值为中文
type Status string

const (
	StatusOpen      Status = "開放中"
	StatusMatching  Status = "配對中"
	StatusAwaiting  Status = "待上課"
	StatusCompleted Status = "已完成"
	StatusRejected  Status = "已拒絕"
)

// progression 正常推进顺序，rejected 不在其中
var progression = map[Status]int{
	StatusOpen:      0,
	StatusMatching:  1,
	StatusAwaiting:  2,
	StatusCompleted: 3,
}

// IsValid 检查状态是否有效
func (s Status) IsValid() bool {
	_, ok := progression[s]
	return ok || s == StatusRejected
}

// Rank 在推进顺序中的位置，rejected 返回 -1
func (s Status) Rank() int {
	if r, ok := progression[s]; ok {
		return r
	}
	return -1
}

// PublicStatuses 公开列表可见的状态
var PublicStatuses = []Status{StatusOpen, StatusMatching}

// Case 补习个案
type Case struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	PostType     PostType  `bson:"post_type" json:"postType"`
	PostTitle    string    `bson:"post_title" json:"postTitle"`
	Location     string    `bson:"location" json:"location"`
	Category     string    `bson:"category" json:"category"`
	Subjects     []string  `bson:"subjects" json:"subjects"`
	Rate         float64   `bson:"rate" json:"rate"`
	Description  string    `bson:"description,omitempty" json:"description,omitempty"`
	Approved     bool      `bson:"approved" json:"approved"`
	Status       Status    `bson:"status" json:"status"`
	CreatedBy    string    `bson:"created_by" json:"createdBy"`
	MatchedTutor string    `bson:"matched_tutor,omitempty" json:"matchedTutor,omitempty"`
	CreatedAt    time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsPubliclyVisible 已审批且状态为开放中/配對中
// 公开列表的查询条件与此保持一致
func (c *Case) IsPubliclyVisible() bool {
	if !c.Approved {
		return false
	}
	for _, s := range PublicStatuses {
		if c.Status == s {
			return true
		}
	}
	return false
}

// Collection 返回集合名称
func (c *Case) Collection() string {
	return "cases"
}

// EnsureIndexes 创建和维护索引
func (c *Case) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(c.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{bson.E{Key: "approved", Value: 1}, bson.E{Key: "status", Value: 1}, bson.E{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_approved_status_created"),
		},
		{
			Keys:    bson.D{bson.E{Key: "created_by", Value: 1}, bson.E{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_owner_created"),
		},
		{
			Keys:    bson.D{bson.E{Key: "post_type", Value: 1}},
			Options: options.Index().SetName("idx_post_type"),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}
