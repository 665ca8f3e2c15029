package upload

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Purpose 文件用途，同时作为存储路径的第一段
type Purpose string

const (
	PurposeOrganizationDoc Purpose = "org-docs"
	PurposeAvatar          Purpose = "avatars"
	PurposeCertificate     Purpose = "certificates"
)

// File 已上传文件记录
// 只记录文件本身，由业务模块（用户、资料）保存引用
type File struct {
	ID      string  `bson:"_id,omitempty" json:"id"`
	OwnerID string  `bson:"owner_id" json:"ownerId"` // 上传者；注册时为空
	Purpose Purpose `bson:"purpose" json:"purpose"`
	Name    string  `bson:"name" json:"name"` // 原始文件名
	Ext     string  `bson:"ext" json:"ext"`   // 不含点号

	// 存储信息
	StorageKey  string `bson:"storage_key" json:"storageKey"`
	StorageURL  string `bson:"storage_url" json:"storageUrl"`
	StorageType string `bson:"storage_type" json:"storageType"`

	// 文件信息
	FileSize    int64  `bson:"file_size" json:"fileSize"`
	ContentType string `bson:"content_type" json:"contentType"` // 按内容探测得到
	MD5         string `bson:"md5,omitempty" json:"md5,omitempty"`
	SHA256      string `bson:"sha256,omitempty" json:"sha256,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// Collection 返回集合名称
func (f *File) Collection() string {
	return "files"
}

// EnsureIndexes 创建和维护索引
func (f *File) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(f.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{bson.E{Key: "owner_id", Value: 1}, bson.E{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_owner_created"),
		},
		{
			Keys:    bson.D{bson.E{Key: "storage_key", Value: 1}},
			Options: options.Index().SetName("idx_storage_key").SetUnique(true),
		},
		{
			Keys:    bson.D{bson.E{Key: "md5", Value: 1}},
			Options: options.Index().SetName("idx_md5"),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}
