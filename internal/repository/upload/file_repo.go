package upload

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"hihitutor/internal/model/upload"
)

// FileRepo 上传文件记录仓库
type FileRepo struct {
	collection *mongo.Collection
}

// NewFileRepo 创建文件仓库
func NewFileRepo(db *mongo.Database) *FileRepo {
	return &FileRepo{
		collection: db.Collection((&upload.File{}).Collection()),
	}
}

// Create 创建记录
func (r *FileRepo) Create(ctx context.Context, f *upload.File) error {
	f.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, f)
	return err
}

// FindByID 根据ID查询
func (r *FileRepo) FindByID(ctx context.Context, id string) (*upload.File, error) {
	var f upload.File
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// FindByKey 根据存储路径查询
func (r *FileRepo) FindByKey(ctx context.Context, key string) (*upload.File, error) {
	var f upload.File
	if err := r.collection.FindOne(ctx, bson.M{"storage_key": key}).Decode(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// DeleteByKey 删除记录
func (r *FileRepo) DeleteByKey(ctx context.Context, key string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"storage_key": key})
	return err
}

// SetOwner 注册完成后把机构文件归属到新用户
func (r *FileRepo) SetOwner(ctx context.Context, keys []string, ownerID string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"storage_key": bson.M{"$in": keys}},
		bson.M{"$set": bson.M{"owner_id": ownerID}})
	return err
}

// ListByOwner 某用户名下的全部文件
func (r *FileRepo) ListByOwner(ctx context.Context, ownerID string) ([]*upload.File, error) {
	opts := options.Find().SetSort(bson.D{bson.E{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var files []*upload.File
	if err := cursor.All(ctx, &files); err != nil {
		return nil, err
	}
	return files, nil
}
