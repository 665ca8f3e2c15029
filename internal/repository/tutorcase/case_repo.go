package tutorcase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"hihitutor/internal/model/tutorcase"
)

// CaseRepo 补习个案仓库
type CaseRepo struct {
	collection *mongo.Collection
}

// NewCaseRepo 创建个案仓库
func NewCaseRepo(db *mongo.Database) *CaseRepo {
	return &CaseRepo{
		collection: db.Collection((&tutorcase.Case{}).Collection()),
	}
}

// Create 创建个案
func (r *CaseRepo) Create(ctx context.Context, c *tutorcase.Case) error {
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, c)
	return err
}

// FindByID 根据ID查询
func (r *CaseRepo) FindByID(ctx context.Context, id string) (*tutorcase.Case, error) {
	var c tutorcase.Case
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Replace 整体覆盖
func (r *CaseRepo) Replace(ctx context.Context, c *tutorcase.Case) error {
	c.UpdatedAt = time.Now()
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": c.ID}, c)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete 删除个案
func (r *CaseRepo) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// DeleteByOwner 删除某用户发布的全部个案
func (r *CaseRepo) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"created_by": ownerID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// List 按条件查询
func (r *CaseRepo) List(ctx context.Context, f tutorcase.Filter, sort tutorcase.Sort) ([]*tutorcase.Case, error) {
	order := 1
	if sort.Desc {
		order = -1
	}
	opts := options.Find().SetSort(bson.D{
		bson.E{Key: sort.BSONField(), Value: order},
		bson.E{Key: "_id", Value: order},
	})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}

	cursor, err := r.collection.Find(ctx, f.BSON(), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	cases := []*tutorcase.Case{}
	if err := cursor.All(ctx, &cases); err != nil {
		return nil, err
	}
	return cases, nil
}
