package auth

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"hihitutor/internal/model/auth"
)

// RefreshTokenRepo 刷新令牌集合
type RefreshTokenRepo struct {
	collection *mongo.Collection
}

// NewRefreshTokenRepo 创建仓库
func NewRefreshTokenRepo(db *mongo.Database) *RefreshTokenRepo {
	return &RefreshTokenRepo{
		collection: db.Collection((&auth.RefreshToken{}).Collection()),
	}
}

// Create 写入令牌记录
func (r *RefreshTokenRepo) Create(ctx context.Context, token *auth.RefreshToken) error {
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, token)
	return err
}

// FindByHash 按哈希查询；TTL 索引清理有延迟，过期判断由调用方负责
func (r *RefreshTokenRepo) FindByHash(ctx context.Context, hash string) (*auth.RefreshToken, error) {
	var token auth.RefreshToken
	if err := r.collection.FindOne(ctx, bson.M{"token_hash": hash}).Decode(&token); err != nil {
		return nil, err
	}
	return &token, nil
}

// DeleteByHash 注销单个令牌
func (r *RefreshTokenRepo) DeleteByHash(ctx context.Context, hash string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"token_hash": hash})
	return err
}

// DeleteByUserID 注销用户全部令牌（停用账号、重设密码）
func (r *RefreshTokenRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"user_id": userID})
	return err
}
