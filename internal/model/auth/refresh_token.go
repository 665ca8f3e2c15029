package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RefreshToken 刷新令牌，只保存哈希
type RefreshToken struct {
	ID        string    `bson:"_id,omitempty"`
	UserID    string    `bson:"user_id"`
	TokenHash string    `bson:"token_hash"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

// HashRefreshToken 令牌原文的 SHA-256
func HashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// IsExpired 检查Token是否已过期
func (rt *RefreshToken) IsExpired(now time.Time) bool {
	return now.After(rt.ExpiresAt)
}

// Collection 返回集合名称
func (rt *RefreshToken) Collection() string {
	return "refresh_tokens"
}

// EnsureIndexes 创建和维护索引
func (rt *RefreshToken) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(rt.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_user_id"),
		},
		{
			Keys:    bson.D{{Key: "token_hash", Value: 1}},
			Options: options.Index().SetName("uniq_token_hash").SetUnique(true),
		},
		{
			// TTL 索引，过期后由 mongod 清理
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("ttl_expires_at").SetExpireAfterSeconds(0),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}
