package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"hihitutor/internal/model/auth"
	"hihitutor/internal/model/profile"
	"hihitutor/internal/model/tutorcase"
	"hihitutor/internal/model/upload"
)

// EnsureIndexes 创建所有模型的索引
// 在应用启动时调用，用户集合的部分唯一索引是邮箱/电话唯一性的最终保证
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	models := []Model{
		&auth.User{},
		&auth.RefreshToken{},
		&auth.CodeCounter{},
		&profile.UserProfile{},
		&tutorcase.Case{},
		&upload.File{},
	}
	return EnsureAllIndexes(ctx, db, models...)
}
