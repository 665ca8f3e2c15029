package service

import (
	"context"

	"hihitutor/internal/model/auth"
	"hihitutor/internal/model/profile"
	"hihitutor/internal/model/tutorcase"
	uploadModel "hihitutor/internal/model/upload"
	authRepo "hihitutor/internal/repository/auth"
)

// 服务层依赖的仓库能力，由 repository 包的 Mongo 实现满足

// UserStore 用户存储
type UserStore interface {
	Create(ctx context.Context, user *auth.User) error
	Replace(ctx context.Context, user *auth.User) error
	FindByID(ctx context.Context, id string) (*auth.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]*auth.User, error)
	FindActiveByEmail(ctx context.Context, email string) (*auth.User, error)
	FindActiveByPhone(ctx context.Context, phone string) (*auth.User, error)
	FindInactiveByEmail(ctx context.Context, email string) (*auth.User, error)
	UpdateLastLoginAt(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f authRepo.UserFilter, page, pageSize int64) ([]*auth.User, int64, error)
	// NextCodeNumber 前缀计数器的下一个值，只增不减
	NextCodeNumber(ctx context.Context, prefix string) (int64, error)
}

// RefreshTokenStore Refresh Token 存储
type RefreshTokenStore interface {
	Create(ctx context.Context, token *auth.RefreshToken) error
	FindByHash(ctx context.Context, hash string) (*auth.RefreshToken, error)
	DeleteByHash(ctx context.Context, hash string) error
	DeleteByUserID(ctx context.Context, userID string) error
}

// ProfileStore 用户资料存储
type ProfileStore interface {
	FindByUserID(ctx context.Context, userID string) (*profile.UserProfile, error)
	UpsertLatest(ctx context.Context, userID string, snap *profile.Snapshot) (*profile.UserProfile, error)
	Approve(ctx context.Context, userID string, snap *profile.Snapshot, reviewer string) error
	Reject(ctx context.Context, userID, reason, reviewer string) error
	List(ctx context.Context) ([]*profile.UserProfile, error)
	ListApproved(ctx context.Context) ([]*profile.UserProfile, error)
	// Unpublish 撤下已发布版本；没有记录时不报错
	Unpublish(ctx context.Context, userID string) error
	DeleteByUserID(ctx context.Context, userID string) error
}

// CaseStore 个案存储
type CaseStore interface {
	Create(ctx context.Context, c *tutorcase.Case) error
	FindByID(ctx context.Context, id string) (*tutorcase.Case, error)
	Replace(ctx context.Context, c *tutorcase.Case) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f tutorcase.Filter, sort tutorcase.Sort) ([]*tutorcase.Case, error)
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
}

// FileStore 上传文件记录存储
type FileStore interface {
	Create(ctx context.Context, f *uploadModel.File) error
	FindByKey(ctx context.Context, key string) (*uploadModel.File, error)
	DeleteByKey(ctx context.Context, key string) error
	SetOwner(ctx context.Context, keys []string, ownerID string) error
	ListByOwner(ctx context.Context, ownerID string) ([]*uploadModel.File, error)
}
