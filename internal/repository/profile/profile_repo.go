package profile

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"hihitutor/internal/model/profile"
	"hihitutor/internal/pkg/id"
)

// ErrStaleSnapshot 审批时最新资料已被再次提交
var ErrStaleSnapshot = errors.New("latest profile changed")

// ProfileRepo 用户资料仓库
type ProfileRepo struct {
	collection *mongo.Collection
}

// NewProfileRepo 创建用户资料仓库
func NewProfileRepo(db *mongo.Database) *ProfileRepo {
	return &ProfileRepo{
		collection: db.Collection((&profile.UserProfile{}).Collection()),
	}
}

// FindByUserID 根据用户ID查询
func (r *ProfileRepo) FindByUserID(ctx context.Context, userID string) (*profile.UserProfile, error) {
	var p profile.UserProfile
	if err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertLatest 整体替换 latest_profile，首次提交时创建记录（状态 pending）
// approved_profile 与 profile_status 保持不变
func (r *ProfileRepo) UpsertLatest(ctx context.Context, userID string, snap *profile.Snapshot) (*profile.UserProfile, error) {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"latest_profile": snap,
			"updated_at":     now,
		},
		"$setOnInsert": bson.M{
			"_id":            id.New(),
			"user_id":        userID,
			"profile_status": profile.StatusPending,
			"created_at":     now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var p profile.UserProfile
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"user_id": userID}, update, opts).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Approve 发布指定版本；latest 的提交时间必须仍与 snap 一致
func (r *ProfileRepo) Approve(ctx context.Context, userID string, snap *profile.Snapshot, reviewer string) error {
	now := time.Now()
	filter := bson.M{
		"user_id":                     userID,
		"latest_profile.submitted_at": snap.SubmittedAt,
	}
	update := bson.M{
		"$set": bson.M{
			"approved_profile": snap,
			"profile_status":   profile.StatusApproved,
			"reviewed_by":      reviewer,
			"reviewed_at":      now,
			"updated_at":       now,
		},
		"$unset": bson.M{"reject_reason": ""},
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrStaleSnapshot
	}
	return nil
}

// Reject 标记为未通过
func (r *ProfileRepo) Reject(ctx context.Context, userID, reason, reviewer string) error {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"profile_status": profile.StatusRejected,
			"reject_reason":  reason,
			"reviewed_by":    reviewer,
			"reviewed_at":    now,
			"updated_at":     now,
		},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"user_id": userID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// List 所有资料，最近更新的在前
func (r *ProfileRepo) List(ctx context.Context) ([]*profile.UserProfile, error) {
	opts := options.Find().SetSort(bson.D{bson.E{Key: "updated_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var profiles []*profile.UserProfile
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// ListApproved 已有发布版本的资料，最近审批的在前
func (r *ProfileRepo) ListApproved(ctx context.Context) ([]*profile.UserProfile, error) {
	filter := bson.M{"approved_profile": bson.M{"$type": "object"}}
	opts := options.Find().SetSort(bson.D{
		bson.E{Key: "reviewed_at", Value: -1},
		bson.E{Key: "_id", Value: -1},
	})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	profiles := []*profile.UserProfile{}
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// Unpublish 撤下已发布版本，最新提交保留并回到待审
func (r *ProfileRepo) Unpublish(ctx context.Context, userID string) error {
	update := bson.M{
		"$set": bson.M{
			"profile_status": profile.StatusPending,
			"updated_at":     time.Now(),
		},
		"$unset": bson.M{
			"approved_profile": "",
			"reject_reason":    "",
			"reviewed_by":      "",
			"reviewed_at":      "",
		},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"user_id": userID}, update)
	return err
}

// DeleteByUserID 删除用户资料（管理员删除用户时）
func (r *ProfileRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"user_id": userID})
	return err
}
