package auth

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"hihitutor/internal/model/auth"
	"hihitutor/internal/pkg/mongodb"
)

// 唯一约束冲突
var (
	ErrDuplicateEmail    = errors.New("duplicate active email")
	ErrDuplicatePhone    = errors.New("duplicate active phone")
	ErrDuplicateUserCode = errors.New("duplicate user code")
)

// UserFilter 用户列表筛选
type UserFilter struct {
	UserType auth.UserType
	Tag      string
	Status   auth.UserStatus
}

func (f UserFilter) bson() bson.M {
	filter := bson.M{}
	if f.UserType != "" {
		filter["user_type"] = f.UserType
	}
	if f.Tag != "" {
		filter["tags"] = auth.NormalizeTag(f.Tag)
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	return filter
}

// Matches 内存判断（与 bson 条件一致）
func (f UserFilter) Matches(u *auth.User) bool {
	if f.UserType != "" && u.UserType != f.UserType {
		return false
	}
	if f.Tag != "" && !u.HasTag(f.Tag) {
		return false
	}
	if f.Status != "" && u.Status != f.Status {
		return false
	}
	return true
}

// UserRepo 用户仓库
// 使用UUID作为ID，无需ObjectID转换
type UserRepo struct {
	collection *mongo.Collection
	counters   *mongo.Collection
}

// NewUserRepo 创建用户仓库
func NewUserRepo(db *mongo.Database) *UserRepo {
	return &UserRepo{
		collection: db.Collection((&auth.User{}).Collection()),
		counters:   db.Collection((&auth.CodeCounter{}).Collection()),
	}
}

// mapWriteError 把唯一索引冲突转换为仓库错误
func mapWriteError(err error) error {
	name, dup := mongodb.DuplicateIndex(err, auth.IndexEmailActive, auth.IndexPhoneActive, auth.IndexUserCode)
	if !dup {
		return err
	}
	switch name {
	case auth.IndexEmailActive:
		return ErrDuplicateEmail
	case auth.IndexPhoneActive:
		return ErrDuplicatePhone
	case auth.IndexUserCode:
		return ErrDuplicateUserCode
	default:
		return err
	}
}

// Create 创建用户
func (r *UserRepo) Create(ctx context.Context, user *auth.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.RefreshAge(now)

	_, err := r.collection.InsertOne(ctx, user)
	return mapWriteError(err)
}

// Replace 整体覆盖用户文档
func (r *UserRepo) Replace(ctx context.Context, user *auth.User) error {
	user.UpdatedAt = time.Now()
	user.RefreshAge(user.UpdatedAt)
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		return mapWriteError(err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// FindByID 根据ID查询用户
func (r *UserRepo) FindByID(ctx context.Context, id string) (*auth.User, error) {
	var user auth.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByIDs 批量查询
func (r *UserRepo) FindByIDs(ctx context.Context, ids []string) ([]*auth.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []*auth.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepo) findOne(ctx context.Context, filter bson.M) (*auth.User, error) {
	var user auth.User
	if err := r.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindActiveByEmail 根据邮箱查询 active 用户
func (r *UserRepo) FindActiveByEmail(ctx context.Context, email string) (*auth.User, error) {
	return r.findOne(ctx, bson.M{"email": email, "status": auth.UserStatusActive})
}

// FindActiveByPhone 根据电话查询 active 用户
func (r *UserRepo) FindActiveByPhone(ctx context.Context, phone string) (*auth.User, error) {
	return r.findOne(ctx, bson.M{"phone": phone, "status": auth.UserStatusActive})
}

// FindInactiveByEmail 查询已停用的同邮箱用户（最近更新的一条）
func (r *UserRepo) FindInactiveByEmail(ctx context.Context, email string) (*auth.User, error) {
	var user auth.User
	opts := options.FindOne().SetSort(bson.D{bson.E{Key: "updated_at", Value: -1}})
	err := r.collection.FindOne(ctx, bson.M{"email": email, "status": auth.UserStatusInactive}, opts).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateLastLoginAt 更新最后登录时间
func (r *UserRepo) UpdateLastLoginAt(ctx context.Context, id string) error {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"last_login_at": now,
			"updated_at":    now,
		},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

// Delete 删除用户
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// List 查询用户列表（支持分页和筛选）
func (r *UserRepo) List(ctx context.Context, f UserFilter, page, pageSize int64) ([]*auth.User, int64, error) {
	filter := f.bson()
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{bson.E{Key: "created_at", Value: -1}}).
		SetLimit(pageSize).
		SetSkip((page - 1) * pageSize)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var users []*auth.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// maxCodeNumber 现有用户中该前缀的最大序号（5 位补零，字典序即数值序）
func (r *UserRepo) maxCodeNumber(ctx context.Context, prefix string) (int64, error) {
	filter := bson.M{"user_code": bson.M{"$regex": "^" + regexp.QuoteMeta(prefix) + `-\d{5}$`}}
	opts := options.FindOne().
		SetSort(bson.D{{Key: "user_code", Value: -1}}).
		SetProjection(bson.M{"user_code": 1})

	var u auth.User
	err := r.collection.FindOne(ctx, filter, opts).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n, _ := auth.ParseCodeNumber(prefix, u.UserCode)
	return n, nil
}

// NextCodeNumber 前缀计数器加一并返回新值
// 计数器首次使用或落后于现有编号时，从现有最大序号续上
func (r *UserRepo) NextCodeNumber(ctx context.Context, prefix string) (int64, error) {
	floor, err := r.maxCodeNumber(ctx, prefix)
	if err != nil {
		return 0, err
	}

	update := mongo.Pipeline{{{Key: "$set", Value: bson.M{
		"seq": bson.M{"$add": bson.A{
			bson.M{"$max": bson.A{bson.M{"$ifNull": bson.A{"$seq", 0}}, floor}},
			1,
		}},
	}}}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var counter auth.CodeCounter
	if err := r.counters.FindOneAndUpdate(ctx, bson.M{"_id": prefix}, update, opts).Decode(&counter); err != nil {
		return 0, err
	}
	return counter.Seq, nil
}
