package tutorcase

import (
	"slices"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// Filter 个案查询条件
type Filter struct {
	Approved      *bool
	Statuses      []Status
	ExcludeStatus Status
	PostType      PostType
	CreatedBy     string
	Limit         int64
}

// PublicOnly 公开列表条件，与 IsPubliclyVisible 一致
func PublicOnly() Filter {
	approved := true
	return Filter{Approved: &approved, Statuses: PublicStatuses}
}

// BSON 转换为查询条件
func (f Filter) BSON() bson.M {
	q := bson.M{}
	if f.Approved != nil {
		q["approved"] = *f.Approved
	}
	switch {
	case len(f.Statuses) > 0 && f.ExcludeStatus != "":
		q["status"] = bson.M{"$in": f.Statuses, "$ne": f.ExcludeStatus}
	case len(f.Statuses) > 0:
		q["status"] = bson.M{"$in": f.Statuses}
	case f.ExcludeStatus != "":
		q["status"] = bson.M{"$ne": f.ExcludeStatus}
	}
	if f.PostType != "" {
		q["post_type"] = f.PostType
	}
	if f.CreatedBy != "" {
		q["created_by"] = f.CreatedBy
	}
	return q
}

// Matches 内存中判断，与 BSON 语义相同
func (f Filter) Matches(c *Case) bool {
	if f.Approved != nil && c.Approved != *f.Approved {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, c.Status) {
		return false
	}
	if f.ExcludeStatus != "" && c.Status == f.ExcludeStatus {
		return false
	}
	if f.PostType != "" && c.PostType != f.PostType {
		return false
	}
	if f.CreatedBy != "" && c.CreatedBy != f.CreatedBy {
		return false
	}
	return true
}

// sortFields 允许排序的字段（json 名 -> bson 名）
var sortFields = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"rate":      "rate",
}

// Sort 排序方式
type Sort struct {
	Field string
	Desc  bool
}

// DefaultSort 最新创建在前
var DefaultSort = Sort{Field: "createdAt", Desc: true}

// ParseSort 解析排序参数，如 "rate"、"-createdAt"；不在白名单内的字段退回默认
func ParseSort(s string) Sort {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultSort
	}
	desc := strings.HasPrefix(s, "-")
	field := strings.TrimPrefix(s, "-")
	if _, ok := sortFields[field]; !ok {
		return DefaultSort
	}
	return Sort{Field: field, Desc: desc}
}

// BSONField 对应的 bson 字段
func (s Sort) BSONField() string {
	if f, ok := sortFields[s.Field]; ok {
		return f
	}
	return "created_at"
}

// Less 内存排序用
func (s Sort) Less(a, b *Case) bool {
	var less, greater bool
	switch s.BSONField() {
	case "rate":
		less, greater = a.Rate < b.Rate, a.Rate > b.Rate
	case "updated_at":
		less, greater = a.UpdatedAt.Before(b.UpdatedAt), a.UpdatedAt.After(b.UpdatedAt)
	default:
		less, greater = a.CreatedAt.Before(b.CreatedAt), a.CreatedAt.After(b.CreatedAt)
	}
	if s.Desc {
		return greater
	}
	return less
}
