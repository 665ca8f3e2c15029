package auth

import (
	"context"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// CodeCounter 每个 userCode 前缀一条记录，Seq 只增不减
// 删除用户或移除标签不会让编号回退
type CodeCounter struct {
	Prefix string `bson:"_id"`
	Seq    int64  `bson:"seq"`
}

// Collection 返回集合名称
func (c *CodeCounter) Collection() string {
	return "user_code_counters"
}

// EnsureIndexes 只按 _id 访问，无需额外索引
func (c *CodeCounter) EnsureIndexes(context.Context, *mongo.Database) error {
	return nil
}

// ParseCodeNumber 解析 {prefix}-{序号}，LEGACY 编号等返回 false
func ParseCodeNumber(prefix, code string) (int64, bool) {
	rest, ok := strings.CutPrefix(code, prefix+"-")
	if !ok || rest == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
