package mongodb

import (
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// IsNotFound 查询无结果
func IsNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// DuplicateIndex 判断是否唯一索引冲突，并从 indexes 中找出冲突的索引名
// 找不到对应索引时名称为空
func DuplicateIndex(err error, indexes ...string) (string, bool) {
	if err == nil || !mongo.IsDuplicateKeyError(err) {
		return "", false
	}
	msg := err.Error()
	for _, name := range indexes {
		if strings.Contains(msg, name) {
			return name, true
		}
	}
	return "", true
}
