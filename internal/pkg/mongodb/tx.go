package mongodb

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
)

// TxRunner 在一个工作单元中执行多文档写入
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// SessionRunner 基于 MongoDB 会话事务的 TxRunner
// 单机部署不支持事务时退化为顺序执行，此时 fn 内的写入必须可重复执行
type SessionRunner struct {
	client      *mongo.Client
	unsupported atomic.Bool
}

// NewTxRunner 创建事务执行器
func NewTxRunner(c *Client) *SessionRunner {
	return &SessionRunner{client: c.Client()}
}

// WithTransaction 执行 fn，返回 fn 的错误
func (r *SessionRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.unsupported.Load() {
		return fn(ctx)
	}

	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && isTransactionUnsupported(err) {
		r.unsupported.Store(true)
		log.Warn().Err(err).Msg("mongodb 不支持事务，改为顺序写入")
		return fn(ctx)
	}
	return err
}

// isTransactionUnsupported 单机 mongod 拒绝事务时的错误
func isTransactionUnsupported(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == 20 {
		return true
	}
	return strings.Contains(err.Error(), "Transaction numbers are only allowed")
}
