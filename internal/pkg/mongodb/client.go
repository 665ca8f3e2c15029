// Package mongodb 连接管理、索引、事务与错误归类
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"hihitutor/internal/config"
)

const defaultConnectTimeout = 10 * time.Second

// Client 持有连接与业务库
type Client struct {
	client   *mongo.Client
	database *mongo.Database
}

// New 连接并确认主节点可用
func New(ctx context.Context, cfg *config.MongoConfig) (*Client, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// 注册、资料审核依赖多数派写入保证一致
	clientOpts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName("hihitutor").
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetWriteConcern(writeconcern.Majority())

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Client{
		client:   client,
		database: client.Database(cfg.Database),
	}, nil
}

// Database 业务库
func (c *Client) Database() *mongo.Database {
	return c.database
}

// Close 断开连接
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// Client 原始客户端（开启会话用）
func (c *Client) Client() *mongo.Client {
	return c.client
}

// Ping /ready 使用
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}
