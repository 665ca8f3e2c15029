// Package ctxutil 在 context 中传递当前操作者
package ctxutil

import (
	"context"

	"hihitutor/internal/model/auth"
)

type actorKeyType struct{}

var actorKey = actorKeyType{}

// WithActor 注入当前操作者
func WithActor(ctx context.Context, actor *auth.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorKey, actor)
}

// GetActor 从 context 中取出操作者
func GetActor(ctx context.Context) (*auth.Actor, bool) {
	if ctx == nil {
		return nil, false
	}
	actor, ok := ctx.Value(actorKey).(*auth.Actor)
	return actor, ok && actor != nil
}

// GetUserID 操作者 ID，未登录时返回 false
func GetUserID(ctx context.Context) (string, bool) {
	actor, ok := GetActor(ctx)
	if !ok || actor.UserID == "" {
		return "", false
	}
	return actor.UserID, true
}
