package orders

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ecomlabs/order-service/internal/logger"
	"github.com/ecomlabs/order-service/internal/redisx"
)

// StatusCache keeps a short-lived copy of each order's own status for the
// polling endpoint. Best effort: cache trouble never fails an operation.
type StatusCache interface {
	SetStatus(ctx context.Context, orderID int64, s Status)
	DropStatus(ctx context.Context, orderID int64)
	GetStatus(ctx context.Context, orderID int64) (Status, bool)
}

type RedisStatusCache struct{ RDB *redis.Client }

func (c *RedisStatusCache) SetStatus(ctx context.Context, orderID int64, s Status) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if err := c.RDB.Set(ctx, key, string(s), redisx.TTLStatusCache).Err(); err != nil {
		logger.FromCtx(ctx).Warn("status cache set failed", zap.Int64("order_id", orderID), zap.Error(err))
	}
}

func (c *RedisStatusCache) DropStatus(ctx context.Context, orderID int64) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if err := c.RDB.Del(ctx, key).Err(); err != nil {
		logger.FromCtx(ctx).Warn("status cache del failed", zap.Int64("order_id", orderID), zap.Error(err))
	}
}

func (c *RedisStatusCache) GetStatus(ctx context.Context, orderID int64) (Status, bool) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	v, err := c.RDB.Get(ctx, key).Result()
	if err != nil || v == "" {
		return "", false
	}
	return Status(v), true
}
