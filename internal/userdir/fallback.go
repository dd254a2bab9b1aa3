package userdir

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ecomlabs/order-service/internal/logger"
)

const placeholderName = "Unavailable"

// FallbackClient decorates a Client and substitutes a degraded placeholder
// snapshot when the directory is unavailable, so order reads keep working
// without fresh user data. ErrNotFound still passes through: existence is a
// business precondition and must not be faked.
type FallbackClient struct {
	inner Client
}

func WithFallback(inner Client) *FallbackClient {
	return &FallbackClient{inner: inner}
}

func (f *FallbackClient) Fetch(ctx context.Context, userID int64) (UserInfo, error) {
	u, err := f.inner.Fetch(ctx, userID)
	if err == nil {
		return u, nil
	}
	if errors.Is(err, ErrNotFound) {
		return UserInfo{}, err
	}

	logger.FromCtx(ctx).Error("user directory degraded, serving placeholder",
		zap.Int64("user_id", userID),
		zap.Error(err))

	return Placeholder(userID), nil
}

// Placeholder is the snapshot served when the directory cannot answer.
// Active stays true so the degradation never blocks paths that already
// satisfied their existence check.
func Placeholder(userID int64) UserInfo {
	return UserInfo{
		ID:      userID,
		Name:    placeholderName,
		Surname: placeholderName,
		Active:  true,
	}
}
