package userdir

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ecomlabs/order-service/internal/logger"
)

const (
	dialTimeout     = 5 * time.Second
	responseTimeout = 10 * time.Second

	maxAttempts  = 3
	retryBase    = 100 * time.Millisecond
	retryCeiling = 1 * time.Second
)

// HTTPClient calls GET {baseURL}/api/v1/users/{id} with bounded timeouts and
// a small retry budget. 404 maps to ErrNotFound and is never retried; any
// transport failure or 5xx is retried with capped exponential backoff and
// reported as ErrUnavailable once attempts run out.
type HTTPClient struct {
	baseURL     string
	apiKey      string
	serviceName string
	hc          *http.Client
}

func NewHTTPClient(baseURL, apiKey, serviceName string) *HTTPClient {
	return &HTTPClient{
		baseURL:     baseURL,
		apiKey:      apiKey,
		serviceName: serviceName,
		hc: &http.Client{
			Timeout: responseTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: dialTimeout}).DialContext,
			},
			// redirects are followed by default
		},
	}
}

func (c *HTTPClient) Fetch(ctx context.Context, userID int64) (UserInfo, error) {
	var lastErr error
	backoff := retryBase

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		u, err := c.fetchOnce(ctx, userID)
		if err == nil {
			return u, nil
		}
		if errors.Is(err, ErrNotFound) {
			return UserInfo{}, err
		}
		lastErr = err
		logger.FromCtx(ctx).Warn("user fetch attempt failed",
			zap.Int64("user_id", userID),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt == maxAttempts {
			break
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return UserInfo{}, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		}
		backoff *= 2
		if backoff > retryCeiling {
			backoff = retryCeiling
		}
	}
	return UserInfo{}, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

func (c *HTTPClient) fetchOnce(ctx context.Context, userID int64) (UserInfo, error) {
	url := fmt.Sprintf("%s/api/v1/users/%d", c.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return UserInfo{}, err
	}
	req.Header.Set("X-Service-Key", c.apiKey)
	req.Header.Set("X-Service-Name", c.serviceName)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return UserInfo{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var u UserInfo
		if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
			return UserInfo{}, fmt.Errorf("decode user response: %w", err)
		}
		return u, nil
	case resp.StatusCode == http.StatusNotFound:
		return UserInfo{}, ErrNotFound
	default:
		return UserInfo{}, fmt.Errorf("user service status %d", resp.StatusCode)
	}
}
