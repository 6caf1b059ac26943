package client

import (
	"context"
	"strconv"
	"time"
)

// HeartbeatInterval is how often a signed-in client should report itself.
const HeartbeatInterval = 2 * time.Minute

func (c *Client) Heartbeat(ctx context.Context, token string) (*Presence, error) {
	var out Presence
	res, err := c.r(ctx, token).SetResult(&out).Put("/api/presence/heartbeat")
	if err := check(res, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// Online lists up to limit other users seen recently. A negative limit
// uses the server default.
func (c *Client) Online(ctx context.Context, token string, limit int) (*OnlineResponse, error) {
	var out OnlineResponse
	req := c.r(ctx, token).SetResult(&out)
	if limit >= 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}
	res, err := req.Get("/api/presence/online")
	if err := check(res, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// RunHeartbeat reports presence now and then every interval until ctx is
// done. Failed heartbeats are logged and retried on the next tick.
func (c *Client) RunHeartbeat(ctx context.Context, token string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := c.Heartbeat(ctx, token); err != nil && ctx.Err() == nil {
			c.logger.WarnContext(ctx, "presence heartbeat failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
