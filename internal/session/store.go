package session

import (
	"context"
	"time"
)

// TTL bounds the lifetime of a login session.
const TTL = 24 * time.Hour

// Store maps server-held session ids to user ids. It lives in a shared
// backend so any process can resolve a session.
type Store interface {
	Create(ctx context.Context, userID string) (sessionID string, err error)
	Get(ctx context.Context, sessionID string) (userID string, err error)
	Destroy(ctx context.Context, sessionID string) error
}
