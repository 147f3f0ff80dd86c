package storage

import (
	"context"
	"io"
	"time"
)

// SignedURLTTL is how long a generated resume link stays valid.
const SignedURLTTL = time.Hour

type Uploader interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (storedKey string, err error)
}

type Signer interface {
	SignedGetURL(ctx context.Context, objectName string, ttl time.Duration) (string, error)
}

type Deleter interface {
	Delete(ctx context.Context, objectName string) error
}

// Gateway is the full object-storage surface the application layer needs.
type Gateway interface {
	Uploader
	Signer
	Deleter
}
