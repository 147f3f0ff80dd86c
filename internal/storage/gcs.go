package storage

import (
	"context"
	"io"
	"time"

	gcs "cloud.google.com/go/storage"
)

// GCSGateway stores resume files as private objects in one bucket. Reads go
// through time-limited signed URLs instead of public ACLs.
type GCSGateway struct {
	client *gcs.Client
	bucket string
}

func NewGCSGateway(ctx context.Context, bucket string) (*GCSGateway, error) {
	c, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GCSGateway{client: c, bucket: bucket}, nil
}

func (g *GCSGateway) Close() error { return g.client.Close() }

func (g *GCSGateway) Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (string, error) {
	w := g.client.Bucket(g.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return objectName, nil
}

func (g *GCSGateway) SignedGetURL(ctx context.Context, objectName string, ttl time.Duration) (string, error) {
	return g.client.Bucket(g.bucket).SignedURL(objectName, &gcs.SignedURLOptions{
		Scheme:  gcs.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(ttl),
	})
}

func (g *GCSGateway) Delete(ctx context.Context, objectName string) error {
	return g.client.Bucket(g.bucket).Object(objectName).Delete(ctx)
}
