package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// memoryS3Client keeps objects in process memory. Used for local runs and tests.
type memoryS3Client struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryS3Client() S3Client {
	return &memoryS3Client{objects: make(map[string][]byte)}
}

func objectKey(bucket, key string) string {
	return bucket + "/" + key
}

func (c *memoryS3Client) Upload(ctx context.Context, bucket, key, contentType string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.objects[objectKey(bucket, key)] = data
	c.mu.Unlock()
	return nil
}

func (c *memoryS3Client) Download(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	c.mu.RLock()
	data, ok := c.objects[objectKey(bucket, key)]
	c.mu.RUnlock()
	if !ok {
		return nil, ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (c *memoryS3Client) Delete(ctx context.Context, bucket, key string) error {
	c.mu.Lock()
	delete(c.objects, objectKey(bucket, key))
	c.mu.Unlock()
	return nil
}

func (c *memoryS3Client) GetPresignedURL(ctx context.Context, bucket, key string, expiration time.Duration) (string, error) {
	return fmt.Sprintf("memory://%s/%s?expires=%d", bucket, key, int(expiration.Seconds())), nil
}
