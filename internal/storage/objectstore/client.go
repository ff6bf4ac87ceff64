// Package objectstore keeps the state blob and backup archives in an
// S3-compatible bucket through MinIO.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/gravadigital/urna-api/internal/config"
	"github.com/gravadigital/urna-api/internal/logger"
)

const (
	statePrefix  = "state/"
	backupPrefix = "backups/"
	contentType  = "application/json"
)

// Client wraps a MinIO client bound to one bucket
type Client struct {
	mc     *minio.Client
	bucket string
	log    *log.Logger
}

// Object describes a stored archive
type Object struct {
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// NewClient connects to the configured endpoint and makes sure the bucket exists
func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	mc, err := minio.New(cfg.ObjectStore.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.ObjectStore.AccessKey, cfg.ObjectStore.SecretKey, ""),
		Secure: cfg.ObjectStore.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	c := &Client{
		mc:     mc,
		bucket: cfg.ObjectStore.Bucket,
		log:    logger.Gateway("minio"),
	}
	if err := c.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) ensureBucket(ctx context.Context) error {
	exists, err := c.mc.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", c.bucket, err)
	}
	if exists {
		return nil
	}
	if err := c.mc.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", c.bucket, err)
	}
	c.log.Info("Bucket created", "bucket", c.bucket)
	return nil
}

func (c *Client) put(ctx context.Context, key string, data []byte) error {
	_, err := c.mc.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// get returns (nil, nil) when the key does not exist
func (c *Client) get(ctx context.Context, key string) ([]byte, error) {
	obj, err := c.mc.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NoSuchBucket"
}

// stateKey is the object holding the live blob of a scope
func stateKey(scope string) string {
	return statePrefix + scope + ".json"
}

// backupKey is the object holding an archived backup file
func backupKey(name string) string {
	return backupPrefix + strings.TrimPrefix(name, backupPrefix)
}

// Gateway returns a blob.Gateway over the given scope
func (c *Client) Gateway(scope string) *Gateway {
	return &Gateway{client: c, key: stateKey(scope)}
}

// PutBackup archives an exported backup document
func (c *Client) PutBackup(ctx context.Context, name string, data []byte) error {
	if err := c.put(ctx, backupKey(name), data); err != nil {
		return err
	}
	c.log.Info("Backup archived", "name", name, "bytes", len(data))
	return nil
}

// GetBackup fetches an archived backup; a missing archive is an error
func (c *Client) GetBackup(ctx context.Context, name string) ([]byte, error) {
	data, err := c.get(ctx, backupKey(name))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("backup %s not found", name)
	}
	return data, nil
}

// ListBackups returns archived backups, newest first
func (c *Client) ListBackups(ctx context.Context) ([]Object, error) {
	var out []Object
	for info := range c.mc.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{Prefix: backupPrefix, Recursive: true}) {
		if info.Err != nil {
			return nil, fmt.Errorf("list backups: %w", info.Err)
		}
		out = append(out, Object{
			Name:         strings.TrimPrefix(info.Key, backupPrefix),
			Size:         info.Size,
			LastModified: info.LastModified,
		})
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(objects []Object) {
	sort.SliceStable(objects, func(i, j int) bool {
		return objects[i].LastModified.After(objects[j].LastModified)
	})
}
