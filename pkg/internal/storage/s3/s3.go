// Package s3 处理S3存储操作，保存原图与缩略图.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yeisme/imagevault/pkg/configs"
	nlog "github.com/yeisme/imagevault/pkg/log"
)

// ErrObjectNotFound 对象不存在.
var ErrObjectNotFound = errors.New("object not found")

// Client 包装 MinIO 客户端，绑定到单个 bucket.
type Client struct {
	*minio.Client
	bucket        string
	presignExpiry time.Duration
}

// New 初始化 MinIO 客户端；bucket 不存在时按 create_bucket 创建或报错.
func New(ctx context.Context, cfg *configs.S3Config) (*Client, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL
	// 允许用户传完整 schema endpoint（http:// 或 https://）
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		if u.Scheme == "https" {
			useSSL = true
		}
	}

	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	cli.SetAppInfo("imagevault", configs.AppVersion)

	exists, err := cli.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.BucketName, err)
	}

	if !exists {
		if !cfg.CreateBucket {
			return nil, fmt.Errorf("bucket %s does not exist and create_bucket is off", cfg.BucketName)
		}

		if err := cli.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.BucketName, err)
		}

		nlog.Logger().Info().Str("bucket", cfg.BucketName).Msg("bucket created")
	}

	nlog.Logger().Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.BucketName).Msg("s3 connected")

	return &Client{Client: cli, bucket: cfg.BucketName, presignExpiry: cfg.PresignExpiry}, nil
}

// Bucket 返回绑定的 bucket 名称.
func (c *Client) Bucket() string {
	return c.bucket
}

// Put 上传对象.
func (c *Client) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := c.PutObject(ctx, c.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}

	return nil
}

// Get 读取完整对象内容.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := c.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}

		return nil, fmt.Errorf("read object %s: %w", key, err)
	}

	return data, nil
}

// Exists 判断对象是否存在.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}

	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}

	return false, fmt.Errorf("stat object %s: %w", key, err)
}

// RemovePrefix 删除指定前缀（或单个键）下的全部对象.
func (c *Client) RemovePrefix(ctx context.Context, prefix string) error {
	objects := c.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true})

	for res := range c.RemoveObjects(ctx, c.bucket, objects, minio.RemoveObjectsOptions{}) {
		if res.Err != nil {
			return fmt.Errorf("remove object %s: %w", res.ObjectName, res.Err)
		}
	}

	return nil
}

// PresignGet 生成对象的预签名下载地址.
func (c *Client) PresignGet(ctx context.Context, key string) (string, error) {
	u, err := c.PresignedGetObject(ctx, c.bucket, key, c.presignExpiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign object %s: %w", key, err)
	}

	return u.String(), nil
}

// HealthCheck 简单的健康检查，检查 bucket 是否可访问.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.BucketExists(ctx, c.bucket)

	return err
}

// Close 关闭 S3 客户端连接（无实际操作，接口兼容）.
func (c *Client) Close() error {
	return nil
}
