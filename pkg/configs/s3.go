package configs

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// S3Config 对象存储配置. 原图存放在 images/ 下，缩略图存放在 thumbnails/<image_id>/ 下.
type S3Config struct {
	Endpoint        string        `mapstructure:"endpoint"          rule:"required"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	UseSSL          bool          `mapstructure:"use_ssl"`
	BucketName      string        `mapstructure:"bucket_name"       rule:"required,min=3,max=63"`
	Region          string        `mapstructure:"region"`
	CreateBucket    bool          `mapstructure:"create_bucket"`                              // bucket 不存在时是否自动创建
	PresignExpiry   time.Duration `mapstructure:"presign_expiry"    rule:"min=1m,max=168h"` // image_link 预签名有效期，S3 上限 7 天
}

const (
	DefaultS3Endpoint        = "localhost:9000" // 默认S3端点
	DefaultS3AccessKeyID     = "minioadmin"     // 默认访问密钥ID
	DefaultS3SecretAccessKey = "minioadmin"     // 默认秘密访问密钥
	DefaultS3UseSSL          = false            // 默认是否使用SSL
	DefaultS3BucketName      = "imagevault"     // 默认存储桶名称
	DefaultS3Region          = "us-east-1"      // 默认区域
	DefaultS3PresignExpiry   = 15 * time.Minute // 默认预签名有效期
	DefaultS3CreateBucket    = true             // 默认自动创建 bucket
)

// GetEndpointURL 获取完整的端点URL.
func (c *S3Config) GetEndpointURL() string {
	scheme := "http"
	if c.UseSSL {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s", scheme, c.Endpoint)
}

// setDefaults 设置 S3 配置的默认值.
func (c *S3Config) setDefaults(v *viper.Viper) {
	v.SetDefault("s3.endpoint", DefaultS3Endpoint)
	v.SetDefault("s3.access_key_id", DefaultS3AccessKeyID)
	v.SetDefault("s3.secret_access_key", DefaultS3SecretAccessKey)
	v.SetDefault("s3.use_ssl", DefaultS3UseSSL)
	v.SetDefault("s3.bucket_name", DefaultS3BucketName)
	v.SetDefault("s3.region", DefaultS3Region)
	v.SetDefault("s3.presign_expiry", DefaultS3PresignExpiry)
	v.SetDefault("s3.create_bucket", DefaultS3CreateBucket)
}
