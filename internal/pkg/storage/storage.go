package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound 文件不存在
var ErrNotFound = errors.New("file not found")

// Storage 存储接口
// key 由上传服务生成：{用途}/{所有者}/{uuid}.{扩展名}
type Storage interface {
	// Upload 上传文件，返回可访问的URL
	Upload(ctx context.Context, key string, data io.Reader, size int64, contentType string) (string, error)

	// Download 下载文件
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// GetPresignedDownloadURL 获取限时下载URL（机构文件等非公开文件）
	GetPresignedDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, error)

	// Delete 删除文件，文件不存在视为成功
	Delete(ctx context.Context, key string) error

	// Exists 检查文件是否存在
	Exists(ctx context.Context, key string) (bool, error)

	// GetStorageType 获取存储类型
	GetStorageType() string
}

// StorageType 存储类型
type StorageType string

const (
	StorageTypeLocal StorageType = "local" // 本地文件系统
	StorageTypeOSS   StorageType = "oss"   // 阿里云OSS
	StorageTypeS3    StorageType = "s3"    // AWS S3
	StorageTypeMinIO StorageType = "minio" // MinIO
	StorageTypeGCS   StorageType = "gcs"   // Google Cloud Storage
)

// ClampExpiry 请求的有效期不超过配置的上限（秒）
func ClampExpiry(requested time.Duration, maxSeconds int) time.Duration {
	if maxSeconds <= 0 {
		return requested
	}
	limit := time.Duration(maxSeconds) * time.Second
	if requested <= 0 || requested > limit {
		return limit
	}
	return requested
}
