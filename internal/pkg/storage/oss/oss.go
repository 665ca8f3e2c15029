package oss

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"hihitutor/internal/config"
	"hihitutor/internal/pkg/storage"
)

// OSSStorage 阿里云OSS存储
type OSSStorage struct {
	bucket        *oss.Bucket
	baseURL       string
	presignExpiry int
}

// NewOSSStorage 创建阿里云OSS存储
func NewOSSStorage(cfg *config.OSSConfig) (*OSSStorage, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("oss endpoint and bucket are required")
	}
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create OSS client: %w", err)
	}
	bucket, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket: %w", err)
	}

	baseURL := strings.TrimSuffix(cfg.PublicBaseURL, "/")
	if baseURL == "" {
		host := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")
		baseURL = fmt.Sprintf("https://%s.%s", cfg.Bucket, host)
	}
	return &OSSStorage{
		bucket:        bucket,
		baseURL:       baseURL,
		presignExpiry: cfg.PresignExpiry,
	}, nil
}

func isNotFound(err error) bool {
	var svcErr oss.ServiceError
	return errors.As(err, &svcErr) && svcErr.StatusCode == http.StatusNotFound
}

// Upload 上传文件，size 未知时传 0
func (s *OSSStorage) Upload(ctx context.Context, key string, data io.Reader, size int64, contentType string) (string, error) {
	opts := []oss.Option{oss.WithContext(ctx), oss.ContentType(contentType)}
	if size > 0 {
		opts = append(opts, oss.ContentLength(size))
	}
	if err := s.bucket.PutObject(key, data, opts...); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return s.baseURL + "/" + key, nil
}

// Download 下载文件
func (s *OSSStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	body, err := s.bucket.GetObject(key, oss.WithContext(ctx))
	if err != nil {
		if isNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to download %s: %w", key, err)
	}
	return body, nil
}

// GetPresignedDownloadURL 机构文件等非公开文件的限时链接
func (s *OSSStorage) GetPresignedDownloadURL(_ context.Context, key string, expiresIn time.Duration) (string, error) {
	expiry := storage.ClampExpiry(expiresIn, s.presignExpiry)
	url, err := s.bucket.SignURL(key, oss.HTTPGet, int64(expiry.Seconds()))
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return url, nil
}

// Delete 删除文件，OSS 对不存在的对象同样返回成功
func (s *OSSStorage) Delete(ctx context.Context, key string) error {
	if err := s.bucket.DeleteObject(key, oss.WithContext(ctx)); err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Exists 检查文件是否存在
func (s *OSSStorage) Exists(ctx context.Context, key string) (bool, error) {
	exists, err := s.bucket.IsObjectExist(key, oss.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", key, err)
	}
	return exists, nil
}

// GetStorageType 获取存储类型
func (s *OSSStorage) GetStorageType() string {
	return string(storage.StorageTypeOSS)
}
