package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	gcstorage "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"hihitutor/internal/pkg/storage"
)

// GCSStorage Google Cloud Storage 存储
type GCSStorage struct {
	client        *gcstorage.Client
	bucket        string
	presignExpiry int
}

// NewGCSStorage 创建 GCS 存储
// credentialsFile 为空时使用默认凭证
func NewGCSStorage(ctx context.Context, bucket, credentialsFile string, presignExpiry int) (*GCSStorage, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gcstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCSStorage{client: client, bucket: bucket, presignExpiry: presignExpiry}, nil
}

// Upload 上传文件，Close 返回的错误才是最终结果
func (s *GCSStorage) Upload(ctx context.Context, key string, data io.Reader, _ int64, contentType string) (string, error) {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, data); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, key), nil
}

// Download 下载文件
func (s *GCSStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcstorage.ErrObjectNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	return r, nil
}

// GetPresignedDownloadURL 获取 V4 签名下载URL
func (s *GCSStorage) GetPresignedDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	url, err := s.client.Bucket(s.bucket).SignedURL(key, &gcstorage.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(storage.ClampExpiry(expiresIn, s.presignExpiry)),
		Scheme:  gcstorage.SigningSchemeV4,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned download URL: %w", err)
	}
	return url, nil
}

// Delete 删除文件
func (s *GCSStorage) Delete(ctx context.Context, key string) error {
	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, gcstorage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Exists 检查文件是否存在
func (s *GCSStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.Bucket(s.bucket).Object(key).Attrs(ctx)
	if err != nil {
		if errors.Is(err, gcstorage.ErrObjectNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check file existence: %w", err)
	}
	return true, nil
}

// GetStorageType 获取存储类型
func (s *GCSStorage) GetStorageType() string {
	return string(storage.StorageTypeGCS)
}
