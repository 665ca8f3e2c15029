package storagefactory

import (
	"context"
	"fmt"

	"hihitutor/internal/config"
	"hihitutor/internal/pkg/storage"
	"hihitutor/internal/pkg/storage/gcs"
	"hihitutor/internal/pkg/storage/local"
	"hihitutor/internal/pkg/storage/minio"
	"hihitutor/internal/pkg/storage/oss"
	"hihitutor/internal/pkg/storage/s3"
)

// NewStorage 根据配置创建存储实例
func NewStorage(ctx context.Context, cfg *config.StorageConfig) (storage.Storage, error) {
	switch cfg.Type {
	case "local":
		if cfg.Local == nil {
			return nil, fmt.Errorf("local storage config is required")
		}
		return wrap(local.NewLocalStorage(cfg.Local.BasePath, cfg.Local.BaseURL))
	case "oss":
		if cfg.OSS == nil {
			return nil, fmt.Errorf("OSS storage config is required")
		}
		return wrap(oss.NewOSSStorage(cfg.OSS))
	case "s3":
		if cfg.S3 == nil {
			return nil, fmt.Errorf("S3 storage config is required")
		}
		return wrap(s3.NewS3Storage(
			cfg.S3.Region,
			cfg.S3.Bucket,
			cfg.S3.AccessKeyID,
			cfg.S3.SecretAccessKey,
			cfg.S3.Endpoint,
			cfg.S3.PresignExpiry,
		))
	case "minio":
		if cfg.MinIO == nil {
			return nil, fmt.Errorf("MinIO storage config is required")
		}
		st, err := minio.NewMinIOStorage(
			cfg.MinIO.Endpoint,
			cfg.MinIO.AccessKey,
			cfg.MinIO.SecretKey,
			cfg.MinIO.Bucket,
			cfg.MinIO.UseSSL,
			cfg.MinIO.PresignExpiry,
		)
		if err != nil {
			return nil, err
		}
		if err := st.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return st, nil
	case "gcs":
		if cfg.GCS == nil {
			return nil, fmt.Errorf("GCS storage config is required")
		}
		return wrap(gcs.NewGCSStorage(ctx, cfg.GCS.Bucket, cfg.GCS.CredentialsFile, cfg.GCS.PresignExpiry))
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// wrap 构造失败时返回 nil 接口，避免带类型的 nil
func wrap[T storage.Storage](st T, err error) (storage.Storage, error) {
	if err != nil {
		return nil, err
	}
	return st, nil
}
