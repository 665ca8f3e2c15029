package service

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"hihitutor/internal/model/auth"
	uploadModel "hihitutor/internal/model/upload"
	"hihitutor/internal/pkg/apperr"
	"hihitutor/internal/pkg/id"
	"hihitutor/internal/pkg/mongodb"
	"hihitutor/internal/pkg/storage"
	"hihitutor/internal/pkg/upload"
)

// FileInput 待上传的文件
type FileInput struct {
	Name   string
	Reader io.Reader
}

// checkFile 按策略校验文件，失败时返回带字段名的参数错误
func checkFile(p upload.Policy, field string, in *FileInput) (*upload.File, error) {
	if in == nil || in.Reader == nil {
		return nil, ErrInvalidFile.WithFields(apperr.FieldError{Field: field, Message: upload.ErrEmptyFile.Error()})
	}
	f, err := p.Check(in.Name, in.Reader)
	if err != nil {
		if upload.IsPolicyError(err) {
			return nil, ErrInvalidFile.WithFields(apperr.FieldError{Field: field, Message: err.Error()})
		}
		return nil, apperr.Internal(err)
	}
	return f, nil
}

// UploadService 文件上传服务
// 文件写入存储后记录到 files 集合，业务记录保存返回的引用
type UploadService struct {
	files   FileStore
	storage storage.Storage
}

// NewUploadService 创建上传服务
func NewUploadService(files FileStore, st storage.Storage) *UploadService {
	return &UploadService{files: files, storage: st}
}

// generateStorageKey 存储路径：{用途}/{所有者}/{uuid}.{扩展名}
func (s *UploadService) generateStorageKey(purpose uploadModel.Purpose, ownerID, ext string) string {
	if ownerID == "" {
		ownerID = "pending"
	}
	return fmt.Sprintf("%s/%s/%s.%s", purpose, ownerID, id.New(), ext)
}

// Store 保存一个已校验的文件
func (s *UploadService) Store(ctx context.Context, ownerID string, purpose uploadModel.Purpose, f *upload.File) (*auth.FileRef, error) {
	key := s.generateStorageKey(purpose, ownerID, f.Ext)

	md5Sum := md5.Sum(f.Data)
	shaSum := sha256.Sum256(f.Data)

	url, err := s.storage.Upload(ctx, key, f.Reader(), f.Size, f.ContentType)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to upload file")
		return nil, apperr.Internal(err)
	}

	record := &uploadModel.File{
		ID:          id.New(),
		OwnerID:     ownerID,
		Purpose:     purpose,
		Name:        f.Name,
		Ext:         f.Ext,
		StorageKey:  key,
		StorageURL:  url,
		StorageType: s.storage.GetStorageType(),
		FileSize:    f.Size,
		ContentType: f.ContentType,
		MD5:         hex.EncodeToString(md5Sum[:]),
		SHA256:      hex.EncodeToString(shaSum[:]),
	}
	if err := s.files.Create(ctx, record); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to create file record")
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			log.Warn().Err(delErr).Str("key", key).Msg("failed to delete orphan file")
		}
		return nil, apperr.Internal(err)
	}

	return &auth.FileRef{Key: key, URL: url, ContentType: f.ContentType, Size: f.Size}, nil
}

// Remove 删除文件及记录，用于写入失败后的补偿
func (s *UploadService) Remove(ctx context.Context, refs ...*auth.FileRef) {
	for _, ref := range refs {
		if ref == nil {
			continue
		}
		if err := s.storage.Delete(ctx, ref.Key); err != nil {
			log.Warn().Err(err).Str("key", ref.Key).Msg("failed to delete file")
		}
		if err := s.files.DeleteByKey(ctx, ref.Key); err != nil {
			log.Warn().Err(err).Str("key", ref.Key).Msg("failed to delete file record")
		}
	}
}

// RemoveOwned 删除某用户名下的全部文件，返回删除数量
func (s *UploadService) RemoveOwned(ctx context.Context, ownerID string) int {
	if ownerID == "" {
		return 0
	}
	files, err := s.files.ListByOwner(ctx, ownerID)
	if err != nil {
		log.Warn().Err(err).Str("owner_id", ownerID).Msg("failed to list owned files")
		return 0
	}
	refs := make([]*auth.FileRef, 0, len(files))
	for _, f := range files {
		refs = append(refs, &auth.FileRef{Key: f.StorageKey, URL: f.StorageURL})
	}
	s.Remove(ctx, refs...)
	return len(refs)
}

// Claim 注册完成后把文件归属到用户
func (s *UploadService) Claim(ctx context.Context, ownerID string, refs ...*auth.FileRef) {
	keys := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref != nil {
			keys = append(keys, ref.Key)
		}
	}
	if len(keys) == 0 {
		return
	}
	if err := s.files.SetOwner(ctx, keys, ownerID); err != nil {
		log.Warn().Err(err).Str("owner_id", ownerID).Msg("failed to set file owner")
	}
}

// DownloadURL 生成限时下载链接
func (s *UploadService) DownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	if _, err := s.files.FindByKey(ctx, key); err != nil {
		if mongodb.IsNotFound(err) {
			return "", ErrFileNotFound
		}
		return "", apperr.Internal(err)
	}
	url, err := s.storage.GetPresignedDownloadURL(ctx, key, expiresIn)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", ErrFileNotFound
		}
		log.Error().Err(err).Str("key", key).Msg("failed to generate download url")
		return "", apperr.Internal(err)
	}
	return url, nil
}
