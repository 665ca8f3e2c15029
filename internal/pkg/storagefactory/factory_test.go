package storagefactory

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"hihitutor/internal/config"
	"hihitutor/internal/pkg/storage"
)

func localConfig(t *testing.T) *config.StorageConfig {
	return &config.StorageConfig{
		Type: "local",
		Local: &config.LocalConfig{
			BasePath: t.TempDir(),
			BaseURL:  "/uploads",
		},
	}
}

func TestNewStorage(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.StorageConfig
		wantErr bool
	}{
		{name: "missing local config", cfg: &config.StorageConfig{Type: "local"}, wantErr: true},
		{name: "missing s3 config", cfg: &config.StorageConfig{Type: "s3"}, wantErr: true},
		{name: "missing minio config", cfg: &config.StorageConfig{Type: "minio"}, wantErr: true},
		{name: "minio without credentials", cfg: &config.StorageConfig{Type: "minio", MinIO: &config.MinIOConfig{Endpoint: "localhost:9000"}}, wantErr: true},
		{name: "missing gcs config", cfg: &config.StorageConfig{Type: "gcs"}, wantErr: true},
		{name: "unsupported storage type", cfg: &config.StorageConfig{Type: "invalid"}, wantErr: true},
		{name: "s3 with static credentials", cfg: &config.StorageConfig{Type: "s3", S3: &config.S3Config{Region: "ap-east-1", Bucket: "b", AccessKeyID: "id", SecretAccessKey: "secret"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := NewStorage(context.Background(), tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NewStorage() expected error, got nil")
				}
				if st != nil {
					t.Errorf("NewStorage() expected nil storage, got %v", st)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewStorage() unexpected error: %v", err)
			}
			if st.GetStorageType() != tt.cfg.Type {
				t.Errorf("GetStorageType() = %v, want %v", st.GetStorageType(), tt.cfg.Type)
			}
		})
	}
}

func TestLocalStorage_Operations(t *testing.T) {
	ctx := context.Background()
	st, err := NewStorage(ctx, localConfig(t))
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	key := "avatars/u1/a.png"
	content := "fake png"

	url, err := st.Upload(ctx, key, strings.NewReader(content), int64(len(content)), "image/png")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if url != "/uploads/"+key {
		t.Errorf("Upload() url = %v, want %v", url, "/uploads/"+key)
	}

	exists, err := st.Exists(ctx, key)
	if err != nil || !exists {
		t.Fatalf("Exists() = %v, %v; want true", exists, err)
	}

	reader, err := st.Download(ctx, key)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	got, _ := io.ReadAll(reader)
	reader.Close()
	if string(got) != content {
		t.Errorf("Download() content = %q, want %q", got, content)
	}

	presigned, err := st.GetPresignedDownloadURL(ctx, key, time.Hour)
	if err != nil || presigned != url {
		t.Errorf("GetPresignedDownloadURL() = %v, %v; want %v", presigned, err, url)
	}

	if err := st.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if exists, _ := st.Exists(ctx, key); exists {
		t.Errorf("Exists() = true after delete")
	}
}

func TestLocalStorage_NonExistentFile(t *testing.T) {
	ctx := context.Background()
	st, err := NewStorage(ctx, localConfig(t))
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	if _, err := st.Download(ctx, "nonexistent/file.txt"); err != storage.ErrNotFound {
		t.Errorf("Download() error = %v, want ErrNotFound", err)
	}
	if err := st.Delete(ctx, "nonexistent/file.txt"); err != nil {
		t.Errorf("Delete() error = %v, should succeed for non-existent file", err)
	}
}

func TestLocalStorage_KeyStaysInsideBase(t *testing.T) {
	ctx := context.Background()
	cfg := localConfig(t)
	st, err := NewStorage(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	if _, err := st.Upload(ctx, "../../escape.txt", strings.NewReader("x"), 1, "text/plain"); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	exists, _ := st.Exists(ctx, "escape.txt")
	if !exists {
		t.Errorf("traversal key should be confined to base path")
	}
}

func TestClampExpiry(t *testing.T) {
	if got := storage.ClampExpiry(2*time.Hour, 3600); got != time.Hour {
		t.Errorf("ClampExpiry() = %v, want 1h", got)
	}
	if got := storage.ClampExpiry(time.Minute, 3600); got != time.Minute {
		t.Errorf("ClampExpiry() = %v, want 1m", got)
	}
	if got := storage.ClampExpiry(time.Minute, 0); got != time.Minute {
		t.Errorf("ClampExpiry() = %v, want 1m", got)
	}
}
