package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"hihitutor/internal/service"
)

// FormFiles 请求中打开的上传文件，处理结束后统一关闭
type FormFiles struct {
	closers []io.Closer
}

// Open 打开 multipart 文件；字段不存在时返回 nil
func (f *FormFiles) Open(fh *multipart.FileHeader) (*service.FileInput, error) {
	if fh == nil {
		return nil, nil
	}
	file, err := fh.Open()
	if err != nil {
		return nil, err
	}
	f.closers = append(f.closers, file)
	return &service.FileInput{Name: fh.Filename, Reader: file}, nil
}

// First 按顺序取第一个存在的字段，用于兼容字段别名
func (f *FormFiles) First(c *gin.Context, fields ...string) (*service.FileInput, error) {
	for _, field := range fields {
		fh, err := c.FormFile(field)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return f.Open(fh)
	}
	return nil, nil
}

// All 取某字段下的全部文件
func (f *FormFiles) All(c *gin.Context, fields ...string) ([]*service.FileInput, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	var out []*service.FileInput
	for _, field := range fields {
		for _, fh := range form.File[field] {
			in, err := f.Open(fh)
			if err != nil {
				return nil, err
			}
			out = append(out, in)
		}
	}
	return out, nil
}

// Close 关闭所有已打开的文件
func (f *FormFiles) Close() {
	for _, c := range f.closers {
		_ = c.Close()
	}
	f.closers = nil
}
