// Package upload 上传文件校验：大小上限与按内容探测的类型白名单
package upload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// 常用类型
const (
	MimePDF  = "application/pdf"
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
)

const mb = 1 << 20

var (
	ErrEmptyFile      = errors.New("文件为空")
	ErrFileTooLarge   = errors.New("文件超过大小上限")
	ErrTypeNotAllowed = errors.New("不支持的文件类型")
	ErrTooManyFiles   = errors.New("文件数量超过上限")
)

// Policy 一类上传的限制
type Policy struct {
	MaxSize  int64
	MaxFiles int
	Allowed  []string
}

// DocumentPolicy 机构文件：PDF/JPEG/PNG，默认5MB
func DocumentPolicy(maxSize int64) Policy {
	return Policy{MaxSize: orDefault(maxSize, 5*mb), MaxFiles: 1, Allowed: []string{MimePDF, MimeJPEG, MimePNG}}
}

// AvatarPolicy 头像：JPEG/PNG，默认5MB
func AvatarPolicy(maxSize int64) Policy {
	return Policy{MaxSize: orDefault(maxSize, 5*mb), MaxFiles: 1, Allowed: []string{MimeJPEG, MimePNG}}
}

// CertificatePolicy 证书：PDF/JPEG/PNG，默认10MB，最多5个
func CertificatePolicy(maxSize int64, maxFiles int) Policy {
	if maxFiles <= 0 {
		maxFiles = 5
	}
	return Policy{MaxSize: orDefault(maxSize, 10*mb), MaxFiles: maxFiles, Allowed: []string{MimePDF, MimeJPEG, MimePNG}}
}

func orDefault(v, def int64) int64 {
	if v <= 0 {
		return def
	}
	return v
}

// File 通过校验的文件，内容已读入内存（上限由 Policy 控制）
type File struct {
	Name        string
	Ext         string // 不含点号，按探测结果
	ContentType string
	Size        int64
	Data        []byte
}

// Reader 返回内容读取器
func (f *File) Reader() io.Reader {
	return bytes.NewReader(f.Data)
}

// Check 读取并校验一个文件
func (p Policy) Check(name string, r io.Reader) (*File, error) {
	// 多读一个字节用于判断是否超限
	data, err := io.ReadAll(io.LimitReader(r, p.MaxSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyFile)
	}
	if int64(len(data)) > p.MaxSize {
		return nil, fmt.Errorf("%s: %w（%dMB）", name, ErrFileTooLarge, p.MaxSize/mb)
	}

	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), p.Allowed...) {
		return nil, fmt.Errorf("%s: %w（%s）", name, ErrTypeNotAllowed, mt.String())
	}

	return &File{
		Name:        filepath.Base(name),
		Ext:         strings.TrimPrefix(mt.Extension(), "."),
		ContentType: mt.String(),
		Size:        int64(len(data)),
		Data:        data,
	}, nil
}

// IsPolicyError 是否为校验失败（而不是读取失败）
func IsPolicyError(err error) bool {
	return errors.Is(err, ErrEmptyFile) || errors.Is(err, ErrFileTooLarge) ||
		errors.Is(err, ErrTypeNotAllowed) || errors.Is(err, ErrTooManyFiles)
}
