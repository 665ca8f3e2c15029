package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	uploadModel "hihitutor/internal/model/upload"
	"hihitutor/internal/pkg/storage/local"
	"hihitutor/internal/pkg/upload"
)

func TestUploadService(t *testing.T) {
	Convey("文件上传", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		st, err := local.NewLocalStorage(dir, "/uploads")
		So(err, ShouldBeNil)
		files := newFakeFiles()
		svc := NewUploadService(files, st)

		f, err := upload.DocumentPolicy(0).Check("br.pdf", strings.NewReader(string(pdfData)))
		So(err, ShouldBeNil)

		Convey("保存文件与记录", func() {
			ref, err := svc.Store(ctx, "", uploadModel.PurposeOrganizationDoc, f)
			So(err, ShouldBeNil)
			So(ref.Key, ShouldStartWith, "org-docs/pending/")
			So(ref.Key, ShouldEndWith, ".pdf")
			So(ref.URL, ShouldEqual, "/uploads/"+ref.Key)

			_, err = os.Stat(filepath.Join(dir, ref.Key))
			So(err, ShouldBeNil)

			record, err := files.FindByKey(ctx, ref.Key)
			So(err, ShouldBeNil)
			So(record.MD5, ShouldHaveLength, 32)
			So(record.SHA256, ShouldHaveLength, 64)
			So(record.OwnerID, ShouldBeEmpty)

			Convey("归属到用户", func() {
				svc.Claim(ctx, "user-1", ref)
				record, _ := files.FindByKey(ctx, ref.Key)
				So(record.OwnerID, ShouldEqual, "user-1")
			})

			Convey("下载链接", func() {
				url, err := svc.DownloadURL(ctx, ref.Key, time.Minute)
				So(err, ShouldBeNil)
				So(url, ShouldEqual, ref.URL)
			})

			Convey("删除文件与记录", func() {
				svc.Remove(ctx, ref)
				_, err := os.Stat(filepath.Join(dir, ref.Key))
				So(os.IsNotExist(err), ShouldBeTrue)
				So(files.Len(), ShouldEqual, 0)
			})
		})

		Convey("不存在的文件", func() {
			_, err := svc.DownloadURL(ctx, "org-docs/x/missing.pdf", time.Minute)
			So(errors.Is(err, ErrFileNotFound), ShouldBeTrue)
		})

		Convey("空引用不做任何事", func() {
			svc.Claim(ctx, "user-1")
			svc.Remove(ctx, nil)
			So(files.Len(), ShouldEqual, 0)
		})
	})
}
