package service

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"saultochat/internal/pkg/storage/local"
)

func formFileHeader(t *testing.T, filename, content string) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	_, header, err := req.FormFile("file")
	if err != nil {
		t.Fatal(err)
	}
	return header
}

func TestUploadService(t *testing.T) {
	ctx := context.Background()

	Convey("Given an upload service over local storage", t, func() {
		store, err := local.NewLocalStorage(t.TempDir(), "/api/uploads")
		So(err, ShouldBeNil)
		svc := NewUploadService(store, 1024)

		Convey("notes.txt is accepted", func() {
			header := formFileHeader(t, "notes.txt", "hello")

			resp, err := svc.StoreStandalone(ctx, header)
			So(err, ShouldBeNil)
			So(resp.OriginalName, ShouldEqual, "notes.txt")
			So(resp.Filename, ShouldEndWith, "_notes.txt")
			So(resp.Size, ShouldEqual, int64(5))

			Convey("and the stored file can be read back", func() {
				reader, info, err := svc.Open(ctx, resp.Filename)
				So(err, ShouldBeNil)
				defer reader.Close()

				data, err := io.ReadAll(reader)
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, "hello")
				So(info.Size, ShouldEqual, int64(5))
			})
		})

		Convey("notes.exe is rejected", func() {
			header := formFileHeader(t, "notes.exe", "MZ")

			_, err := svc.StoreStandalone(ctx, header)
			So(err, ShouldEqual, ErrTypeNotAllowed)
		})

		Convey("an oversized file is rejected", func() {
			header := formFileHeader(t, "big.txt", strings.Repeat("a", 2048))

			_, err := svc.StoreStandalone(ctx, header)
			So(err, ShouldEqual, ErrFileTooLarge)
		})

		Convey("attachments get a uuid-prefixed key and keep the original name", func() {
			header := formFileHeader(t, "report.csv", "a,b")

			att, err := svc.StoreAttachment(ctx, header)
			So(err, ShouldBeNil)
			So(att.Name, ShouldEqual, "report.csv")
			So(att.Path, ShouldEndWith, "_report.csv")
			So(att.Path, ShouldNotEqual, "report.csv")
			So(att.Size, ShouldEqual, int64(3))
		})
	})
}

func TestAllowed(t *testing.T) {
	Convey("Upload allow-list", t, func() {
		So(Allowed("a.txt"), ShouldBeTrue)
		So(Allowed("a.PDF"), ShouldBeTrue)
		So(Allowed("a.docx"), ShouldBeTrue)
		So(Allowed("a.py"), ShouldBeTrue)
		So(Allowed("a.exe"), ShouldBeFalse)
		So(Allowed("a.sh"), ShouldBeFalse)
		So(Allowed("noext"), ShouldBeFalse)
	})
}

func TestSanitizeFilename(t *testing.T) {
	Convey("Filename sanitization", t, func() {
		So(SanitizeFilename("notes.txt"), ShouldEqual, "notes.txt")
		So(SanitizeFilename("../../etc/passwd"), ShouldEqual, "passwd")
		So(SanitizeFilename("dir\\sub\\report.csv"), ShouldEqual, "report.csv")
		So(SanitizeFilename("my file (1).txt"), ShouldEqual, "my_file__1_.txt")
	})
}
