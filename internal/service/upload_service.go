package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"saultochat/internal/model"
	"saultochat/internal/pkg/id"
	"saultochat/internal/pkg/storage"
)

var (
	ErrFileTooLarge   = errors.New("file too large")
	ErrTypeNotAllowed = errors.New("file type not allowed")
	ErrEmptyFilename  = errors.New("no selected file")
)

// allowedExtensions is the upload allow-list. Everything else is
// rejected before touching storage.
var allowedExtensions = map[string]bool{
	"txt": true, "pdf": true, "png": true, "jpg": true, "jpeg": true,
	"gif": true, "doc": true, "docx": true, "xls": true, "xlsx": true,
	"ppt": true, "pptx": true, "csv": true, "json": true, "zip": true,
	"py": true, "js": true, "html": true, "css": true, "c": true,
	"cpp": true, "h": true, "java": true, "rb": true, "php": true,
	"xml": true, "md": true,
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// UploadService validates and stores attachments. Stored names carry a
// unique prefix so uploads never collide; the original name is kept in
// the message record.
type UploadService struct {
	store   storage.Storage
	maxSize int64
}

// NewUploadService creates the upload service.
func NewUploadService(store storage.Storage, maxSize int64) *UploadService {
	return &UploadService{store: store, maxSize: maxSize}
}

// Allowed reports whether the filename's extension is uploadable.
func Allowed(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	return ext != "" && allowedExtensions[ext]
}

// SanitizeFilename strips path components and characters that are not
// safe in a stored name.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeChars.ReplaceAllString(name, "_")
	return strings.Trim(name, "._")
}

// MaxSize returns the configured per-file byte limit.
func (s *UploadService) MaxSize() int64 {
	return s.maxSize
}

// StoreStandalone saves a file from the standalone upload endpoint.
// The stored name is prefixed with the upload timestamp.
func (s *UploadService) StoreStandalone(ctx context.Context, header *multipart.FileHeader) (*model.UploadResponse, error) {
	key := fmt.Sprintf("%d_%s", time.Now().Unix(), SanitizeFilename(header.Filename))

	if err := s.save(ctx, header, key); err != nil {
		return nil, err
	}

	return &model.UploadResponse{
		Message:      "File uploaded successfully",
		Filename:     key,
		OriginalName: header.Filename,
		Size:         header.Size,
	}, nil
}

// StoreAttachment saves a file riding along a chat message. The stored
// name is prefixed with a fresh UUID.
func (s *UploadService) StoreAttachment(ctx context.Context, header *multipart.FileHeader) (*model.FileAttachment, error) {
	key := fmt.Sprintf("%s_%s", id.New(), SanitizeFilename(header.Filename))

	if err := s.save(ctx, header, key); err != nil {
		return nil, err
	}

	return &model.FileAttachment{
		Name: header.Filename,
		Path: key,
		Type: header.Header.Get("Content-Type"),
		Size: header.Size,
	}, nil
}

func (s *UploadService) save(ctx context.Context, header *multipart.FileHeader, key string) error {
	if header.Filename == "" {
		return ErrEmptyFilename
	}
	if !Allowed(header.Filename) {
		return ErrTypeNotAllowed
	}
	if s.maxSize > 0 && header.Size > s.maxSize {
		return ErrFileTooLarge
	}

	file, err := header.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	url, err := s.store.Upload(ctx, key, file, header.Header.Get("Content-Type"))
	if err != nil {
		return err
	}

	log.Info().Str("key", key).Str("url", url).Int64("size", header.Size).Msg("file uploaded")
	return nil
}

// Open opens a stored file for download.
func (s *UploadService) Open(ctx context.Context, key string) (io.ReadCloser, *storage.FileInfo, error) {
	info, err := s.store.GetFileInfo(ctx, key)
	if err != nil {
		return nil, nil, err
	}

	reader, err := s.store.Download(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	return reader, info, nil
}
