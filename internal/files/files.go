package files

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var (
	ErrInvalidInput = errors.New("files: invalid input")
	ErrTooLarge     = errors.New("files: file too large")
	ErrInvalidType  = errors.New("files: file type not allowed")
	ErrNotFound     = errors.New("files: not found")
)

// File is stored metadata for an uploaded file. The bytes live on disk under
// the configured upload directory.
type File struct {
	bun.BaseModel `bun:"table:files,alias:f"`

	ID           string    `bun:"id,pk" json:"id"`
	Name         string    `bun:"name,notnull" json:"name"`
	OriginalName string    `bun:"original_name,notnull" json:"original_name"`
	MimeType     string    `bun:"mime_type,notnull" json:"mime_type"`
	Size         int64     `bun:"size,notnull" json:"size"`
	Path         string    `bun:"path,notnull" json:"path"`
	UploadedBy   string    `bun:"uploaded_by,notnull" json:"uploaded_by"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// Store persists file metadata.
type Store interface {
	CreateFile(ctx context.Context, f *File) error
	FilesByUser(ctx context.Context, userID string, limit int) ([]File, error)
}

// AuditSink receives upload events.
type AuditSink interface {
	Record(ctx context.Context, action, resource, resourceID, status string, details map[string]any)
}

// AllowedMimeTypes is the upload allow-list: images, documents, spreadsheets.
var AllowedMimeTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},

	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"text/plain": {},

	"application/vnd.ms-excel": {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": {},
}

const defaultMaxSize = 5 << 20

// Service validates and stores uploads.
type Service struct {
	store   Store
	audit   AuditSink
	dir     string
	maxSize int64
	now     func() time.Time
}

type nopSink struct{}

func (nopSink) Record(context.Context, string, string, string, string, map[string]any) {}

// Option configures Service.
type Option func(*Service)

// WithAuditSink routes upload events to the given sink.
func WithAuditSink(sink AuditSink) Option {
	return func(s *Service) {
		if sink != nil {
			s.audit = sink
		}
	}
}

// WithMaxSize overrides the upload size cap in bytes.
func WithMaxSize(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSize = n
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the upload service writing into dir.
func NewService(store Store, dir string, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("files store is required")
	}
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("upload directory is required")
	}
	s := &Service{store: store, audit: nopSink{}, dir: dir, maxSize: defaultMaxSize, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// MaxSize returns the upload size cap in bytes.
func (s *Service) MaxSize() int64 { return s.maxSize }

// Upload validates the payload, writes it to disk and persists metadata.
func (s *Service) Upload(ctx context.Context, userID, originalName, mimeType string, content []byte) (*File, error) {
	userID = strings.TrimSpace(userID)
	originalName = strings.TrimSpace(originalName)
	if userID == "" || originalName == "" {
		return nil, fmt.Errorf("%w: user and file name are required", ErrInvalidInput)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidInput)
	}
	if int64(len(content)) > s.maxSize {
		s.audit.Record(ctx, "file.upload", "file", "", "failure", map[string]any{
			"file_name": originalName,
			"reason":    "too large",
		})
		return nil, fmt.Errorf("%w: maximum is %d bytes", ErrTooLarge, s.maxSize)
	}
	if _, ok := AllowedMimeTypes[mimeType]; !ok {
		s.audit.Record(ctx, "file.upload", "file", "", "failure", map[string]any{
			"file_name": originalName,
			"mime_type": mimeType,
			"reason":    "type not allowed",
		})
		return nil, fmt.Errorf("%w: %s", ErrInvalidType, mimeType)
	}

	fileID := uuid.NewString()
	ext := strings.TrimPrefix(filepath.Ext(originalName), ".")
	if ext == "" {
		ext = "bin"
	}
	storedName := fmt.Sprintf("%s.%s", fileID, ext)
	storedPath := filepath.Join(s.dir, storedName)

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.WriteFile(storedPath, content, 0o644); err != nil {
		return nil, fmt.Errorf("write upload: %w", err)
	}

	f := &File{
		ID:           fileID,
		Name:         storedName,
		OriginalName: originalName,
		MimeType:     mimeType,
		Size:         int64(len(content)),
		Path:         storedPath,
		UploadedBy:   userID,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.CreateFile(ctx, f); err != nil {
		// Keep disk and metadata consistent.
		_ = os.Remove(storedPath)
		return nil, err
	}

	s.audit.Record(ctx, "file.upload", "file", f.ID, "success", map[string]any{
		"file_name": originalName,
		"file_size": f.Size,
		"mime_type": mimeType,
	})
	return f, nil
}

// ListByUser returns the user's uploads, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string, limit int) ([]File, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	return s.store.FilesByUser(ctx, userID, limit)
}
