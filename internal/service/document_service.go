package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/youth-sports-api/internal/models"
	appErrors "github.com/noah-isme/youth-sports-api/pkg/errors"
	"github.com/noah-isme/youth-sports-api/pkg/storage"
)

// Document kinds accepted on upload.
var documentKinds = map[string]struct{}{
	"waiver":  {},
	"medical": {},
	"photo":   {},
	"other":   {},
}

type objectStore interface {
	Put(ctx context.Context, obj storage.Object) error
	PresignGet(ctx context.Context, key, filename string) (string, error)
}

type documentRepository interface {
	Create(ctx context.Context, doc *models.StudentDocument) error
	ListByStudent(ctx context.Context, studentID string) ([]models.StudentDocument, error)
}

type studentFinder interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// Actor identifies the caller for ownership checks.
type Actor struct {
	UserID   string
	ParentID string
	Role     models.UserRole
}

// DocumentUpload is one multipart file.
type DocumentUpload struct {
	Kind        string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// DocumentConfig bounds uploads.
type DocumentConfig struct {
	MaxUploadBytes int64
	AllowedMIMEs   []string
}

// DocumentService stores student paperwork in object storage.
type DocumentService struct {
	store    objectStore
	repo     documentRepository
	students studentFinder
	logger   *zap.Logger
	maxBytes int64
	allowed  map[string]struct{}
}

// NewDocumentService constructs a DocumentService. A nil store answers 503.
func NewDocumentService(store objectStore, repo documentRepository, students studentFinder, logger *zap.Logger, cfg DocumentConfig) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{"application/pdf", "image/jpeg", "image/png"}
	}
	allowed := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, m := range cfg.AllowedMIMEs {
		allowed[strings.ToLower(strings.TrimSpace(m))] = struct{}{}
	}
	return &DocumentService{store: store, repo: repo, students: students, logger: logger, maxBytes: cfg.MaxUploadBytes, allowed: allowed}
}

// MaxUploadBytes is the size cap applied to request bodies.
func (s *DocumentService) MaxUploadBytes() int64 {
	return s.maxBytes
}

// Upload stores a file for a student the actor may access.
func (s *DocumentService) Upload(ctx context.Context, actor Actor, studentID string, upload DocumentUpload) (*models.StudentDocument, error) {
	if s.store == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "document storage is not configured")
	}
	if err := s.authorize(ctx, actor, studentID); err != nil {
		return nil, err
	}

	kind := strings.ToLower(strings.TrimSpace(upload.Kind))
	if kind == "" {
		kind = "other"
	}
	if _, ok := documentKinds[kind]; !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported document kind")
	}
	if upload.Size <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is empty")
	}
	if upload.Size > s.maxBytes {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds %d bytes", s.maxBytes))
	}
	contentType := normaliseMIME(upload.ContentType)
	if _, ok := s.allowed[contentType]; !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file type is not allowed")
	}

	filename := path.Base(strings.ReplaceAll(upload.Filename, "\\", "/"))
	if filename == "." || filename == "/" {
		filename = "document"
	}
	doc := &models.StudentDocument{
		ID:          uuid.NewString(),
		StudentID:   studentID,
		Kind:        kind,
		Filename:    filename,
		ContentType: contentType,
		SizeBytes:   upload.Size,
	}
	doc.ObjectKey = fmt.Sprintf("students/%s/%s-%s", studentID, doc.ID, sanitizeFilename(filename))

	if err := s.store.Put(ctx, storage.Object{Key: doc.ObjectKey, ContentType: contentType, Size: upload.Size, Body: upload.Body}); err != nil {
		s.logger.Error("document upload failed", zap.String("student_id", studentID), zap.Error(err))
		return nil, appErrors.Classify(err, "failed to store document")
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record document")
	}
	if url, err := s.store.PresignGet(ctx, doc.ObjectKey, doc.Filename); err == nil {
		doc.DownloadURL = url
	}
	s.logger.Info("document uploaded", zap.String("student_id", studentID), zap.String("document_id", doc.ID), zap.String("kind", kind))
	return doc, nil
}

// List returns a student's documents with presigned download links.
func (s *DocumentService) List(ctx context.Context, actor Actor, studentID string) ([]models.StudentDocument, error) {
	if s.store == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "document storage is not configured")
	}
	if err := s.authorize(ctx, actor, studentID); err != nil {
		return nil, err
	}
	docs, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}
	for i := range docs {
		url, err := s.store.PresignGet(ctx, docs[i].ObjectKey, docs[i].Filename)
		if err != nil {
			return nil, appErrors.Classify(err, "failed to sign download link")
		}
		docs[i].DownloadURL = url
	}
	return nonNil(docs), nil
}

func (s *DocumentService) authorize(ctx context.Context, actor Actor, studentID string) error {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Classify(err, "failed to load student")
	}
	if actor.Role == models.RoleAdmin {
		return nil
	}
	if actor.ParentID == "" || actor.ParentID != student.ParentID {
		return appErrors.Clone(appErrors.ErrForbidden, "student belongs to another account")
	}
	return nil
}

func normaliseMIME(raw string) string {
	mediaType, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(raw))
	}
	return mediaType
}
