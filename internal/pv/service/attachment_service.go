package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/Chihaouimed/PV/internal/pv/entity"
	"github.com/Chihaouimed/PV/internal/pv/repository"
	"github.com/Chihaouimed/PV/internal/shared/storage"
	"go.uber.org/zap"
)

var ErrStorageDisabled = errors.New("attachment storage not configured")

// AttachmentService files attached to records (interventions)
type AttachmentService struct {
	repo   *repository.AttachmentRepository
	store  storage.Store
	logger *zap.Logger
}

func NewAttachmentService(repo *repository.AttachmentRepository, store storage.Store, logger *zap.Logger) *AttachmentService {
	return &AttachmentService{repo: repo, store: store, logger: logger}
}

// UploadInput one uploaded file
type UploadInput struct {
	OwnerType   string
	OwnerID     string
	FileName    string
	ContentType string
	Size        int64
	Content     io.Reader
	UploadedBy  string
}

func (s *AttachmentService) Upload(ctx context.Context, in *UploadInput) (*entity.Attachment, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	name := filepath.Base(strings.TrimSpace(in.FileName))
	if name == "" || name == "." || name == "/" {
		return nil, invalid("file name is required")
	}

	id := newID()
	now := time.Now()
	key := fmt.Sprintf("%ss/%s/%s/%s%s", in.OwnerType, in.OwnerID, now.Format("2006/01"), id, strings.ToLower(filepath.Ext(name)))
	if err := s.store.Put(ctx, key, in.Content, in.Size, in.ContentType); err != nil {
		return nil, fmt.Errorf("store attachment: %w", err)
	}

	att := &entity.Attachment{
		ID:          id,
		OwnerType:   in.OwnerType,
		OwnerID:     in.OwnerID,
		FileName:    name,
		ContentType: in.ContentType,
		Size:        in.Size,
		ObjectKey:   key,
		Storage:     s.store.Backend(),
		UploadedBy:  in.UploadedBy,
	}
	if err := s.repo.Create(ctx, att); err != nil {
		if rmErr := s.store.Remove(ctx, key); rmErr != nil {
			s.logger.Warn("orphan attachment object", zap.String("key", key), zap.Error(rmErr))
		}
		return nil, fmt.Errorf("create attachment: %w", err)
	}
	return att, nil
}

func (s *AttachmentService) List(ctx context.Context, ownerType, ownerID string) ([]entity.Attachment, error) {
	return s.repo.ListByOwner(ctx, ownerType, ownerID)
}

// Open returns the attachment metadata and a reader of its content; the
// caller closes the reader.
func (s *AttachmentService) Open(ctx context.Context, ownerType, ownerID, id string) (*entity.Attachment, io.ReadCloser, error) {
	att, err := s.find(ctx, ownerType, ownerID, id)
	if err != nil {
		return nil, nil, err
	}
	if s.store == nil {
		return nil, nil, ErrStorageDisabled
	}
	rc, err := s.store.Get(ctx, att.ObjectKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, fmt.Errorf("attachment content: %w", repository.ErrNotFound)
		}
		return nil, nil, err
	}
	return att, rc, nil
}

func (s *AttachmentService) Delete(ctx context.Context, ownerType, ownerID, id string) error {
	att, err := s.find(ctx, ownerType, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.store != nil {
		if err := s.store.Remove(ctx, att.ObjectKey); err != nil {
			s.logger.Warn("remove attachment object failed", zap.String("key", att.ObjectKey), zap.Error(err))
		}
	}
	return nil
}

func (s *AttachmentService) find(ctx context.Context, ownerType, ownerID, id string) (*entity.Attachment, error) {
	att, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if att.OwnerType != ownerType || att.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	return att, nil
}
