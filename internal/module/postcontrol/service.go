package postcontrol

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/dostavo/server/internal/module/history"
)

const downloadURLTTL = 15 * time.Minute

// Service manages the postcontrol photo lifecycle.
type Service struct {
	repo     Repository
	storage  PhotoStorage
	recorder history.Recorder
	logger   *zap.Logger
}

// NewService creates the postcontrol service.
func NewService(repo Repository, storage PhotoStorage, recorder history.Recorder, logger *zap.Logger) *Service {
	return &Service{repo: repo, storage: storage, recorder: recorder, logger: logger}
}

// PhotoView is a photo plus a short-lived download link.
type PhotoView struct {
	Photo
	URL string `json:"url"`
}

// UploadPhoto stores a photo and registers it as pending review.
func (s *Service) UploadPhoto(ctx context.Context, orderID int64, courierID *int64, fileName string, body io.Reader, size int64, contentType string) (*Photo, error) {
	key := fmt.Sprintf("postcontrol/%d/%s%s", orderID, uuid.NewString(), path.Ext(fileName))

	if err := s.storage.Put(ctx, key, body, size, contentType); err != nil {
		return nil, err
	}

	photo := &Photo{
		OrderID:    orderID,
		CourierID:  courierID,
		StorageKey: key,
		FileName:   fileName,
		Size:       size,
		Resolution: ResolutionPending,
	}
	if err := s.repo.CreatePhoto(ctx, photo); err != nil {
		// The object is orphaned otherwise.
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.logger.Warn("orphaned postcontrol photo object",
				zap.String("key", key), zap.Error(delErr))
		}
		return nil, err
	}

	s.logger.Info("postcontrol photo uploaded",
		zap.Int64("order_id", orderID), zap.String("key", key))
	return photo, nil
}

// ListPhotos returns the order's photos with download links.
func (s *Service) ListPhotos(ctx context.Context, orderID int64) ([]PhotoView, error) {
	photos, err := s.repo.ListPhotosByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	views := make([]PhotoView, 0, len(photos))
	for _, p := range photos {
		url, err := s.storage.PresignDownload(ctx, p.StorageKey, downloadURLTTL)
		if err != nil {
			return nil, err
		}
		views = append(views, PhotoView{Photo: p, URL: url})
	}
	return views, nil
}

// Resolve records the review verdict on a pending photo.
func (s *Service) Resolve(ctx context.Context, photoID int64, resolution Resolution, reviewerID *int64, comment *string) (*Photo, error) {
	if resolution != ResolutionAccepted && resolution != ResolutionDeclined {
		return nil, fmt.Errorf("invalid resolution %q", resolution)
	}

	photo, err := s.repo.GetPhoto(ctx, photoID)
	if err != nil {
		return nil, err
	}
	if photo.Resolution != ResolutionPending {
		return nil, ErrAlreadyResolved
	}

	now := time.Now().UTC()
	photo.Resolution = resolution
	photo.ResolvedBy = reviewerID
	photo.ResolvedAt = &now
	photo.Comment = comment
	if err := s.repo.UpdatePhoto(ctx, photo); err != nil {
		return nil, err
	}

	entry := &history.Entry{
		InitiatorID:   reviewerID,
		InitiatorType: history.InitiatorUser,
		ModelType:     history.ModelPostControl,
		ModelID:       photo.ID,
		ActionData: datatypes.JSONMap{
			"resolution": string(resolution),
		},
		CreatedAt: now,
	}
	if err := s.recorder.RecordAudit(ctx, entry); err != nil {
		return nil, err
	}
	return photo, nil
}

// WipeOrderPhotos removes an order's photos, rows and objects both.
func (s *Service) WipeOrderPhotos(ctx context.Context, orderID int64) error {
	photos, err := s.repo.DeletePhotosByOrder(ctx, orderID)
	if err != nil {
		return err
	}
	for _, p := range photos {
		if err := s.storage.Delete(ctx, p.StorageKey); err != nil {
			s.logger.Warn("failed to delete photo object",
				zap.String("key", p.StorageKey), zap.Error(err))
		}
	}
	return nil
}
