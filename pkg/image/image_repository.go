package image

import (
	"context"
	"time"

	"github.com/Lokhmat/ocr-backend/domain"
	"github.com/Lokhmat/ocr-backend/entities"

	"gorm.io/gorm"
)

type (
	ImageRepository interface {
		CreateImage(ctx context.Context, image *entities.Image) error
		GetImageByID(ctx context.Context, id string) (*entities.Image, error)
		ListByUser(ctx context.Context, userID string, before *time.Time, limit int) ([]*entities.Image, error)
		SetResultJSON(ctx context.Context, imageID string, result []byte) error
		ListStuckInProcess(ctx context.Context, before time.Time) ([]*entities.Image, error)
		RequeueImage(ctx context.Context, imageID string) error

		// Pipeline status transitions. Guarded so a record never moves
		// backwards out of a terminal state.
		SetInProcess(ctx context.Context, imageID string) error
		SetFinished(ctx context.Context, imageID string, result []byte) error
		SetError(ctx context.Context, imageID string, reason string) error
	}

	imageRepository struct {
		db *gorm.DB
	}
)

func NewImageRepository(db *gorm.DB) ImageRepository {
	return &imageRepository{db: db}
}

func (r *imageRepository) CreateImage(ctx context.Context, image *entities.Image) error {
	return r.db.WithContext(ctx).Create(image).Error
}

func (r *imageRepository) GetImageByID(ctx context.Context, id string) (*entities.Image, error) {
	var image entities.Image
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&image).Error; err != nil {
		return nil, err
	}
	return &image, nil
}

func (r *imageRepository) ListByUser(ctx context.Context, userID string, before *time.Time, limit int) ([]*entities.Image, error) {
	var images []*entities.Image

	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if before != nil {
		query = query.Where("created_at < ?", *before)
	}

	if err := query.Order("created_at desc").Limit(limit).Find(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

func (r *imageRepository) SetInProcess(ctx context.Context, imageID string) error {
	return r.db.WithContext(ctx).Model(&entities.Image{}).
		Where("id = ? AND status = ?", imageID, domain.StatusQueued).
		Update("status", domain.StatusInProcess).Error
}

func (r *imageRepository) SetFinished(ctx context.Context, imageID string, result []byte) error {
	return r.db.WithContext(ctx).Model(&entities.Image{}).
		Where("id = ? AND status = ?", imageID, domain.StatusInProcess).
		Updates(map[string]interface{}{
			"status":        domain.StatusFinished,
			"status_reason": "",
			"result_json":   string(result),
		}).Error
}

// SetError admits queued as well as in_process: a record whose in_process
// checkpoint write failed is still queued when the pipeline gives up on it.
func (r *imageRepository) SetError(ctx context.Context, imageID string, reason string) error {
	return r.db.WithContext(ctx).Model(&entities.Image{}).
		Where("id = ? AND status IN ?", imageID, []string{domain.StatusQueued, domain.StatusInProcess}).
		Updates(map[string]interface{}{
			"status":        domain.StatusError,
			"status_reason": reason,
		}).Error
}

func (r *imageRepository) SetResultJSON(ctx context.Context, imageID string, result []byte) error {
	return r.db.WithContext(ctx).Model(&entities.Image{}).
		Where("id = ?", imageID).
		Update("result_json", string(result)).Error
}

func (r *imageRepository) ListStuckInProcess(ctx context.Context, before time.Time) ([]*entities.Image, error) {
	var images []*entities.Image

	if err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", domain.StatusInProcess, before).
		Find(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

func (r *imageRepository) RequeueImage(ctx context.Context, imageID string) error {
	return r.db.WithContext(ctx).Model(&entities.Image{}).
		Where("id = ? AND status = ?", imageID, domain.StatusInProcess).
		Update("status", domain.StatusQueued).Error
}
