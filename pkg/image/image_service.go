package image

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"strings"
	"time"

	"github.com/Lokhmat/ocr-backend/domain"
	"github.com/Lokhmat/ocr-backend/entities"
	"github.com/Lokhmat/ocr-backend/internal/utils/images"
	"github.com/Lokhmat/ocr-backend/internal/utils/storage"
	"github.com/Lokhmat/ocr-backend/pkg/process"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Uploads are bounded to this long edge before storage so a batch of phone
// photos cannot blow up blob sizes or provider payloads.
const maxImageEdge = 2048

type (
	// Dispatcher hands accepted images to the extraction pipeline.
	Dispatcher interface {
		Submit(job process.Job)
	}

	// NopDispatcher discards jobs. For binaries that only read records and
	// run no extraction workers.
	NopDispatcher struct{}

	ImageService interface {
		UploadImages(ctx context.Context, files []*multipart.FileHeader, workload, userID string) ([]domain.UploadImageResponse, error)
		ListImages(ctx context.Context, userID string, req domain.ListImagesRequest) (domain.PaginatedImagesResponse, error)
		GetImage(ctx context.Context, imageID string) (domain.ImageDownload, error)
		GetImageStatus(ctx context.Context, imageID string) (domain.ImageStatusResponse, error)
		UpdateImageJSON(ctx context.Context, req domain.UpdateImageJSONRequest) error
		RecoverStuck(ctx context.Context, olderThan time.Duration) (int, error)
	}

	imageService struct {
		imageRepository ImageRepository
		s3              storage.AwsS3
		dispatcher      Dispatcher
	}
)

func (NopDispatcher) Submit(process.Job) {}

func NewImageService(imageRepository ImageRepository, s3 storage.AwsS3, dispatcher Dispatcher) ImageService {
	return &imageService{
		imageRepository: imageRepository,
		s3:              s3,
		dispatcher:      dispatcher,
	}
}

func (s *imageService) UploadImages(ctx context.Context, files []*multipart.FileHeader, workload, userID string) ([]domain.UploadImageResponse, error) {
	if len(files) == 0 {
		return nil, domain.ErrNoFiles
	}
	if len(files) > domain.MaxUploadFiles {
		return nil, domain.ErrTooManyFiles
	}
	if !domain.ValidWorkload(workload) {
		return nil, domain.ErrUnknownWorkload
	}
	for _, file := range files {
		if !storage.AllowedImage(file.Filename) {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFile, file.Filename)
		}
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}

	results := make([]domain.UploadImageResponse, 0, len(files))
	for _, file := range files {
		imageID := uuid.New()
		s3Key := fmt.Sprintf("%s/%s/%s", userID, imageID, file.Filename)

		data, err := readFile(file)
		if err != nil {
			return nil, err
		}

		resized, err := images.Shrink(data, maxImageEdge)
		if err != nil {
			// Store the original bytes when the image cannot be decoded;
			// the provider gets to decide whether it can read them.
			log.Printf("image %s: resize skipped: %v", imageID, err)
			resized = data
		}

		contentType := file.Header.Get("Content-Type")
		if err := s.s3.UploadBytes(ctx, s3Key, resized, contentType); err != nil {
			return nil, err
		}

		record := &entities.Image{
			ID:       imageID,
			UserID:   userUUID,
			S3Key:    s3Key,
			Workload: workload,
			Status:   domain.StatusQueued,
		}
		if err := s.imageRepository.CreateImage(ctx, record); err != nil {
			_ = s.s3.DeleteFile(ctx, s3Key)
			return nil, err
		}

		s.dispatcher.Submit(process.Job{
			ImageID:  imageID.String(),
			S3Key:    s3Key,
			Workload: workload,
		})

		results = append(results, domain.UploadImageResponse{
			ImageID: imageID.String(),
			Status:  record.Status,
		})
	}

	return results, nil
}

func (s *imageService) ListImages(ctx context.Context, userID string, req domain.ListImagesRequest) (domain.PaginatedImagesResponse, error) {
	limit := req.Limit
	if limit == 0 {
		limit = domain.DefaultListLimit
	}
	if limit < 1 || limit > domain.MaxListLimit {
		return domain.PaginatedImagesResponse{}, domain.ErrInvalidLimit
	}

	var before *time.Time
	if req.Cursor != "" {
		parsed, err := time.Parse(time.RFC3339Nano, req.Cursor)
		if err != nil {
			return domain.PaginatedImagesResponse{}, domain.ErrInvalidCursor
		}
		before = &parsed
	}

	records, err := s.imageRepository.ListByUser(ctx, userID, before, limit)
	if err != nil {
		return domain.PaginatedImagesResponse{}, err
	}

	response := domain.PaginatedImagesResponse{
		Images: make([]domain.ImageStatusResponse, 0, len(records)),
	}
	for _, record := range records {
		response.Images = append(response.Images, toStatusResponse(record))
	}

	if len(records) > 0 {
		cursor := records[len(records)-1].CreatedAt.Format(time.RFC3339Nano)
		response.NextCursor = &cursor
	}

	return response, nil
}

func (s *imageService) GetImage(ctx context.Context, imageID string) (domain.ImageDownload, error) {
	record, err := s.imageRepository.GetImageByID(ctx, imageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ImageDownload{}, domain.ErrImageNotFound
		}
		return domain.ImageDownload{}, err
	}

	data, contentType, err := s.s3.Download(ctx, record.S3Key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return domain.ImageDownload{}, domain.ErrImageNotFound
		}
		return domain.ImageDownload{}, err
	}

	segments := strings.Split(record.S3Key, "/")
	filename := segments[len(segments)-1]

	return domain.ImageDownload{
		Filename:    filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}

func (s *imageService) GetImageStatus(ctx context.Context, imageID string) (domain.ImageStatusResponse, error) {
	record, err := s.imageRepository.GetImageByID(ctx, imageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ImageStatusResponse{}, domain.ErrImageNotFound
		}
		return domain.ImageStatusResponse{}, err
	}
	return toStatusResponse(record), nil
}

func (s *imageService) UpdateImageJSON(ctx context.Context, req domain.UpdateImageJSONRequest) error {
	if !json.Valid([]byte(req.JSONData)) {
		return domain.ErrMalformedReceipt
	}

	if _, err := s.imageRepository.GetImageByID(ctx, req.ImageID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrImageNotFound
		}
		return err
	}

	return s.imageRepository.SetResultJSON(ctx, req.ImageID, []byte(req.JSONData))
}

// RecoverStuck requeues records abandoned in_process by a previous run,
// e.g. after a crash mid-extraction. Called once at startup.
func (s *imageService) RecoverStuck(ctx context.Context, olderThan time.Duration) (int, error) {
	stuck, err := s.imageRepository.ListStuckInProcess(ctx, time.Now().Add(-olderThan))
	if err != nil {
		return 0, err
	}

	requeued := 0
	for _, record := range stuck {
		if err := s.imageRepository.RequeueImage(ctx, record.ID.String()); err != nil {
			log.Printf("image %s: requeue failed: %v", record.ID, err)
			continue
		}
		s.dispatcher.Submit(process.Job{
			ImageID:  record.ID.String(),
			S3Key:    record.S3Key,
			Workload: record.Workload,
		})
		requeued++
	}
	return requeued, nil
}

func toStatusResponse(record *entities.Image) domain.ImageStatusResponse {
	response := domain.ImageStatusResponse{
		ImageID:      record.ID.String(),
		S3Key:        record.S3Key,
		Status:       record.Status,
		StatusReason: record.StatusReason,
		CreatedAt:    record.CreatedAt,
	}
	if record.ResultJSON != "" {
		response.ResultJSON = json.RawMessage(record.ResultJSON)
	}
	return response
}

func readFile(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
