package domain

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"time"
)

const (
	WorkloadCloud   = "cloud"
	WorkloadPremise = "premise"

	StatusQueued    = "queued"
	StatusInProcess = "in_process"
	StatusFinished  = "finished"
	StatusError     = "error"

	MaxUploadFiles   = 5
	MaxListLimit     = 100
	DefaultListLimit = 10
)

var (
	MessageSuccessUploadImages = "images uploaded successfully"
	MessageSuccessListImages   = "images retrieved successfully"
	MessageSuccessUpdateResult = "image result updated successfully"

	MessageFailedUploadImages = "failed to upload images"
	MessageFailedListImages   = "failed to retrieve images"
	MessageFailedGetImage     = "image not found"
	MessageFailedUpdateResult = "failed to update image result"

	ErrTooManyFiles    = errors.New("maximum 5 files allowed")
	ErrNoFiles         = errors.New("no files provided")
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrUnknownWorkload = errors.New("unknown workload")
	ErrInvalidCursor   = errors.New("invalid pagination cursor")
	ErrInvalidLimit    = errors.New("limit must be between 1 and 100")
	ErrImageNotFound   = errors.New("image not found")
)

// IsTerminalStatus reports whether the pipeline will no longer mutate a
// record in the given status.
func IsTerminalStatus(status string) bool {
	return status == StatusFinished || status == StatusError
}

func ValidWorkload(workload string) bool {
	return workload == WorkloadCloud || workload == WorkloadPremise
}

type (
	UploadImagesRequest struct {
		Workload string                  `form:"workload"`
		Files    []*multipart.FileHeader `form:"files"`
	}

	UploadImageResponse struct {
		ImageID string `json:"image_id"`
		Status  string `json:"status"`
	}

	ListImagesRequest struct {
		Cursor string `json:"cursor" query:"cursor"`
		Limit  int    `json:"limit" query:"limit" validate:"omitempty,min=1,max=100"`
	}

	ImageStatusResponse struct {
		ImageID      string          `json:"image_id"`
		S3Key        string          `json:"s3_key"`
		Status       string          `json:"status"`
		StatusReason string          `json:"status_reason,omitempty"`
		ResultJSON   json.RawMessage `json:"result_json,omitempty"`
		CreatedAt    time.Time       `json:"created_at"`
	}

	PaginatedImagesResponse struct {
		Images     []ImageStatusResponse `json:"images"`
		NextCursor *string               `json:"next_cursor"`
	}

	UpdateImageJSONRequest struct {
		ImageID  string `json:"image_id" validate:"required,uuid"`
		JSONData string `json:"json_data" validate:"required"`
	}

	// ImageDownload carries a blob back to the handler for streaming.
	ImageDownload struct {
		Filename    string
		ContentType string
		Data        []byte
	}
)
