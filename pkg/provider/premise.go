package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Lokhmat/ocr-backend/domain"
	"github.com/Lokhmat/ocr-backend/internal/utils/storage"
)

// Vision inference on the platform is slow, so the predict call gets a
// deliberately generous timeout while the file handshake keeps a short one.
const (
	premisePredictTimeout = 5 * time.Minute
	premiseUploadTimeout  = 60 * time.Second
)

// PremiseProvider drives the on-prem platform's three-step protocol:
// obtain a bearer token, upload the image to a per-user file path, then
// submit a prediction request referencing the uploaded file. Any step
// failing aborts the extraction with that step's detail.
type PremiseProvider struct {
	baseURL    string
	tokens     *TokenCache
	httpClient *http.Client
}

type (
	fileInfoResponse struct {
		PresignedPutURL string `json:"presigned_put_url"`
	}

	predictRequest struct {
		Inputs       []predictInput  `json:"inputs"`
		OutputFields []predictOutput `json:"output_fields"`
	}

	predictInput struct {
		Name        string `json:"name"`
		Data        string `json:"data"`
		Datatype    string `json:"datatype"`
		ContentType string `json:"content_type,omitempty"`
		Shape       int    `json:"shape"`
	}

	predictOutput struct {
		Name     string `json:"name"`
		Datatype string `json:"datatype"`
	}

	predictResponse struct {
		Outputs []struct {
			Data string `json:"data"`
		} `json:"outputs"`
	}
)

func NewPremiseProvider(baseURL string, tokens *TokenCache) *PremiseProvider {
	return &PremiseProvider{
		baseURL:    baseURL,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: premisePredictTimeout},
	}
}

func (p *PremiseProvider) Extract(ctx context.Context, key string, image []byte) (*domain.ExtractedReceipt, error) {
	token, err := p.tokens.Get(ctx)
	if err != nil {
		return nil, err
	}

	// The platform file path is derived from the storage key so a retried
	// job hits the same path and the already-exists fallback applies.
	fileKey := strings.ReplaceAll(key, "/", "_")
	if err := p.uploadImage(ctx, token, fileKey, image); err != nil {
		return nil, err
	}

	return p.predict(ctx, token, fileKey)
}

// uploadImage registers the file on the platform and pushes the bytes to the
// returned presigned URL. The platform answers 400 when the path already
// exists; a GET against the same path recovers the file info in that case.
func (p *PremiseProvider) uploadImage(ctx context.Context, token, fileKey string, image []byte) error {
	uploadCtx, cancel := context.WithTimeout(ctx, premiseUploadTimeout)
	defer cancel()

	fileURL := fmt.Sprintf("%s/files/users/%s", p.baseURL, fileKey)

	resp, err := p.authorizedRequest(uploadCtx, http.MethodPut, fileURL, token, nil)
	if err != nil {
		return newProviderError(err, "registering file on platform")
	}

	if resp.StatusCode == http.StatusBadRequest {
		resp.Body.Close()
		resp, err = p.authorizedRequest(uploadCtx, http.MethodGet, fileURL, token, nil)
		if err != nil {
			return newProviderError(err, "fetching existing file info")
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return newProviderError(nil, "failed to get presigned URL: %s - %s", resp.Status, string(body))
	}

	var info fileInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return newProviderError(err, "decoding file info")
	}
	if info.PresignedPutURL == "" {
		return newProviderError(nil, "file info missing presigned_put_url")
	}

	putReq, err := http.NewRequestWithContext(uploadCtx, http.MethodPut, info.PresignedPutURL, bytes.NewReader(image))
	if err != nil {
		return newProviderError(err, "building file upload request")
	}

	putResp, err := p.httpClient.Do(putReq)
	if err != nil {
		return newProviderError(err, "uploading file to platform storage")
	}
	defer putResp.Body.Close()

	if putResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(putResp.Body)
		return newProviderError(nil, "failed to upload file: %s - %s", putResp.Status, string(body))
	}
	return nil
}

func (p *PremiseProvider) predict(ctx context.Context, token, fileKey string) (*domain.ExtractedReceipt, error) {
	predictCtx, cancel := context.WithTimeout(ctx, premisePredictTimeout)
	defer cancel()

	payload := predictRequest{
		Inputs: []predictInput{
			{
				Name:     "prompt",
				Data:     extractionPrompt,
				Datatype: "str",
				Shape:    len(extractionPrompt),
			},
			{
				Name:        "image",
				Data:        fileKey,
				Datatype:    "FILE",
				ContentType: storage.ContentTypeForFilename(fileKey),
				Shape:       1,
			},
		},
		OutputFields: []predictOutput{
			{Name: "echo", Datatype: "str"},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, newProviderError(err, "encoding predict request")
	}

	resp, err := p.authorizedRequest(predictCtx, http.MethodPost, p.baseURL+"/qwen/predict", token, bytes.NewReader(body))
	if err != nil {
		return nil, newProviderError(err, "calling predict endpoint")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, newProviderError(nil, "predict failed: %s - %s", resp.Status, string(respBody))
	}

	var prediction predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&prediction); err != nil {
		return nil, newProviderError(err, "decoding predict response")
	}
	if len(prediction.Outputs) == 0 {
		return nil, newProviderError(nil, "predict response has no outputs")
	}

	return parseModelOutput(prediction.Outputs[0].Data)
}

func (p *PremiseProvider) authorizedRequest(ctx context.Context, method, url, token string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return p.httpClient.Do(req)
}
