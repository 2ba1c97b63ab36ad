package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Lokhmat/ocr-backend/domain"
	"github.com/Lokhmat/ocr-backend/internal/utils/storage"
)

// CloudProvider talks to a hosted multimodal chat-completions endpoint
// (OpenRouter-compatible). One synchronous call per image: the extraction
// prompt plus the base64-encoded image, the JSON answer parsed out of the
// first choice.
type CloudProvider struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

type (
	chatCompletionRequest struct {
		Model    string        `json:"model"`
		Messages []chatMessage `json:"messages"`
	}

	chatMessage struct {
		Role    string        `json:"role"`
		Content []contentPart `json:"content"`
	}

	contentPart struct {
		Type     string        `json:"type"`
		Text     string        `json:"text,omitempty"`
		ImageURL *contentImage `json:"image_url,omitempty"`
	}

	contentImage struct {
		URL string `json:"url"`
	}

	chatCompletionResponse struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
)

func NewCloudProvider(baseURL, apiKey, model string, httpClient *http.Client) *CloudProvider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &CloudProvider{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: httpClient,
	}
}

func (p *CloudProvider) Extract(ctx context.Context, key string, image []byte) (*domain.ExtractedReceipt, error) {
	encoded := base64.StdEncoding.EncodeToString(image)

	payload := chatCompletionRequest{
		Model: p.model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: extractionPrompt},
					{
						Type: "image_url",
						ImageURL: &contentImage{
							URL: fmt.Sprintf("data:%s;base64,%s", storage.ContentTypeForFilename(key), encoded),
						},
					},
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, newProviderError(err, "encoding completion request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, newProviderError(err, "building completion request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, newProviderError(err, "calling cloud model")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, newProviderError(nil, "cloud model error: %s - %s", resp.Status, string(respBody))
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, newProviderError(err, "decoding completion response")
	}
	if len(completion.Choices) == 0 {
		return nil, newProviderError(nil, "cloud model returned no choices")
	}

	return parseModelOutput(completion.Choices[0].Message.Content)
}
