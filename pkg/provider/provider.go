package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/Lokhmat/ocr-backend/domain"
)

type (
	// Extractor converts a receipt image into a structured payload. The key
	// is the image's storage key; providers derive per-image identifiers and
	// content types from it so a retried job touches the same remote state.
	// Both variants apply the same output validation, so callers never see a
	// provider-specific result shape.
	Extractor interface {
		Extract(ctx context.Context, key string, image []byte) (*domain.ExtractedReceipt, error)
	}

	// ProviderError wraps every extraction failure: network errors,
	// non-success statuses, garbled model output, schema mismatches. The
	// reason string ends up in the image record for the user to see.
	ProviderError struct {
		Reason string
		Err    error
	}
)

func (e *ProviderError) Error() string {
	return e.Reason
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func newProviderError(err error, format string, args ...any) *ProviderError {
	reason := fmt.Sprintf(format, args...)
	if err != nil {
		reason = fmt.Sprintf("%s: %v", reason, err)
	}
	return &ProviderError{Reason: reason, Err: err}
}

// parseModelOutput strips markdown code-fence artifacts the models tend to
// wrap JSON in, then parses and validates the receipt payload.
func parseModelOutput(raw string) (*domain.ExtractedReceipt, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	receipt, err := domain.ParseReceipt([]byte(text))
	if err != nil {
		return nil, newProviderError(err, "parsing model output")
	}
	return receipt, nil
}
