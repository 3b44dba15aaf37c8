package scan

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/gofiber/fiber/v2/log"

	"github.com/kazuki11111/expiry-tracker/domain"
)

const (
	anthropicMaxTokens = 2048
	anthropicTimeout   = 60 * time.Second
)

// AnthropicRecognizer reads receipts with the Anthropic messages API.
type AnthropicRecognizer struct {
	apiKey string
	model  string
	client anthropic.Client
}

// NewAnthropicRecognizer builds the client; opts are appended after the
// defaults so callers can override the base URL or retry count.
func NewAnthropicRecognizer(apiKey, model string, opts ...option.RequestOption) *AnthropicRecognizer {
	base := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(anthropicTimeout),
	}
	return &AnthropicRecognizer{
		apiKey: apiKey,
		model:  model,
		client: anthropic.NewClient(append(base, opts...)...),
	}
}

func (r *AnthropicRecognizer) Recognize(ctx context.Context, image []byte, mediaType string) (domain.OcrResult, error) {
	if r.apiKey == "" {
		return domain.OcrResult{}, domain.ErrOcrNotConfigured
	}

	message, err := r.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(r.model),
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64(mediaType, base64.StdEncoding.EncodeToString(image)),
				anthropic.NewTextBlock(receiptPrompt()),
			),
		},
	})
	if err != nil {
		return domain.OcrResult{}, fmt.Errorf("anthropic messages: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			log.Debugw("receipt recognizer raw response", "text", block.Text)
			return ParseOcrResponse(block.Text)
		}
	}
	return domain.OcrResult{}, fmt.Errorf("%w: no text content", domain.ErrOcrMalformedResponse)
}
