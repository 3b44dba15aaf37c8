package scan

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kazuki11111/expiry-tracker/domain"
)

// ProxyRecognizer forwards images to another installation's /api/ocr.
type ProxyRecognizer struct {
	url    string
	client *http.Client
}

func NewProxyRecognizer(url string) *ProxyRecognizer {
	return &ProxyRecognizer{url: url, client: &http.Client{Timeout: 60 * time.Second}}
}

func (r *ProxyRecognizer) Recognize(ctx context.Context, image []byte, mediaType string) (domain.OcrResult, error) {
	body, err := json.Marshal(domain.OcrRequest{
		Image:     base64.StdEncoding.EncodeToString(image),
		MediaType: mediaType,
	})
	if err != nil {
		return domain.OcrResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return domain.OcrResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return domain.OcrResult{}, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.OcrResult{}, err
	}

	if resp.StatusCode != http.StatusOK {
		var failure struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(payload, &failure) == nil && failure.Message != "" {
			return domain.OcrResult{}, fmt.Errorf("ocr proxy: %s", failure.Message)
		}
		return domain.OcrResult{}, fmt.Errorf("ocr proxy: %s", resp.Status)
	}

	return ParseOcrResponse(string(payload))
}
