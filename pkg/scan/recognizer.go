package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kazuki11111/expiry-tracker/domain"
	"github.com/kazuki11111/expiry-tracker/pkg/expiry"
)

// Recognizer turns a receipt image into store name and line items.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, mediaType string) (domain.OcrResult, error)
}

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

type rawOcrResult struct {
	StoreName *string `json:"storeName"`
	Products  *[]struct {
		Name     string          `json:"name"`
		Category json.RawMessage `json:"category"`
		Quantity json.RawMessage `json:"quantity"`
	} `json:"products"`
}

// ParseOcrResponse extracts the result object from recognizer text output.
// Markdown fences and surrounding prose are tolerated; a missing products
// array is not.
func ParseOcrResponse(text string) (domain.OcrResult, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
	}
	if match := jsonObjectPattern.FindString(text); match != "" {
		text = match
	}

	var raw rawOcrResult
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return domain.OcrResult{}, fmt.Errorf("%w: %v", domain.ErrOcrMalformedResponse, err)
	}
	if raw.Products == nil {
		return domain.OcrResult{}, fmt.Errorf("%w: products missing", domain.ErrOcrMalformedResponse)
	}

	result := domain.OcrResult{Products: make([]domain.OcrProduct, 0, len(*raw.Products))}
	if raw.StoreName != nil {
		if name := strings.TrimSpace(*raw.StoreName); name != "" && name != "null" {
			result.StoreName = &name
		}
	}
	for _, p := range *raw.Products {
		result.Products = append(result.Products, domain.OcrProduct{
			Name:     strings.TrimSpace(p.Name),
			Category: rawString(p.Category),
			Quantity: rawQuantity(p.Quantity),
		})
	}
	return result, nil
}

func rawString(msg json.RawMessage) string {
	var s string
	if err := json.Unmarshal(msg, &s); err != nil {
		return ""
	}
	return s
}

// maxQuantity caps recognizer counts before the float conversion.
const maxQuantity = 9999

// rawQuantity accepts numbers and numeric strings; anything else, or a
// non-positive count, reads as 1.
func rawQuantity(msg json.RawMessage) int {
	var f float64
	if err := json.Unmarshal(msg, &f); err != nil {
		n, convErr := strconv.Atoi(strings.TrimSpace(rawString(msg)))
		if convErr != nil {
			return 1
		}
		f = float64(n)
	}
	if f < 1 {
		return 1
	}
	if f > maxQuantity {
		return maxQuantity
	}
	return int(f)
}

// receiptPrompt asks for the result object with categories restricted to the
// known enum.
func receiptPrompt() string {
	var b strings.Builder
	b.WriteString("このレシート画像から購入した商品を読み取ってください。\n\n")
	b.WriteString("以下のJSON形式で返してください（JSON以外のテキストは含めないでください）:\n\n")
	b.WriteString(`{
  "storeName": "店舗名（読み取れない場合はnull）",
  "products": [
    {
      "name": "商品名",
      "category": "カテゴリ",
      "quantity": 数量
    }
  ]
}`)
	b.WriteString("\n\ncategoryは以下のいずれかを使用してください:\n")
	for _, c := range expiry.Categories() {
		fmt.Fprintf(&b, "- %s（%s）\n", c, expiry.Label(c))
	}
	b.WriteString("\n商品名はレシートに記載されている名称をそのまま使い、数量が読み取れない場合は1としてください。")
	return b.String()
}
