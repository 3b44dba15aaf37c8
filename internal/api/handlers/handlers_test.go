package handlers_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/suite"

	"github.com/kazuki11111/expiry-tracker/domain"
	"github.com/kazuki11111/expiry-tracker/internal/api/handlers"
	"github.com/kazuki11111/expiry-tracker/internal/api/routes"
	"github.com/kazuki11111/expiry-tracker/internal/middleware"
	"github.com/kazuki11111/expiry-tracker/internal/testutil"
	"github.com/kazuki11111/expiry-tracker/internal/utils"
	"github.com/kazuki11111/expiry-tracker/internal/utils/clock"
	"github.com/kazuki11111/expiry-tracker/pkg/changefeed"
	"github.com/kazuki11111/expiry-tracker/pkg/memo"
	"github.com/kazuki11111/expiry-tracker/pkg/product"
	"github.com/kazuki11111/expiry-tracker/pkg/receipt"
	"github.com/kazuki11111/expiry-tracker/pkg/scan"
	"github.com/kazuki11111/expiry-tracker/pkg/settings"
)

var jpegBytes = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 0x4a, 0x46, 0x49, 0x46, 0x00}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type fakeRecognizer struct {
	result    domain.OcrResult
	err       error
	mediaType string
}

func (f *fakeRecognizer) Recognize(_ context.Context, _ []byte, mediaType string) (domain.OcrResult, error) {
	f.mediaType = mediaType
	return f.result, f.err
}

type fakeRunner struct {
	report domain.PassReport
	calls  int
}

func (f *fakeRunner) RunOnce(context.Context) (domain.PassReport, error) {
	f.calls++
	return f.report, nil
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type HandlerTestSuite struct {
	suite.Suite
	app        *fiber.App
	recognizer *fakeRecognizer
	runner     *fakeRunner
}

func (s *HandlerTestSuite) SetupTest() {
	utils.InitValidator()
	db := testutil.NewTestDB(s.T())
	clk := clock.NewMockClock(time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC))
	hub := changefeed.NewHub()

	s.recognizer = &fakeRecognizer{}
	s.runner = &fakeRunner{}

	productService := product.NewProductService(product.NewProductRepository(db), hub, clk, time.UTC)
	receiptService := receipt.NewReceiptService(receipt.NewReceiptRepository(db), nil, hub, clk)
	settingsService := settings.NewSettingsService(settings.NewSettingsRepository(db), hub)
	memoService := memo.NewMemoService(memo.NewMemoRepository(db), hub, clk)
	scanService := scan.NewScanService(s.recognizer, scan.NewSessionStore(time.Hour, clk), productService, receiptService)

	s.app = fiber.New()
	cfg := routes.Config{
		App:                 s.app,
		ProductHandler:      handlers.NewProductHandler(productService, hub, utils.Validate),
		ScanHandler:         handlers.NewScanHandler(scanService, utils.Validate),
		SettingsHandler:     handlers.NewSettingsHandler(settingsService, utils.Validate),
		MemoHandler:         handlers.NewMemoHandler(memoService, hub),
		NotificationHandler: handlers.NewNotificationHandler(s.runner),
		Middleware:          middleware.NewMiddleware(),
	}
	cfg.Setup()
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

func (s *HandlerTestSuite) do(method, path string, body interface{}) (int, envelope) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	return s.send(req)
}

func (s *HandlerTestSuite) send(req *http.Request) (int, envelope) {
	resp, err := s.app.Test(req, -1)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	if len(raw) > 0 {
		s.Require().NoError(json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func (s *HandlerTestSuite) decode(env envelope, v interface{}) {
	s.Require().NoError(json.Unmarshal(env.Data, v))
}

func (s *HandlerTestSuite) addProduct(name, category, purchaseDate string) domain.ProductResponse {
	code, env := s.do(http.MethodPost, "/api/v1/products", map[string]interface{}{
		"name":          name,
		"category":      category,
		"purchase_date": purchaseDate,
	})
	s.Require().Equal(http.StatusCreated, code, env.Error)
	var p domain.ProductResponse
	s.decode(env, &p)
	return p
}

func (s *HandlerTestSuite) TestPing() {
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	resp, err := s.app.Test(req, -1)
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *HandlerTestSuite) TestGetCategories() {
	code, env := s.do(http.MethodGet, "/api/v1/categories", nil)
	s.Require().Equal(http.StatusOK, code)

	var categories []domain.CategoryResponse
	s.decode(env, &categories)
	s.Len(categories, 28)
	s.Equal("dairy", categories[0].Key)
	s.Equal("乳製品", categories[0].Label)
	s.Equal(10, categories[0].ShelfLifeDay)
}

func (s *HandlerTestSuite) TestAddProduct_EstimatesExpiry() {
	p := s.addProduct("牛乳", "dairy", "2024-01-08")

	s.Equal("2024-01-18", p.ExpiryDate)
	s.True(p.IsExpiryEstimated)
	s.Equal(8, p.DaysLeft)
}

func (s *HandlerTestSuite) TestAddProduct_RejectsInvalidInput() {
	code, env := s.do(http.MethodPost, "/api/v1/products", map[string]interface{}{
		"name":     "謎の食品",
		"category": "unknown",
	})
	s.Equal(http.StatusBadRequest, code)
	s.Equal(domain.StatusError, env.Status)

	code, _ = s.do(http.MethodPost, "/api/v1/products", map[string]interface{}{
		"name":          "牛乳",
		"category":      "dairy",
		"purchase_date": "2024/01/08",
	})
	s.Equal(http.StatusBadRequest, code)
}

func (s *HandlerTestSuite) TestGetProduct_NotFoundAndBadID() {
	code, env := s.do(http.MethodGet, "/api/v1/products/999", nil)
	s.Equal(http.StatusNotFound, code)
	s.Equal(domain.ErrProductNotFound.Error(), env.Error)

	code, _ = s.do(http.MethodGet, "/api/v1/products/abc", nil)
	s.Equal(http.StatusBadRequest, code)
}

func (s *HandlerTestSuite) TestGetProducts_GroupsByDateAndCategory() {
	s.addProduct("牛乳", "dairy", "2024-01-08")
	s.addProduct("ヨーグルト", "dairy", "2024-01-09")
	s.addProduct("キャベツ", "vegetable_leaf", "2024-01-09")

	code, env := s.do(http.MethodGet, "/api/v1/products", nil)
	s.Require().Equal(http.StatusOK, code)
	var byDate domain.ProductListResponse
	s.decode(env, &byDate)
	s.Equal(3, byDate.Total)
	s.Require().Len(byDate.Groups, 2)
	s.Equal("2024-01-09", byDate.Groups[0].Key)

	code, env = s.do(http.MethodGet, "/api/v1/products?group=category&collapsed=cat-dairy", nil)
	s.Require().Equal(http.StatusOK, code)
	var byCategory domain.ProductListResponse
	s.decode(env, &byCategory)
	s.Require().Len(byCategory.Groups, 2)
	for _, g := range byCategory.Groups {
		s.Equal(g.Key == "cat-dairy", g.Collapsed, g.Key)
	}
}

func (s *HandlerTestSuite) TestToggleConsumed_HidesFromDefaultList() {
	p := s.addProduct("豆腐", "tofu", "2024-01-10")

	code, env := s.do(http.MethodPost, "/api/v1/products/"+itoa(p.ID)+"/toggle-consumed", nil)
	s.Require().Equal(http.StatusOK, code)
	var toggled domain.ToggleConsumedResponse
	s.decode(env, &toggled)
	s.True(toggled.Consumed)

	_, env = s.do(http.MethodGet, "/api/v1/products", nil)
	var active domain.ProductListResponse
	s.decode(env, &active)
	s.Equal(0, active.Total)

	_, env = s.do(http.MethodGet, "/api/v1/products?include_consumed=true", nil)
	var all domain.ProductListResponse
	s.decode(env, &all)
	s.Equal(1, all.Total)
}

func (s *HandlerTestSuite) TestUpdateAndDeleteProduct() {
	p := s.addProduct("鶏もも肉", "meat", "2024-01-10")

	code, env := s.do(http.MethodPut, "/api/v1/products/"+itoa(p.ID), map[string]interface{}{
		"expiry_date": "2024-01-13",
		"quantity":    2,
	})
	s.Require().Equal(http.StatusOK, code, env.Error)
	var updated domain.ProductResponse
	s.decode(env, &updated)
	s.Equal("2024-01-13", updated.ExpiryDate)
	s.False(updated.IsExpiryEstimated)
	s.Equal(2, updated.Quantity)

	code, _ = s.do(http.MethodDelete, "/api/v1/products/"+itoa(p.ID), nil)
	s.Equal(http.StatusOK, code)
	code, _ = s.do(http.MethodGet, "/api/v1/products/"+itoa(p.ID), nil)
	s.Equal(http.StatusNotFound, code)
}

func (s *HandlerTestSuite) TestDeleteByPurchaseDate() {
	s.addProduct("牛乳", "dairy", "2024-01-08")
	s.addProduct("卵", "egg", "2024-01-08")
	s.addProduct("パン", "bread", "2024-01-09")

	code, env := s.do(http.MethodDelete, "/api/v1/products/purchase-date/2024-01-08", nil)
	s.Require().Equal(http.StatusOK, code)
	var res domain.DeleteByPurchaseDateResponse
	s.decode(env, &res)
	s.Equal(int64(2), res.Deleted)

	code, _ = s.do(http.MethodDelete, "/api/v1/products/purchase-date/yesterday", nil)
	s.Equal(http.StatusBadRequest, code)
}

func (s *HandlerTestSuite) TestScanFlow_StartEditCommit() {
	store := "スーパー山田"
	s.recognizer.result = domain.OcrResult{
		StoreName: &store,
		Products: []domain.OcrProduct{
			{Name: "牛乳", Category: "dairy", Quantity: 1},
			{Name: "キャベツ", Category: "vegetable_leaf", Quantity: 1},
		},
	}

	code, env := s.do(http.MethodPost, "/api/v1/scans", map[string]interface{}{
		"image":         base64.StdEncoding.EncodeToString(jpegBytes),
		"purchase_date": "2024-01-09",
	})
	s.Require().Equal(http.StatusCreated, code, env.Error)
	var session domain.ScanSessionResponse
	s.decode(env, &session)
	s.Equal(store, session.StoreName)
	s.Require().Len(session.Items, 2)
	s.Equal("2024-01-19", session.Items[0].ExpiryDate)

	code, env = s.do(http.MethodPut, "/api/v1/scans/"+session.ID+"/items/1", map[string]interface{}{
		"category": "vegetable_root",
	})
	s.Require().Equal(http.StatusOK, code, env.Error)
	s.decode(env, &session)
	s.Equal("2024-01-23", session.Items[1].ExpiryDate)

	code, env = s.do(http.MethodPost, "/api/v1/scans/"+session.ID+"/commit", nil)
	s.Require().Equal(http.StatusCreated, code, env.Error)
	var committed domain.CommitScanResponse
	s.decode(env, &committed)
	s.Len(committed.ProductIDs, 2)
	s.NotNil(committed.ReceiptID)

	code, _ = s.do(http.MethodGet, "/api/v1/scans/"+session.ID, nil)
	s.Equal(http.StatusNotFound, code)

	_, env = s.do(http.MethodGet, "/api/v1/products", nil)
	var list domain.ProductListResponse
	s.decode(env, &list)
	s.Equal(2, list.Total)
}

func (s *HandlerTestSuite) TestStartScan_Multipart() {
	s.recognizer.result = domain.OcrResult{Products: []domain.OcrProduct{{Name: "納豆", Category: "natto", Quantity: 3}}}

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="receipt_image"; filename="receipt.jpg"`)
	header.Set("Content-Type", "image/jpeg")
	part, err := w.CreatePart(header)
	s.Require().NoError(err)
	_, err = part.Write(jpegBytes)
	s.Require().NoError(err)
	s.Require().NoError(w.WriteField("purchase_date", "2024-01-10"))
	s.Require().NoError(w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/scans", body)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	code, env := s.send(req)
	s.Require().Equal(http.StatusCreated, code, env.Error)

	var session domain.ScanSessionResponse
	s.decode(env, &session)
	s.Require().Len(session.Items, 1)
	s.Equal(3, session.Items[0].Quantity)
	s.Equal("2024-01-17", session.Items[0].ExpiryDate)
}

func (s *HandlerTestSuite) TestStartScan_MultipartOctetStreamIsSniffed() {
	s.recognizer.result = domain.OcrResult{Products: []domain.OcrProduct{{Name: "卵", Category: "egg", Quantity: 1}}}

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="receipt_image"; filename="receipt"`)
	header.Set("Content-Type", "application/octet-stream")
	part, err := w.CreatePart(header)
	s.Require().NoError(err)
	_, err = part.Write(pngBytes)
	s.Require().NoError(err)
	s.Require().NoError(w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/scans", body)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	code, env := s.send(req)
	s.Require().Equal(http.StatusCreated, code, env.Error)
	s.Equal("image/png", s.recognizer.mediaType)
}

func (s *HandlerTestSuite) TestStartScan_RecognizerFailureIsBadGateway() {
	s.recognizer.err = errors.New("upstream timeout")

	code, env := s.do(http.MethodPost, "/api/v1/scans", map[string]interface{}{
		"image": base64.StdEncoding.EncodeToString(jpegBytes),
	})
	s.Equal(http.StatusBadGateway, code)
	s.Contains(env.Error, "upstream timeout")
}

func (s *HandlerTestSuite) TestScanSession_NotFound() {
	code, _ := s.do(http.MethodGet, "/api/v1/scans/missing", nil)
	s.Equal(http.StatusNotFound, code)

	code, _ = s.do(http.MethodDelete, "/api/v1/scans/missing", nil)
	s.Equal(http.StatusNotFound, code)
}

func (s *HandlerTestSuite) TestRecognize_RawResponses() {
	req := httptest.NewRequest(http.MethodPost, "/api/ocr", bytes.NewReader([]byte(`{}`)))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := s.app.Test(req, -1)
	s.Require().NoError(err)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	var msg map[string]string
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&msg))
	s.Equal(domain.MessageMissingImage, msg["message"])

	s.recognizer.result = domain.OcrResult{Products: []domain.OcrProduct{{Name: "卵", Category: "egg", Quantity: 1}}}
	payload, _ := json.Marshal(domain.OcrRequest{Image: base64.StdEncoding.EncodeToString(jpegBytes), MediaType: "image/jpeg"})
	req = httptest.NewRequest(http.MethodPost, "/api/ocr", bytes.NewReader(payload))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err = s.app.Test(req, -1)
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)
	var result domain.OcrResult
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&result))
	s.Nil(result.StoreName)
	s.Require().Len(result.Products, 1)
	s.Equal("egg", result.Products[0].Category)

	s.recognizer.err = errors.New("rate limited")
	req = httptest.NewRequest(http.MethodPost, "/api/ocr", bytes.NewReader(payload))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err = s.app.Test(req, -1)
	s.Require().NoError(err)
	s.Equal(http.StatusInternalServerError, resp.StatusCode)
	msg = map[string]string{}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&msg))
	s.Contains(msg["message"], "rate limited")
}

func (s *HandlerTestSuite) TestRecognize_InvalidMediaTypeIsBadRequest() {
	payload, _ := json.Marshal(domain.OcrRequest{Image: base64.StdEncoding.EncodeToString(jpegBytes), MediaType: "image/bmp"})
	req := httptest.NewRequest(http.MethodPost, "/api/ocr", bytes.NewReader(payload))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := s.app.Test(req, -1)
	s.Require().NoError(err)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	var msg map[string]string
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&msg))
	s.Equal(domain.ErrInvalidMediaType.Error(), msg["message"])
	s.Empty(s.recognizer.mediaType)
}

func (s *HandlerTestSuite) TestSettings_GetAndUpdate() {
	code, env := s.do(http.MethodGet, "/api/v1/settings", nil)
	s.Require().Equal(http.StatusOK, code)
	var current domain.SettingsResponse
	s.decode(env, &current)
	s.Equal([]int{1, 3}, current.NotifyDaysBefore)
	s.True(current.Enabled)

	code, _ = s.do(http.MethodPut, "/api/v1/settings", map[string]interface{}{"notify_time": "25:00"})
	s.Equal(http.StatusBadRequest, code)

	code, env = s.do(http.MethodPut, "/api/v1/settings", map[string]interface{}{
		"notify_days_before": []int{7, 1, 7},
		"enabled":            false,
	})
	s.Require().Equal(http.StatusOK, code, env.Error)
	s.decode(env, &current)
	s.Equal([]int{1, 7}, current.NotifyDaysBefore)
	s.False(current.Enabled)
	s.Equal("09:00", current.NotifyTime)
}

func (s *HandlerTestSuite) TestMemos_Crud() {
	code, env := s.do(http.MethodPost, "/api/v1/memos", map[string]interface{}{"content": "醤油を買う"})
	s.Require().Equal(http.StatusCreated, code, env.Error)
	var created domain.MemoResponse
	s.decode(env, &created)
	s.Equal("醤油を買う", created.Content)

	code, env = s.do(http.MethodPut, "/api/v1/memos/"+itoa(created.ID), map[string]interface{}{"content": "醤油とみりん"})
	s.Require().Equal(http.StatusOK, code, env.Error)

	code, env = s.do(http.MethodGet, "/api/v1/memos", nil)
	s.Require().Equal(http.StatusOK, code)
	var memos []domain.MemoResponse
	s.decode(env, &memos)
	s.Require().Len(memos, 1)
	s.Equal("醤油とみりん", memos[0].Content)

	code, _ = s.do(http.MethodDelete, "/api/v1/memos/"+itoa(created.ID), nil)
	s.Equal(http.StatusOK, code)
	code, _ = s.do(http.MethodDelete, "/api/v1/memos/"+itoa(created.ID), nil)
	s.Equal(http.StatusNotFound, code)
}

func (s *HandlerTestSuite) TestNotificationsCheck() {
	s.runner.report = domain.PassReport{Products: 4, Sent: 2}

	code, env := s.do(http.MethodPost, "/api/v1/notifications/check", nil)
	s.Require().Equal(http.StatusOK, code)
	var report domain.PassReport
	s.decode(env, &report)
	s.Equal(2, report.Sent)
	s.Equal(1, s.runner.calls)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
