package handlers

import (
	"encoding/base64"
	"io"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/kazuki11111/expiry-tracker/domain"
	"github.com/kazuki11111/expiry-tracker/internal/api/presenters"
	"github.com/kazuki11111/expiry-tracker/pkg/scan"
)

const receiptImageField = "receipt_image"

type (
	ScanHandler interface {
		StartScan(c *fiber.Ctx) error
		GetSession(c *fiber.Ctx) error
		DiscardSession(c *fiber.Ctx) error
		SetPurchaseDate(c *fiber.Ctx) error
		UpdateItem(c *fiber.Ctx) error
		RemoveItem(c *fiber.Ctx) error
		Commit(c *fiber.Ctx) error
		Recognize(c *fiber.Ctx) error
	}

	scanHandler struct {
		scanService scan.ScanService
		validator   *validator.Validate
	}
)

func NewScanHandler(scanService scan.ScanService, validator *validator.Validate) ScanHandler {
	return &scanHandler{
		scanService: scanService,
		validator:   validator,
	}
}

// StartScan accepts either a multipart upload in receipt_image or a JSON body
// with a base64 image.
func (h *scanHandler) StartScan(c *fiber.Ctx) error {
	req, err := h.startRequest(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedStartScan, err)
	}

	res, err := h.scanService.StartScan(c.Context(), req)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedStartScan, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessStartScan)
}

func (h *scanHandler) startRequest(c *fiber.Ctx) (domain.StartScanRequest, error) {
	contentType := strings.ToLower(string(c.Request().Header.ContentType()))
	if strings.HasPrefix(contentType, fiber.MIMEMultipartForm) {
		file, err := c.FormFile(receiptImageField)
		if err != nil {
			return domain.StartScanRequest{}, domain.ErrMissingImage
		}
		f, err := file.Open()
		if err != nil {
			return domain.StartScanRequest{}, err
		}
		defer f.Close()

		image, err := io.ReadAll(f)
		if err != nil {
			return domain.StartScanRequest{}, err
		}
		// Non-image declared types are sniffed instead.
		mediaType := file.Header.Get(fiber.HeaderContentType)
		if !strings.HasPrefix(strings.ToLower(mediaType), "image/") {
			mediaType = ""
		}
		return domain.StartScanRequest{
			Image:        image,
			MediaType:    mediaType,
			PurchaseDate: c.FormValue("purchase_date"),
		}, nil
	}

	body := new(domain.StartScanJSONRequest)
	if err := c.BodyParser(body); err != nil {
		return domain.StartScanRequest{}, err
	}
	if body.Image == "" {
		return domain.StartScanRequest{}, domain.ErrMissingImage
	}
	if err := h.validator.Struct(body); err != nil {
		return domain.StartScanRequest{}, err
	}
	image, err := base64.StdEncoding.DecodeString(body.Image)
	if err != nil {
		return domain.StartScanRequest{}, domain.ErrInvalidImage
	}
	return domain.StartScanRequest{
		Image:        image,
		MediaType:    body.MediaType,
		PurchaseDate: body.PurchaseDate,
	}, nil
}

func (h *scanHandler) GetSession(c *fiber.Ctx) error {
	res, err := h.scanService.GetSession(c.Params("id"))
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedGetScan, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetScan)
}

func (h *scanHandler) DiscardSession(c *fiber.Ctx) error {
	if err := h.scanService.Discard(c.Params("id")); err != nil {
		return presenters.ServiceError(c, domain.MessageFailedUpdateScan, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessDiscardScan)
}

func (h *scanHandler) SetPurchaseDate(c *fiber.Ctx) error {
	req := new(domain.SetPurchaseDateRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateScan, err)
	}

	res, err := h.scanService.SetPurchaseDate(c.Params("id"), req.PurchaseDate)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedUpdateScan, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUpdateScan)
}

func (h *scanHandler) UpdateItem(c *fiber.Ctx) error {
	index, err := parseIndex(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedParseID, err)
	}
	req := new(domain.UpdateDraftRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateScan, err)
	}

	res, err := h.scanService.UpdateItem(c.Params("id"), index, *req)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedUpdateScan, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUpdateScan)
}

func (h *scanHandler) RemoveItem(c *fiber.Ctx) error {
	index, err := parseIndex(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedParseID, err)
	}

	res, err := h.scanService.RemoveItem(c.Params("id"), index)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedUpdateScan, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUpdateScan)
}

func (h *scanHandler) Commit(c *fiber.Ctx) error {
	res, err := h.scanService.Commit(c.Context(), c.Params("id"))
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedCommitScan, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessCommitScan)
}

// Recognize is the bare OCR proxy. It answers with the recognizer result as
// is, or {message} on failure, so browser clients can call it directly.
func (h *scanHandler) Recognize(c *fiber.Ctx) error {
	req := new(domain.OcrRequest)
	if err := c.BodyParser(req); err != nil || req.Image == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": domain.MessageMissingImage})
	}

	image, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": domain.ErrInvalidImage.Error()})
	}

	res, err := h.scanService.Recognize(c.Context(), image, req.MediaType)
	if err != nil {
		return c.Status(ocrStatus(err)).JSON(fiber.Map{"message": ocrMessage(err)})
	}

	return c.Status(fiber.StatusOK).JSON(res)
}

// ocrStatus keeps client mistakes at 400; every recognizer failure is 500.
func ocrStatus(err error) int {
	if code := presenters.StatusFromError(err); code == fiber.StatusBadRequest {
		return code
	}
	return fiber.StatusInternalServerError
}

func ocrMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return domain.MessageFailedRecognizeImage
}

func parseIndex(c *fiber.Ctx) (int, error) {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil || index < 0 {
		return 0, domain.ErrParseID
	}
	return index, nil
}
