package handlers

import (
	"bufio"
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/valyala/fasthttp"

	"github.com/kazuki11111/expiry-tracker/domain"
	"github.com/kazuki11111/expiry-tracker/internal/api/presenters"
	"github.com/kazuki11111/expiry-tracker/pkg/changefeed"
	"github.com/kazuki11111/expiry-tracker/pkg/listing"
	"github.com/kazuki11111/expiry-tracker/pkg/memo"
)

type (
	MemoHandler interface {
		GetMemos(c *fiber.Ctx) error
		StreamMemos(c *fiber.Ctx) error
		AddMemo(c *fiber.Ctx) error
		UpdateMemo(c *fiber.Ctx) error
		DeleteMemo(c *fiber.Ctx) error
	}

	memoHandler struct {
		memoService memo.MemoService
		feed        listing.Subscriber
	}
)

func NewMemoHandler(memoService memo.MemoService, feed listing.Subscriber) MemoHandler {
	return &memoHandler{
		memoService: memoService,
		feed:        feed,
	}
}

func (h *memoHandler) GetMemos(c *fiber.Ctx) error {
	res, err := h.memoService.GetMemos(c.Context())
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedGetMemos, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetMemos)
}

// StreamMemos sends the memo list on connect and after every memo change.
func (h *memoHandler) StreamMemos(c *fiber.Ctx) error {
	sub := h.feed.Subscribe(changefeed.TableMemos)
	initial, err := h.memoService.GetMemos(c.Context())
	if err != nil {
		sub.Stop()
		return presenters.ServiceError(c, domain.MessageFailedGetMemos, err)
	}

	setStreamHeaders(c)
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer sub.Stop()
		if err := writeEvent(w, "memos", initial); err != nil {
			return
		}

		keepAlive := time.NewTicker(streamKeepAlive)
		defer keepAlive.Stop()
		for {
			select {
			case _, ok := <-sub.C():
				if !ok {
					return
				}
				memos, err := h.memoService.GetMemos(context.Background())
				if err != nil {
					log.Warnw("memo stream refresh failed", "error", err)
					continue
				}
				if err := writeEvent(w, "memos", memos); err != nil {
					return
				}
			case <-keepAlive.C:
				if err := writeKeepAlive(w); err != nil {
					return
				}
			}
		}
	}))
	return nil
}

func (h *memoHandler) AddMemo(c *fiber.Ctx) error {
	req := new(domain.MemoRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	res, err := h.memoService.AddMemo(c.Context(), *req)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedAddMemo, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessAddMemo)
}

func (h *memoHandler) UpdateMemo(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedParseID, err)
	}
	req := new(domain.MemoRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	res, err := h.memoService.UpdateMemo(c.Context(), id, *req)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedUpdateMemo, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUpdateMemo)
}

func (h *memoHandler) DeleteMemo(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedParseID, err)
	}

	if err := h.memoService.DeleteMemo(c.Context(), id); err != nil {
		return presenters.ServiceError(c, domain.MessageFailedDeleteMemo, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessDeleteMemo)
}
