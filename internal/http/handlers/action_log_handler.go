package handlers

import (
	"context"
	"errors"

	"github.com/ecnal/moxiworks-platform/internal/http/dto"
	"github.com/ecnal/moxiworks-platform/internal/middleware"
	"github.com/ecnal/moxiworks-platform/internal/models"
	"github.com/ecnal/moxiworks-platform/internal/services"
	"github.com/ecnal/moxiworks-platform/pkg/platform"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ActionLogService interface {
	Create(ctx context.Context, caller services.Caller, p platform.CreateActionLogParams) (*platform.ActionLog, error)
	Search(ctx context.Context, p platform.SearchActionLogParams) (*services.SearchResult, error)
	Journal(ctx context.Context, partnerContactID string, limit, offset int) ([]models.JournalEntry, error)
}

type ActionLogHandler struct {
	service ActionLogService
	log     *zap.Logger
}

func NewActionLogHandler(service ActionLogService, log *zap.Logger) *ActionLogHandler {
	return &ActionLogHandler{service: service, log: log}
}

func (h *ActionLogHandler) CreateActionLog(c *fiber.Ctx) error {
	var req dto.CreateActionLogRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request", RequestID: middleware.GetRequestID(c)})
	}

	caller := services.Caller{RequestID: middleware.GetRequestID(c)}
	if claims := middleware.GetClaims(c); claims != nil {
		caller.ID = claims.CallerID
		caller.Service = claims.Service
	}

	created, err := h.service.Create(c.Context(), caller, platform.CreateActionLogParams{
		MoxiWorksAgentID: req.MoxiWorksAgentID,
		PartnerContactID: req.PartnerContactID,
		Title:            req.Title,
		Body:             req.Body,
	})
	if err != nil {
		return h.writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: created})
}

func (h *ActionLogHandler) SearchActionLogs(c *fiber.Ctx) error {
	var q dto.SearchActionLogsQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid query", RequestID: middleware.GetRequestID(c)})
	}

	result, err := h.service.Search(c.Context(), platform.SearchActionLogParams{
		AgentUUID:          q.AgentUUID,
		MoxiWorksAgentID:   q.MoxiWorksAgentID,
		PartnerContactID:   q.PartnerContactID,
		MoxiWorksContactID: q.MoxiWorksContactID,
	})
	if err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: result})
}

func (h *ActionLogHandler) ListJournal(c *fiber.Ctx) error {
	contactID := c.Query("partner_contact_id")
	if contactID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:     "partner_contact_id required",
			Field:     "partner_contact_id",
			RequestID: middleware.GetRequestID(c),
		})
	}

	entries, err := h.service.Journal(c.Context(), contactID, c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		h.log.Error("list journal failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error", RequestID: middleware.GetRequestID(c)})
	}
	if entries == nil {
		entries = []models.JournalEntry{}
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: entries})
}

// writeError maps binding errors onto HTTP statuses. Platform-side failures are
// reported as 502 so callers can tell them apart from their own mistakes.
func (h *ActionLogHandler) writeError(c *fiber.Ctx, err error) error {
	reqID := middleware.GetRequestID(c)

	var argErr *platform.ArgumentError
	if errors.As(err, &argErr) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: argErr.Error(), Field: argErr.Field, RequestID: reqID})
	}

	var remote *platform.RemoteRequestFailure
	if errors.As(err, &remote) {
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Error: "platform request failed", Messages: remote.Messages, RequestID: reqID})
	}

	if errors.Is(err, platform.ErrAuthorization) {
		h.log.Error("platform rejected bridge credentials", zap.String("request_id", reqID), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Error: "platform authorization failed", RequestID: reqID})
	}

	h.log.Error("action log request failed", zap.String("request_id", reqID), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error", RequestID: reqID})
}
