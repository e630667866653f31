package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	dto "clinic-queue.com/clinic-queue/internal/data_models"
	apperrors "clinic-queue.com/clinic-queue/internal/errors"
	"clinic-queue.com/clinic-queue/internal/http/validators"
	"clinic-queue.com/clinic-queue/internal/services"
)

type Handler struct {
	queueService *services.QueueService
}

func NewHandler(queueService *services.QueueService) *Handler {
	return &Handler{
		queueService: queueService,
	}
}

func (h *Handler) ListTokens(c echo.Context) error {
	tokens, err := h.queueService.ListTokens(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.Response{Success: true, Data: tokens})
}

func (h *Handler) ListWaiting(c echo.Context) error {
	tokens, err := h.queueService.ListWaiting(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.Response{Success: true, Data: tokens})
}

func (h *Handler) Current(c echo.Context) error {
	token, err := h.queueService.Current(c.Request().Context())
	if err != nil {
		return err
	}

	resp := dto.Response{Success: true, Data: token}
	if token == nil {
		resp.Message = "No patient is being served"
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) CreateToken(c echo.Context) error {
	var req dto.CreateTokenRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ErrInvalidJSON
	}
	if err := validators.ValidateCreateTokenRequest(&req); err != nil {
		return err
	}

	isVIP := req.IsVIP != nil && *req.IsVIP

	token, err := h.queueService.CreateToken(c.Request().Context(), req.PatientName, req.PhoneNumber, isVIP)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, dto.Response{
		Success: true,
		Data:    token,
		Message: "Token created successfully",
	})
}

func (h *Handler) AdvanceNext(c echo.Context) error {
	token, err := h.queueService.AdvanceNext(c.Request().Context())
	if err != nil {
		return err
	}

	resp := dto.Response{Success: true, Data: token}
	if token == nil {
		resp.Message = "No more patients in queue"
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return apperrors.ErrTokenIDRequired
	}

	var req dto.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ErrInvalidJSON
	}
	status, err := validators.ValidateUpdateStatusRequest(&req)
	if err != nil {
		return err
	}

	token, err := h.queueService.UpdateStatus(c.Request().Context(), id, status)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.Response{Success: true, Data: token})
}

func (h *Handler) SetVIP(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return apperrors.ErrTokenIDRequired
	}

	var req dto.SetVIPRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ErrInvalidJSON
	}
	isVIP, err := validators.ValidateSetVIPRequest(&req)
	if err != nil {
		return err
	}

	token, err := h.queueService.SetVIP(c.Request().Context(), id, isVIP)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.Response{
		Success: true,
		Data:    token,
		Message: "VIP status updated successfully",
	})
}

func (h *Handler) Health(c echo.Context) error {
	report := h.queueService.Health(c.Request().Context())

	code := http.StatusOK
	if report.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, report)
}
