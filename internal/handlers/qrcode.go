package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/qr-tracker/internal/analytics"
	"github.com/serroba/qr-tracker/internal/qrcode"
	goqrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

// QRCodeHandler handles owner operations on QR codes.
type QRCodeHandler struct {
	service   *qrcode.Service
	analytics analytics.Store
	baseURL   string
	logger    *zap.Logger
}

// NewQRCodeHandler creates a new QR code handler.
func NewQRCodeHandler(
	service *qrcode.Service,
	analyticsStore analytics.Store,
	baseURL string,
	logger *zap.Logger,
) *QRCodeHandler {
	return &QRCodeHandler{
		service:   service,
		analytics: analyticsStore,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger,
	}
}

func (h *QRCodeHandler) CreateQRCode(ctx context.Context, req *CreateQRCodeRequest) (*CreateQRCodeResponse, error) {
	qr, err := h.service.Create(ctx, qrcode.CreateInput{
		Name:      req.Body.Name,
		Type:      qrcode.Type(req.Body.Type),
		Data:      req.Body.Data,
		ExpiresAt: req.Body.ExpiresAt,
	})
	if err != nil {
		if errors.Is(err, qrcode.ErrInvalidPayload) {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}

		h.logger.Error("failed to create qr code", zap.String("type", req.Body.Type), zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to create qr code")
	}

	resp := &CreateQRCodeResponse{Body: h.toBody(qr)}
	resp.Location = resp.Body.ScanURL

	return resp, nil
}

func (h *QRCodeHandler) GetQRCode(ctx context.Context, req *QRCodeIDRequest) (*QRCodeResponse, error) {
	qr, err := h.load(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	return &QRCodeResponse{Body: h.toBody(qr)}, nil
}

func (h *QRCodeHandler) UpdateStatus(ctx context.Context, req *UpdateStatusRequest) (*QRCodeResponse, error) {
	qr, err := h.service.SetStatus(ctx, req.ID, qrcode.Status(req.Body.Status))
	if err != nil {
		switch {
		case errors.Is(err, qrcode.ErrNotFound):
			return nil, huma.Error404NotFound("qr code not found")
		case errors.Is(err, qrcode.ErrInvalidPayload):
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}

		h.logger.Error("failed to update status", zap.String("id", req.ID), zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to update qr code")
	}

	return &QRCodeResponse{Body: h.toBody(qr)}, nil
}

// GetImage renders the scan URL, not the payload, so the printed code stays valid when the payload changes.
func (h *QRCodeHandler) GetImage(ctx context.Context, req *ImageRequest) (*ImageResponse, error) {
	qr, err := h.load(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	png, err := goqrcode.Encode(h.scanURL(qr.ShortCode), goqrcode.Medium, req.Size)
	if err != nil {
		h.logger.Error("failed to render qr image", zap.String("id", req.ID), zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to render qr image")
	}

	return &ImageResponse{ContentType: "image/png", Body: png}, nil
}

func (h *QRCodeHandler) GetAnalytics(ctx context.Context, req *QRCodeIDRequest) (*AnalyticsResponse, error) {
	if _, err := h.load(ctx, req.ID); err != nil {
		return nil, err
	}

	summary, err := h.analytics.Summary(ctx, req.ID)
	if err != nil {
		h.logger.Error("failed to summarize analytics", zap.String("id", req.ID), zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to load analytics")
	}

	return &AnalyticsResponse{Body: summary}, nil
}

func (h *QRCodeHandler) load(ctx context.Context, id string) (*qrcode.QRCode, error) {
	qr, err := h.service.Get(ctx, id)
	if err != nil {
		if errors.Is(err, qrcode.ErrNotFound) {
			return nil, huma.Error404NotFound("qr code not found")
		}

		h.logger.Error("failed to get qr code", zap.String("id", id), zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to get qr code")
	}

	return qr, nil
}

func (h *QRCodeHandler) scanURL(code string) string {
	return fmt.Sprintf("%s/q/%s", h.baseURL, code)
}

func (h *QRCodeHandler) toBody(qr *qrcode.QRCode) QRCodeBody {
	return QRCodeBody{
		ID:            qr.ID,
		ShortCode:     qr.ShortCode,
		ScanURL:       h.scanURL(qr.ShortCode),
		Name:          qr.Name,
		Type:          string(qr.Type),
		Data:          qr.Data,
		Status:        string(qr.Status),
		ExpiresAt:     qr.ExpiresAt,
		ScanCount:     qr.ScanCount,
		LastScannedAt: qr.LastScannedAt,
		CreatedAt:     qr.CreatedAt,
		UpdatedAt:     qr.UpdatedAt,
	}
}
