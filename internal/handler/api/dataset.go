package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"CreditScore/internal/domain/models"
	"CreditScore/internal/usecase"
	xhttp "CreditScore/pkg/http"
	xlogger "CreditScore/pkg/logger"
)

// Explorer is the dataset use case the handlers depend on.
type Explorer interface {
	Records(ctx context.Context, req models.RecordsRequest) (*usecase.RecordsResult, error)
	Summary(ctx context.Context, f models.DatasetFilter) (*models.DatasetSummary, error)
}

var _ Explorer = (*usecase.DatasetExplorer)(nil)

// DatasetHandler serves the dataset listing and the dashboard aggregates.
type DatasetHandler struct {
	logger   *xlogger.Logger
	explorer Explorer
}

func NewDatasetHandler(logger *xlogger.Logger, explorer Explorer) *DatasetHandler {
	return &DatasetHandler{logger: logger, explorer: explorer}
}

func (h *DatasetHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/dataset")
	g.GET("/records", h.Records)
	g.GET("/summary", h.Summary)
}

func (h *DatasetHandler) Records(c echo.Context) error {
	req := &models.RecordsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.explorer.Records(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("records usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *DatasetHandler) Summary(c echo.Context) error {
	req := &models.DatasetFilter{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.explorer.Summary(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("summary usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=30")
	return xhttp.SuccessResponse(c, res)
}
