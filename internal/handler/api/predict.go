package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"CreditScore/internal/domain/models"
	"CreditScore/internal/services/features"
	"CreditScore/internal/usecase"
	xhttp "CreditScore/pkg/http"
	xlogger "CreditScore/pkg/logger"
)

// Predictor is the scoring use case the handlers depend on.
type Predictor interface {
	Predict(ctx context.Context, variant models.ModelVariant, in models.ApplicantInput) (*models.Prediction, error)
	Explain(variant models.ModelVariant, in models.ApplicantInput) (models.FeatureExplanation, error)
	Catalog() *features.Catalog
}

var _ Predictor = (*usecase.CreditPredictor)(nil)

// PredictHandler serves scoring, feature explanation and catalog routes.
type PredictHandler struct {
	logger    *xlogger.Logger
	predictor Predictor
	limit     echo.MiddlewareFunc
}

func NewPredictHandler(logger *xlogger.Logger, predictor Predictor) *PredictHandler {
	return &PredictHandler{logger: logger, predictor: predictor}
}

// WithRateLimit guards the scoring routes with mw.
func (h *PredictHandler) WithRateLimit(mw echo.MiddlewareFunc) *PredictHandler {
	h.limit = mw
	return h
}

func (h *PredictHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	var mws []echo.MiddlewareFunc
	if h.limit != nil {
		mws = append(mws, h.limit)
	}
	g.POST("/predict/supervised", h.PredictSupervised, mws...)
	g.POST("/predict/pseudo-label", h.PredictPseudoLabel, mws...)
	g.POST("/features/:model", h.Features, mws...)
	g.GET("/catalog", h.Catalog)
}

func (h *PredictHandler) PredictSupervised(c echo.Context) error {
	return h.predict(c, models.VariantSupervised)
}

func (h *PredictHandler) PredictPseudoLabel(c echo.Context) error {
	return h.predict(c, models.VariantPseudoLabel)
}

func (h *PredictHandler) predict(c echo.Context, variant models.ModelVariant) error {
	req := &models.ApplicantInput{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.predictor.Predict(c.Request().Context(), variant, *req)
	if err != nil {
		h.logger.Error("predict usecase error",
			xlogger.String("model", string(variant)),
			xlogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.SuccessResponse(c, res)
}

// Features returns the assembled, unscaled columns of the given variant.
func (h *PredictHandler) Features(c echo.Context) error {
	variant, ok := models.ParseModelVariant(c.Param("model"))
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("unknown model %q", c.Param("model")))
	}
	req := &models.ApplicantInput{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.predictor.Explain(variant, *req)
	if err != nil {
		h.logger.Warn("features usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

// Catalog lists the category options a form offers.
func (h *PredictHandler) Catalog(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=300")
	return xhttp.SuccessResponse(c, h.predictor.Catalog())
}
