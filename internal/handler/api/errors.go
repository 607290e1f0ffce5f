package api

import (
	"context"
	"errors"
	"net/http"

	"CreditScore/internal/services/features"
	"CreditScore/internal/services/inference"
	"CreditScore/internal/usecase"
	xhttp "CreditScore/pkg/http"
)

// toAppError maps use case failures onto transport errors.
func toAppError(err error) *xhttp.AppError {
	var (
		shape   *inference.ShapeError
		load    *inference.LoadError
		unknown *features.UnknownCategoryError
	)
	switch {
	case errors.As(err, &shape):
		return xhttp.NewAppError("ERR_ARTIFACT_SHAPE", "", "model artifact does not match the feature layout", http.StatusInternalServerError).
			WithParams(map[string]interface{}{
				"stage":    shape.Stage,
				"artifact": shape.Artifact,
				"expected": shape.Expected,
				"got":      shape.Got,
			}).
			WithError(err)
	case errors.As(err, &load):
		return xhttp.UnavailableError("ERR_ARTIFACT_UNAVAILABLE", "model artifacts are unavailable").
			WithParam("artifact", load.Artifact).
			WithError(err)
	case errors.As(err, &unknown):
		return xhttp.BadRequestError("ERR_UNKNOWN_CATEGORY", unknown.Dimension, unknown.Error()).
			WithParam("label", unknown.Label).
			WithError(err)
	case errors.Is(err, features.ErrUnknownCategory):
		return xhttp.BadRequestError("ERR_UNKNOWN_CATEGORY", "", err.Error()).WithError(err)
	case errors.Is(err, usecase.ErrUnknownModel):
		return xhttp.NewAppError("ERR_UNKNOWN_MODEL", "model", "unknown model variant", http.StatusNotFound).WithError(err)
	case errors.Is(err, usecase.ErrInvalidFilter):
		return xhttp.BadRequestError("ERR_INVALID_FILTER", "", err.Error()).WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.TimeoutError("request timed out").WithError(err)
	default:
		return xhttp.InternalError("request failed").WithError(err)
	}
}
