package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"CreditScore/internal/domain/models"
	drepo "CreditScore/internal/domain/repository"
	"CreditScore/internal/services/features"
	"CreditScore/internal/services/inference"
	applogger "CreditScore/pkg/logger"
)

var ErrUnknownModel = errors.New("unknown model variant")

// CreditPredictor serves both scoring pipelines. Artifacts are loaded on
// every call and dropped when it returns.
type CreditPredictor struct {
	loader    *inference.Loader
	assembler *features.Assembler
	metrics   drepo.Metrics
	l         *applogger.Logger
	now       func() time.Time
}

// NewCreditPredictor creates a new CreditPredictor instance.
func NewCreditPredictor(loader *inference.Loader, assembler *features.Assembler, metrics drepo.Metrics) *CreditPredictor {
	return &CreditPredictor{
		loader:    loader,
		assembler: assembler,
		metrics:   metrics,
		now:       time.Now,
	}
}

// SetLogger injects a structured logger.
func (p *CreditPredictor) SetLogger(l *applogger.Logger) { p.l = l }

// Catalog exposes the category catalog the assembler encodes with.
func (p *CreditPredictor) Catalog() *features.Catalog { return p.assembler.Catalog() }

// Predict dispatches to the pipeline of the given variant.
func (p *CreditPredictor) Predict(ctx context.Context, variant models.ModelVariant, in models.ApplicantInput) (*models.Prediction, error) {
	switch variant {
	case models.VariantSupervised:
		return p.PredictSupervised(ctx, in)
	case models.VariantPseudoLabel:
		return p.PredictPseudoLabel(ctx, in)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, variant)
	}
}

// PredictSupervised runs assembly, scaling and the stacked classifier.
func (p *CreditPredictor) PredictSupervised(ctx context.Context, in models.ApplicantInput) (*models.Prediction, error) {
	start := p.now()
	rec, err := p.assembler.Supervised(in)
	if err != nil {
		return nil, p.fail(models.VariantSupervised, err)
	}
	arts, err := p.loader.Supervised(ctx)
	if err != nil {
		return nil, p.fail(models.VariantSupervised, err)
	}
	out, err := inference.RunSupervised(ctx, arts, rec)
	if err != nil {
		return nil, p.fail(models.VariantSupervised, err)
	}
	return p.done(models.VariantSupervised, out, arts.Refs(), start), nil
}

// PredictPseudoLabel runs assembly, scaling, compression and the
// pseudo-label classifier.
func (p *CreditPredictor) PredictPseudoLabel(ctx context.Context, in models.ApplicantInput) (*models.Prediction, error) {
	start := p.now()
	rec, err := p.assembler.PseudoLabel(in)
	if err != nil {
		return nil, p.fail(models.VariantPseudoLabel, err)
	}
	arts, err := p.loader.PseudoLabel(ctx)
	if err != nil {
		return nil, p.fail(models.VariantPseudoLabel, err)
	}
	out, err := inference.RunPseudoLabel(ctx, arts, rec)
	if err != nil {
		return nil, p.fail(models.VariantPseudoLabel, err)
	}
	return p.done(models.VariantPseudoLabel, out, arts.Refs(), start), nil
}

// Explain returns the named, unscaled columns a variant would assemble.
// No artifact is loaded.
func (p *CreditPredictor) Explain(variant models.ModelVariant, in models.ApplicantInput) (models.FeatureExplanation, error) {
	if _, ok := models.ParseModelVariant(string(variant)); !ok {
		return models.FeatureExplanation{}, fmt.Errorf("%w: %q", ErrUnknownModel, variant)
	}
	return p.assembler.Explain(variant, in)
}

func (p *CreditPredictor) done(variant models.ModelVariant, out *inference.Outcome, refs []models.ArtifactRef, start time.Time) *models.Prediction {
	pred := &models.Prediction{
		ID:             uuid.NewString(),
		Model:          variant,
		Label:          out.Label,
		Decision:       out.Decision,
		Width:          len(out.Vector),
		CatalogVersion: p.assembler.Catalog().Version,
		Artifacts:      refs,
		CreatedAt:      p.now().UTC(),
	}
	elapsed := p.now().Sub(start)
	if p.metrics != nil {
		p.metrics.RecordPrediction(string(variant), string(out.Decision))
		p.metrics.RecordLatency("predict_"+string(variant), elapsed.Seconds())
	}
	if p.l != nil {
		p.l.Info("prediction served",
			applogger.String("id", pred.ID),
			applogger.String("model", string(variant)),
			applogger.String("decision", string(pred.Decision)),
			applogger.Int("width", pred.Width),
			applogger.Duration("duration_ms", elapsed),
		)
	}
	return pred
}

func (p *CreditPredictor) fail(variant models.ModelVariant, err error) error {
	kind := ErrorKind(err)
	if p.metrics != nil {
		p.metrics.RecordError(kind)
	}
	if p.l != nil {
		p.l.Error("prediction failed",
			applogger.String("model", string(variant)),
			applogger.String("kind", kind),
			applogger.Error(err),
		)
	}
	return fmt.Errorf("predict %s: %w", variant, err)
}

// ErrorKind classifies prediction errors for metrics and logs.
func ErrorKind(err error) string {
	var shape *inference.ShapeError
	var load *inference.LoadError
	switch {
	case errors.As(err, &shape):
		return "artifact_shape"
	case errors.As(err, &load):
		return "artifact_load"
	case errors.Is(err, features.ErrUnknownCategory):
		return "unknown_category"
	case errors.Is(err, inference.ErrUnexpectedLabel):
		return "unexpected_label"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "classifier"
	}
}
