package inference

import (
	"context"
	"fmt"

	"CreditScore/internal/domain/models"
	"CreditScore/internal/domain/service"
	"CreditScore/internal/services/features"
)

// Normalize applies the frozen scaler to the numeric block only. The width
// is checked before the transform runs.
func Normalize(s service.Scaler, numeric []float64) ([]float64, error) {
	if err := checkWidth("normalizer", artifactName(s), s.InputWidth(), len(numeric)); err != nil {
		return nil, err
	}
	scaled, err := s.Transform(numeric)
	if err != nil {
		return nil, fmt.Errorf("scale: %w", err)
	}
	if err := checkWidth("normalizer output", artifactName(s), len(numeric), len(scaled)); err != nil {
		return nil, err
	}
	return scaled, nil
}

// Compress projects the scaled EMI and loan-count columns, in that order,
// onto the first principal component and drops both source columns.
// Remaining columns keep their relative order.
func Compress(p service.Projector, scaled []float64) ([]float64, float64, error) {
	if err := checkWidth("compressor", "", features.PseudoLabelNumericWidth, len(scaled)); err != nil {
		return nil, 0, err
	}
	if err := checkWidth("compressor", artifactName(p), 2, p.InputWidth()); err != nil {
		return nil, 0, err
	}
	projected, err := p.Transform([]float64{scaled[features.EMIIndex], scaled[features.LoanCountIndex]})
	if err != nil {
		return nil, 0, fmt.Errorf("project: %w", err)
	}
	if len(projected) == 0 {
		return nil, 0, &ShapeError{Stage: "compressor output", Artifact: artifactName(p), Expected: 1, Got: 0}
	}

	trimmed := make([]float64, 0, features.PseudoLabelTrimmedWidth)
	for i, v := range scaled {
		if i == features.EMIIndex || i == features.LoanCountIndex {
			continue
		}
		trimmed = append(trimmed, v)
	}
	return trimmed, projected[0], nil
}

// ComposeSupervised concatenates 23 scaled numeric and 12 categorical columns.
func ComposeSupervised(scaled, categorical []float64) ([]float64, error) {
	if err := checkWidth("supervised numeric", "", features.SupervisedNumericWidth, len(scaled)); err != nil {
		return nil, err
	}
	if err := checkWidth("supervised categorical", "", features.SupervisedCategoricalWidth, len(categorical)); err != nil {
		return nil, err
	}
	out := make([]float64, 0, features.SupervisedComposedWidth)
	out = append(out, scaled...)
	return append(out, categorical...), nil
}

// ComposePseudoLabel concatenates 15 trimmed numeric columns, 13 categorical
// columns and the compressed scalar last.
func ComposePseudoLabel(trimmed, categorical []float64, compressed float64) ([]float64, error) {
	if err := checkWidth("pseudo-label numeric", "", features.PseudoLabelTrimmedWidth, len(trimmed)); err != nil {
		return nil, err
	}
	if err := checkWidth("pseudo-label categorical", "", features.PseudoLabelCategoricalWidth, len(categorical)); err != nil {
		return nil, err
	}
	out := make([]float64, 0, features.PseudoLabelComposedWidth)
	out = append(out, trimmed...)
	out = append(out, categorical...)
	return append(out, compressed), nil
}

// Decide maps a binary classifier label onto the business decision.
func Decide(label int) (models.Decision, error) {
	switch label {
	case 0:
		return models.DecisionApproved, nil
	case 1:
		return models.DecisionRejected, nil
	default:
		return "", fmt.Errorf("%w: %d", ErrUnexpectedLabel, label)
	}
}

// Outcome is the result of one pipeline run.
type Outcome struct {
	Label    int
	Decision models.Decision
	Vector   []float64
}

// RunSupervised scales, composes and classifies one supervised record.
func RunSupervised(ctx context.Context, a *SupervisedArtifacts, rec features.SupervisedRecord) (*Outcome, error) {
	scaled, err := Normalize(a.Scaler, rec.Numeric())
	if err != nil {
		return nil, err
	}
	vec, err := ComposeSupervised(scaled, rec.Categorical())
	if err != nil {
		return nil, err
	}
	return classify(ctx, a.Classifier, vec)
}

// RunPseudoLabel scales, compresses, composes and classifies one pseudo-label record.
func RunPseudoLabel(ctx context.Context, a *PseudoLabelArtifacts, rec features.PseudoLabelRecord) (*Outcome, error) {
	scaled, err := Normalize(a.Scaler, rec.Numeric())
	if err != nil {
		return nil, err
	}
	trimmed, scalar, err := Compress(a.Projector, scaled)
	if err != nil {
		return nil, err
	}
	vec, err := ComposePseudoLabel(trimmed, rec.Categorical(), scalar)
	if err != nil {
		return nil, err
	}
	return classify(ctx, a.Classifier, vec)
}

func classify(ctx context.Context, c service.Classifier, vec []float64) (*Outcome, error) {
	if err := checkWidth("classifier", artifactName(c), c.InputWidth(), len(vec)); err != nil {
		return nil, err
	}
	label, err := c.Predict(ctx, vec)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	decision, err := Decide(label)
	if err != nil {
		return nil, err
	}
	return &Outcome{Label: label, Decision: decision, Vector: vec}, nil
}

type referenced interface {
	Ref() models.ArtifactRef
}

func artifactName(v interface{}) string {
	if r, ok := v.(referenced); ok {
		return r.Ref().Name
	}
	return ""
}
