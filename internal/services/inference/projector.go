package inference

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"CreditScore/internal/domain/service"
)

// PCAProjector applies a fitted principal component projection:
// (x - mean) · componentsᵀ, optionally whitened.
type PCAProjector struct {
	header
	mean       []float64
	components [][]float64
	whitenBy   []float64
}

type pcaParams struct {
	Mean              []float64   `json:"mean"`
	Components        [][]float64 `json:"components"`
	ExplainedVariance []float64   `json:"explained_variance"`
	Whiten            bool        `json:"whiten"`
}

func newPCAProjector(env Envelope) (*PCAProjector, error) {
	var p pcaParams
	if err := env.params(&p); err != nil {
		return nil, err
	}
	if err := checkWidth("pca mean", env.Name, env.NFeaturesIn, len(p.Mean)); err != nil {
		return nil, err
	}
	if len(p.Components) == 0 {
		return nil, fmt.Errorf("artifact %q: no components", env.Name)
	}
	if env.NFeaturesOut != 0 && env.NFeaturesOut != len(p.Components) {
		return nil, &ShapeError{Stage: "pca components", Artifact: env.Name, Expected: env.NFeaturesOut, Got: len(p.Components)}
	}
	for i, c := range p.Components {
		if len(c) != env.NFeaturesIn {
			return nil, fmt.Errorf("artifact %q: component %d has %d loadings, want %d", env.Name, i, len(c), env.NFeaturesIn)
		}
	}
	pr := &PCAProjector{header: header{env: env}, mean: p.Mean, components: p.Components}
	if p.Whiten {
		if len(p.ExplainedVariance) != len(p.Components) {
			return nil, fmt.Errorf("artifact %q: whitening needs one explained variance per component", env.Name)
		}
		pr.whitenBy = make([]float64, len(p.ExplainedVariance))
		for i, v := range p.ExplainedVariance {
			if v <= 0 {
				return nil, fmt.Errorf("artifact %q: explained variance %d must be positive", env.Name, i)
			}
			pr.whitenBy[i] = math.Sqrt(v)
		}
	}
	return pr, nil
}

// OutputWidth is the number of components produced per row.
func (p *PCAProjector) OutputWidth() int { return len(p.components) }

func (p *PCAProjector) Transform(row []float64) ([]float64, error) {
	if err := p.check("projector", row); err != nil {
		return nil, err
	}
	centered := floats.SubTo(make([]float64, len(row)), row, p.mean)
	out := make([]float64, len(p.components))
	for k, comp := range p.components {
		out[k] = floats.Dot(comp, centered)
	}
	if p.whitenBy != nil {
		floats.Div(out, p.whitenBy)
	}
	return out, nil
}

// DecodeProjector builds a projector from artifact bytes.
func DecodeProjector(b []byte) (service.Projector, error) {
	env, err := decodeEnvelope(b)
	if err != nil {
		return nil, err
	}
	if env.Kind != KindPCA {
		return nil, fmt.Errorf("artifact %q: %q is not a projector kind", env.Name, env.Kind)
	}
	p, err := newPCAProjector(env)
	if err != nil {
		return nil, err
	}
	return p, nil
}
