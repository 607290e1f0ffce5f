package inference

import (
	"context"
	"fmt"
	"math"

	"CreditScore/internal/domain/service"
)

type linearParams struct {
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
	Classes   []int     `json:"classes"`
}

func (p *linearParams) validate(name string, width int) error {
	if err := checkWidth("coefficients", name, width, len(p.Coef)); err != nil {
		return err
	}
	if p.Classes == nil {
		p.Classes = []int{0, 1}
	}
	if len(p.Classes) != 2 {
		return fmt.Errorf("artifact %q: binary classifier needs exactly two classes, got %d", name, len(p.Classes))
	}
	return nil
}

func (p *linearParams) decision(row []float64) float64 {
	d := p.Intercept
	for i, x := range row {
		d += p.Coef[i] * x
	}
	return d
}

func (p *linearParams) predict(row []float64) int {
	if p.decision(row) > 0 {
		return p.Classes[1]
	}
	return p.Classes[0]
}

func (p *linearParams) probability(row []float64) float64 {
	return 1 / (1 + math.Exp(-p.decision(row)))
}

// LogisticClassifier is a binary logistic regression.
type LogisticClassifier struct {
	header
	model linearParams
}

func newLogisticClassifier(env Envelope) (*LogisticClassifier, error) {
	var p linearParams
	if err := env.params(&p); err != nil {
		return nil, err
	}
	if err := p.validate(env.Name, env.NFeaturesIn); err != nil {
		return nil, err
	}
	return &LogisticClassifier{header: header{env: env}, model: p}, nil
}

func (c *LogisticClassifier) Predict(ctx context.Context, row []float64) (int, error) {
	if err := c.check("classifier", row); err != nil {
		return 0, err
	}
	return c.model.predict(row), nil
}

// StackedClassifier combines the positive-class probabilities of several
// logistic base learners through a final logistic learner.
type StackedClassifier struct {
	header
	estimators  []linearParams
	final       linearParams
	passthrough bool
}

type stackedParams struct {
	Estimators  []linearParams `json:"estimators"`
	Final       linearParams   `json:"final"`
	Passthrough bool           `json:"passthrough"`
}

func newStackedClassifier(env Envelope) (*StackedClassifier, error) {
	var p stackedParams
	if err := env.params(&p); err != nil {
		return nil, err
	}
	if len(p.Estimators) == 0 {
		return nil, fmt.Errorf("artifact %q: stacked classifier has no estimators", env.Name)
	}
	for i := range p.Estimators {
		if err := p.Estimators[i].validate(fmt.Sprintf("%s/estimator-%d", env.Name, i), env.NFeaturesIn); err != nil {
			return nil, err
		}
	}
	finalWidth := len(p.Estimators)
	if p.Passthrough {
		finalWidth += env.NFeaturesIn
	}
	if err := p.Final.validate(env.Name+"/final", finalWidth); err != nil {
		return nil, err
	}
	return &StackedClassifier{
		header:      header{env: env},
		estimators:  p.Estimators,
		final:       p.Final,
		passthrough: p.Passthrough,
	}, nil
}

func (c *StackedClassifier) Predict(ctx context.Context, row []float64) (int, error) {
	if err := c.check("classifier", row); err != nil {
		return 0, err
	}
	meta := make([]float64, 0, len(c.estimators)+len(row))
	for i := range c.estimators {
		meta = append(meta, c.estimators[i].probability(row))
	}
	if c.passthrough {
		meta = append(meta, row...)
	}
	return c.final.predict(meta), nil
}

// DecodeClassifier builds a local classifier from artifact bytes.
func DecodeClassifier(b []byte) (service.Classifier, error) {
	env, err := decodeEnvelope(b)
	if err != nil {
		return nil, err
	}
	switch env.Kind {
	case KindLogistic:
		c, err := newLogisticClassifier(env)
		if err != nil {
			return nil, err
		}
		return c, nil
	case KindStacked:
		c, err := newStackedClassifier(env)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("artifact %q: %q is not a classifier kind", env.Name, env.Kind)
	}
}

// classifierCategories returns the catalog cardinalities a decoded artifact
// was trained against, if it declares any.
func classifierCategories(c service.Classifier) map[string]int {
	switch v := c.(type) {
	case *LogisticClassifier:
		return v.env.Categories
	case *StackedClassifier:
		return v.env.Categories
	case *HTTPClassifier:
		return v.categories
	}
	return nil
}
