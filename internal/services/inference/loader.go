package inference

import (
	"context"
	"fmt"
	"path"
	"strings"

	"CreditScore/internal/domain/models"
	"CreditScore/internal/domain/repository"
	"CreditScore/internal/domain/service"
	"CreditScore/internal/services/features"
)

// ArtifactNames locates the artifacts of both variants in the artifact source.
type ArtifactNames struct {
	SupervisedScaler      string
	SupervisedClassifier  string
	PseudoLabelScaler     string
	PseudoLabelProjector  string
	PseudoLabelClassifier string
}

// SupervisedArtifacts is the frozen state of one supervised prediction.
type SupervisedArtifacts struct {
	Scaler     service.Scaler
	Classifier service.Classifier
}

func (a *SupervisedArtifacts) Refs() []models.ArtifactRef {
	return refs(a.Scaler, a.Classifier)
}

// PseudoLabelArtifacts is the frozen state of one pseudo-label prediction.
type PseudoLabelArtifacts struct {
	Scaler     service.Scaler
	Projector  service.Projector
	Classifier service.Classifier
}

func (a *PseudoLabelArtifacts) Refs() []models.ArtifactRef {
	return refs(a.Scaler, a.Projector, a.Classifier)
}

func refs(vs ...interface{}) []models.ArtifactRef {
	out := make([]models.ArtifactRef, 0, len(vs))
	for _, v := range vs {
		if r, ok := v.(referenced); ok {
			out = append(out, r.Ref())
		}
	}
	return out
}

// LoaderOption configures Loader.
type LoaderOption func(*Loader)

// WithRemoteClassifier resolves classifiers on a model server instead of
// decoding local artifacts.
func WithRemoteClassifier(base *HTTPServiceBase) LoaderOption {
	return func(l *Loader) {
		l.remote = base
	}
}

// Loader reads and decodes artifacts. Every call loads afresh; nothing is
// retained between predictions.
type Loader struct {
	source  repository.ArtifactSource
	catalog *features.Catalog
	names   ArtifactNames
	remote  *HTTPServiceBase
}

func NewLoader(source repository.ArtifactSource, catalog *features.Catalog, names ArtifactNames, opts ...LoaderOption) *Loader {
	l := &Loader{source: source, catalog: catalog, names: names}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Supervised loads the scaler and classifier of the stacked model.
func (l *Loader) Supervised(ctx context.Context) (*SupervisedArtifacts, error) {
	scaler, err := l.scaler(ctx, l.names.SupervisedScaler)
	if err != nil {
		return nil, err
	}
	if err := checkWidth("supervised scaler", l.names.SupervisedScaler, features.SupervisedNumericWidth, scaler.InputWidth()); err != nil {
		return nil, err
	}
	clf, err := l.classifier(ctx, l.names.SupervisedClassifier)
	if err != nil {
		return nil, err
	}
	if err := checkWidth("supervised classifier", l.names.SupervisedClassifier, features.SupervisedComposedWidth, clf.InputWidth()); err != nil {
		return nil, err
	}
	return &SupervisedArtifacts{Scaler: scaler, Classifier: clf}, nil
}

// PseudoLabel loads the scaler, projector and classifier of the pseudo-label model.
func (l *Loader) PseudoLabel(ctx context.Context) (*PseudoLabelArtifacts, error) {
	scaler, err := l.scaler(ctx, l.names.PseudoLabelScaler)
	if err != nil {
		return nil, err
	}
	if err := checkWidth("pseudo-label scaler", l.names.PseudoLabelScaler, features.PseudoLabelNumericWidth, scaler.InputWidth()); err != nil {
		return nil, err
	}
	projector, err := l.projector(ctx, l.names.PseudoLabelProjector)
	if err != nil {
		return nil, err
	}
	clf, err := l.classifier(ctx, l.names.PseudoLabelClassifier)
	if err != nil {
		return nil, err
	}
	if err := checkWidth("pseudo-label classifier", l.names.PseudoLabelClassifier, features.PseudoLabelComposedWidth, clf.InputWidth()); err != nil {
		return nil, err
	}
	return &PseudoLabelArtifacts{Scaler: scaler, Projector: projector, Classifier: clf}, nil
}

func (l *Loader) scaler(ctx context.Context, name string) (service.Scaler, error) {
	b, err := l.open(ctx, name)
	if err != nil {
		return nil, err
	}
	s, err := DecodeScaler(b)
	if err != nil {
		return nil, &LoadError{Artifact: name, Err: err}
	}
	return s, nil
}

func (l *Loader) projector(ctx context.Context, name string) (service.Projector, error) {
	b, err := l.open(ctx, name)
	if err != nil {
		return nil, err
	}
	p, err := DecodeProjector(b)
	if err != nil {
		return nil, &LoadError{Artifact: name, Err: err}
	}
	return p, nil
}

func (l *Loader) classifier(ctx context.Context, name string) (service.Classifier, error) {
	var (
		clf service.Classifier
		err error
	)
	if l.remote != nil {
		model := strings.TrimSuffix(path.Base(name), path.Ext(name))
		var hc *HTTPClassifier
		if hc, err = NewHTTPClassifier(ctx, l.remote, model); err != nil {
			return nil, &LoadError{Artifact: model, Err: err}
		}
		clf = hc
	} else {
		b, openErr := l.open(ctx, name)
		if openErr != nil {
			return nil, openErr
		}
		if clf, err = DecodeClassifier(b); err != nil {
			return nil, &LoadError{Artifact: name, Err: err}
		}
	}
	if l.catalog != nil {
		if err := l.catalog.CheckCardinality(classifierCategories(clf)); err != nil {
			return nil, &LoadError{Artifact: name, Err: err}
		}
	}
	return clf, nil
}

func (l *Loader) open(ctx context.Context, name string) ([]byte, error) {
	if name == "" {
		return nil, &LoadError{Artifact: "<unnamed>", Err: fmt.Errorf("artifact name not configured")}
	}
	b, err := l.source.Open(ctx, name)
	if err != nil {
		return nil, &LoadError{Artifact: name, Err: err}
	}
	return b, nil
}
