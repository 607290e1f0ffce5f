package inference

import (
	"encoding/json"
	"errors"
	"fmt"

	"CreditScore/internal/domain/models"
)

// Artifact kinds understood by the decoders.
const (
	KindQuantile = "quantile"
	KindStandard = "standard"
	KindRobust   = "robust"
	KindMinMax   = "minmax"
	KindPCA      = "pca"
	KindLogistic = "logistic"
	KindStacked  = "stacked"
	KindRemote   = "remote"
)

var (
	ErrShapeMismatch   = errors.New("shape mismatch")
	ErrUnexpectedLabel = errors.New("unexpected classifier label")
)

// Envelope is the common header of every artifact file. Params holds the
// fitted parameters whose layout depends on Kind.
type Envelope struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Kind         string          `json:"kind"`
	NFeaturesIn  int             `json:"n_features_in"`
	NFeaturesOut int             `json:"n_features_out"`
	Categories   map[string]int  `json:"category_cardinality,omitempty"`
	Params       json.RawMessage `json:"params"`
}

// Ref returns the identity reported alongside a prediction.
func (e Envelope) Ref() models.ArtifactRef {
	return models.ArtifactRef{Name: e.Name, Version: e.Version, Kind: e.Kind}
}

func decodeEnvelope(b []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return env, fmt.Errorf("decode artifact: %w", err)
	}
	if env.Kind == "" {
		return env, fmt.Errorf("artifact %q: kind is required", env.Name)
	}
	if env.NFeaturesIn <= 0 {
		return env, fmt.Errorf("artifact %q: n_features_in must be positive", env.Name)
	}
	return env, nil
}

func (e Envelope) params(dst interface{}) error {
	if len(e.Params) == 0 {
		return fmt.Errorf("artifact %q: params missing", e.Name)
	}
	if err := json.Unmarshal(e.Params, dst); err != nil {
		return fmt.Errorf("artifact %q: decode %s params: %w", e.Name, e.Kind, err)
	}
	return nil
}

// ShapeError reports a vector whose width disagrees with what a stage or
// artifact expects. It always wraps ErrShapeMismatch.
type ShapeError struct {
	Stage    string
	Artifact string
	Expected int
	Got      int
}

func (e *ShapeError) Error() string {
	if e.Artifact != "" {
		return fmt.Sprintf("%s: %s (%s) expects %d features, got %d", ErrShapeMismatch, e.Stage, e.Artifact, e.Expected, e.Got)
	}
	return fmt.Sprintf("%s: %s expects %d features, got %d", ErrShapeMismatch, e.Stage, e.Expected, e.Got)
}

func (e *ShapeError) Unwrap() error { return ErrShapeMismatch }

func checkWidth(stage, artifact string, expected, got int) error {
	if expected != got {
		return &ShapeError{Stage: stage, Artifact: artifact, Expected: expected, Got: got}
	}
	return nil
}

// LoadError reports an artifact that could not be read or decoded.
type LoadError struct {
	Artifact string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load artifact %s: %v", e.Artifact, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
