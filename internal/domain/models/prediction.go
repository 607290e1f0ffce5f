package models

import "time"

// ModelVariant names one of the two deployed scoring pipelines.
type ModelVariant string

const (
	VariantSupervised  ModelVariant = "supervised"
	VariantPseudoLabel ModelVariant = "pseudo-label"
)

// ParseModelVariant maps a path or flag value onto a known variant.
func ParseModelVariant(s string) (ModelVariant, bool) {
	switch ModelVariant(s) {
	case VariantSupervised:
		return VariantSupervised, true
	case VariantPseudoLabel, "pseudo_label", "pseudolabel":
		return VariantPseudoLabel, true
	default:
		return "", false
	}
}

// Decision is the human-readable outcome of a prediction.
type Decision string

const (
	DecisionApproved Decision = "Approved"
	DecisionRejected Decision = "Rejected"
)

// ArtifactRef identifies a loaded model artifact.
type ArtifactRef struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	Kind    string `json:"kind"`
}

// Prediction is produced once per request and never stored.
type Prediction struct {
	ID             string        `json:"id"`
	Model          ModelVariant  `json:"model"`
	Label          int           `json:"label"`
	Decision       Decision      `json:"decision"`
	Width          int           `json:"width"`
	CatalogVersion string        `json:"catalog_version"`
	Artifacts      []ArtifactRef `json:"artifacts"`
	CreatedAt      time.Time     `json:"created_at"`
}

// FeatureColumn is one named position of an assembled vector.
type FeatureColumn struct {
	Index int     `json:"index"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Block string  `json:"block"` // numeric | categorical
}

// FeatureExplanation lists the assembled, unscaled columns of a variant.
type FeatureExplanation struct {
	Model          ModelVariant    `json:"model"`
	CatalogVersion string          `json:"catalog_version"`
	Numeric        []FeatureColumn `json:"numeric"`
	Categorical    []FeatureColumn `json:"categorical"`
	ComposedWidth  int             `json:"composed_width"`
}
