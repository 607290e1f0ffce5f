package features

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog dimension names, also used as keys of artifact cardinality checks.
const (
	DimOccupation       = "occupation"
	DimPaymentBehaviour = "payment_behaviour"
	DimCreditMix        = "credit_mix"
	DimMinPayment       = "min_payment"
	DimLoanType         = "loan_type"
)

var ErrUnknownCategory = errors.New("unknown category")

// UnknownCategoryError reports a label that is not part of the catalog.
type UnknownCategoryError struct {
	Dimension string
	Label     string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("%s: %q is not a known %s", ErrUnknownCategory, e.Label, e.Dimension)
}

func (e *UnknownCategoryError) Unwrap() error { return ErrUnknownCategory }

// Category is one label and its training-time integer code.
type Category struct {
	Label string `yaml:"label" json:"label"`
	Code  int    `yaml:"code" json:"code"`
}

// Catalog is the versioned lookup table shared by both pipelines.
type Catalog struct {
	Version           string     `yaml:"version" json:"version"`
	Occupations       []Category `yaml:"occupations" json:"occupations"`
	PaymentBehaviours []Category `yaml:"payment_behaviours" json:"payment_behaviours"`
	CreditMixes       []Category `yaml:"credit_mixes" json:"credit_mixes"`
	MinPayment        []Category `yaml:"min_payment" json:"min_payment"`
	LoanTypes         []string   `yaml:"loan_types" json:"loan_types"`

	index map[string]map[string]int
}

// DefaultCatalog returns the catalog compiled into the binary.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// LoadCatalog reads a catalog file; an empty path yields the default catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(b)
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(b []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}
	c.buildIndex()
	return &c, nil
}

// Validate checks that every dimension has unique labels and dense codes 0..n-1.
func (c *Catalog) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("version is required")
	}
	dims := map[string][]Category{
		DimOccupation:       c.Occupations,
		DimPaymentBehaviour: c.PaymentBehaviours,
		DimCreditMix:        c.CreditMixes,
		DimMinPayment:       c.MinPayment,
	}
	for name, cats := range dims {
		if err := validateDimension(name, cats); err != nil {
			return err
		}
	}
	if len(c.LoanTypes) != LoanTypeCount {
		return fmt.Errorf("loan_types must list %d entries, got %d", LoanTypeCount, len(c.LoanTypes))
	}
	seen := make(map[string]struct{}, len(c.LoanTypes))
	for _, lt := range c.LoanTypes {
		if lt == "" {
			return fmt.Errorf("loan_types: empty label")
		}
		if _, dup := seen[lt]; dup {
			return fmt.Errorf("loan_types: duplicate label %q", lt)
		}
		seen[lt] = struct{}{}
	}
	return nil
}

func validateDimension(name string, cats []Category) error {
	if len(cats) == 0 {
		return fmt.Errorf("%s: no categories", name)
	}
	labels := make(map[string]struct{}, len(cats))
	codes := make(map[int]struct{}, len(cats))
	for _, cat := range cats {
		if cat.Label == "" {
			return fmt.Errorf("%s: empty label", name)
		}
		if _, dup := labels[cat.Label]; dup {
			return fmt.Errorf("%s: duplicate label %q", name, cat.Label)
		}
		if cat.Code < 0 || cat.Code >= len(cats) {
			return fmt.Errorf("%s: code %d of %q outside 0..%d", name, cat.Code, cat.Label, len(cats)-1)
		}
		if _, dup := codes[cat.Code]; dup {
			return fmt.Errorf("%s: duplicate code %d", name, cat.Code)
		}
		labels[cat.Label] = struct{}{}
		codes[cat.Code] = struct{}{}
	}
	return nil
}

func (c *Catalog) buildIndex() {
	c.index = make(map[string]map[string]int, 5)
	add := func(dim string, cats []Category) {
		m := make(map[string]int, len(cats))
		for _, cat := range cats {
			m[cat.Label] = cat.Code
		}
		c.index[dim] = m
	}
	add(DimOccupation, c.Occupations)
	add(DimPaymentBehaviour, c.PaymentBehaviours)
	add(DimCreditMix, c.CreditMixes)
	add(DimMinPayment, c.MinPayment)
	loans := make(map[string]int, len(c.LoanTypes))
	for i, lt := range c.LoanTypes {
		loans[lt] = i
	}
	c.index[DimLoanType] = loans
}

// Code returns the integer code of label in the given dimension.
func (c *Catalog) Code(dim, label string) (int, error) {
	if c.index == nil {
		c.buildIndex()
	}
	m, ok := c.index[dim]
	if !ok {
		return 0, fmt.Errorf("unknown catalog dimension %q", dim)
	}
	code, ok := m[label]
	if !ok {
		return 0, &UnknownCategoryError{Dimension: dim, Label: label}
	}
	return code, nil
}

// Cardinalities returns the number of categories per dimension.
func (c *Catalog) Cardinalities() map[string]int {
	return map[string]int{
		DimOccupation:       len(c.Occupations),
		DimPaymentBehaviour: len(c.PaymentBehaviours),
		DimCreditMix:        len(c.CreditMixes),
		DimMinPayment:       len(c.MinPayment),
		DimLoanType:         len(c.LoanTypes),
	}
}

// CheckCardinality compares the catalog with the cardinalities an artifact
// was trained on. Dimensions the artifact does not declare are skipped.
func (c *Catalog) CheckCardinality(expected map[string]int) error {
	have := c.Cardinalities()
	for dim, want := range expected {
		got, ok := have[dim]
		if !ok {
			return fmt.Errorf("artifact declares unknown dimension %q", dim)
		}
		if got != want {
			return fmt.Errorf("catalog %s has %d %s categories, artifact expects %d", c.Version, got, dim, want)
		}
	}
	return nil
}
