package inference

import (
	"fmt"
	"math"
	"sort"

	"CreditScore/internal/domain/models"
	"CreditScore/internal/domain/service"
)

// boundsThreshold matches the clipping margin of scikit-learn's QuantileTransformer.
const boundsThreshold = 1e-7

var (
	normalClipMin = normPPF(boundsThreshold - epsilon)
	normalClipMax = normPPF(1 - (boundsThreshold - epsilon))
)

const epsilon = 2.220446049250313e-16

type header struct {
	env Envelope
}

func (h header) InputWidth() int { return h.env.NFeaturesIn }

func (h header) Ref() models.ArtifactRef { return h.env.Ref() }

func (h header) check(stage string, row []float64) error {
	return checkWidth(stage, h.env.Name, h.env.NFeaturesIn, len(row))
}

// QuantileScaler maps each feature through its fitted quantiles onto a
// uniform or standard normal distribution.
type QuantileScaler struct {
	header
	normal     bool
	quantiles  [][]float64
	references []float64

	negQuantiles  [][]float64
	negReferences []float64
}

type quantileParams struct {
	OutputDistribution string      `json:"output_distribution"`
	Quantiles          [][]float64 `json:"quantiles"`
	References         []float64   `json:"references"`
}

func newQuantileScaler(env Envelope) (*QuantileScaler, error) {
	var p quantileParams
	if err := env.params(&p); err != nil {
		return nil, err
	}
	if p.OutputDistribution != "uniform" && p.OutputDistribution != "normal" {
		return nil, fmt.Errorf("artifact %q: output_distribution must be uniform or normal", env.Name)
	}
	if len(p.References) < 2 {
		return nil, fmt.Errorf("artifact %q: at least two references required", env.Name)
	}
	if err := checkWidth("quantile params", env.Name, env.NFeaturesIn, len(p.Quantiles)); err != nil {
		return nil, err
	}
	s := &QuantileScaler{
		header:        header{env: env},
		normal:        p.OutputDistribution == "normal",
		quantiles:     p.Quantiles,
		references:    p.References,
		negReferences: negReversed(p.References),
		negQuantiles:  make([][]float64, len(p.Quantiles)),
	}
	for i, q := range p.Quantiles {
		if len(q) != len(p.References) {
			return nil, fmt.Errorf("artifact %q: feature %d has %d quantiles, want %d", env.Name, i, len(q), len(p.References))
		}
		if !sort.Float64sAreSorted(q) {
			return nil, fmt.Errorf("artifact %q: quantiles of feature %d are not sorted", env.Name, i)
		}
		s.negQuantiles[i] = negReversed(q)
	}
	return s, nil
}

func (s *QuantileScaler) Transform(row []float64) ([]float64, error) {
	if err := s.check("scaler", row); err != nil {
		return nil, err
	}
	out := make([]float64, len(row))
	for i, x := range row {
		out[i] = s.transformValue(i, x)
	}
	return out, nil
}

func (s *QuantileScaler) transformValue(i int, x float64) float64 {
	if math.IsNaN(x) {
		return x
	}
	q := s.quantiles[i]
	lowX, highX := q[0], q[len(q)-1]

	var atLow, atHigh bool
	if s.normal {
		atLow = x-boundsThreshold < lowX
		atHigh = x+boundsThreshold > highX
	} else {
		atLow = x == lowX
		atHigh = x == highX
	}

	// Averaging the forward and reversed interpolation handles repeated quantiles.
	v := 0.5 * (interp(x, q, s.references) - interp(-x, s.negQuantiles[i], s.negReferences))
	if atHigh {
		v = 1
	}
	if atLow {
		v = 0
	}
	if !s.normal {
		return v
	}
	return math.Min(math.Max(normPPF(v), normalClipMin), normalClipMax)
}

// interp is piecewise-linear interpolation with numpy.interp semantics:
// xp ascending, values outside the range clamp to the end points.
func interp(x float64, xp, fp []float64) float64 {
	n := len(xp)
	if x < xp[0] {
		return fp[0]
	}
	if x > xp[n-1] {
		return fp[n-1]
	}
	j := sort.Search(n, func(i int) bool { return xp[i] > x }) - 1
	if j >= n-1 {
		return fp[n-1]
	}
	if xp[j] == x {
		return fp[j]
	}
	slope := (fp[j+1] - fp[j]) / (xp[j+1] - xp[j])
	return slope*(x-xp[j]) + fp[j]
}

func negReversed(v []float64) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		out[len(v)-1-i] = -v[i]
	}
	return out
}

func normPPF(p float64) float64 {
	return math.Sqrt2 * math.Erfinv(2*p-1)
}

// CenterScaler computes (x - center) / scale per feature. It serves both
// standard (mean, std) and robust (median, IQR) scaling.
type CenterScaler struct {
	header
	center []float64
	scale  []float64
}

type centerParams struct {
	Mean   []float64 `json:"mean"`
	Center []float64 `json:"center"`
	Scale  []float64 `json:"scale"`
}

func newCenterScaler(env Envelope) (*CenterScaler, error) {
	var p centerParams
	if err := env.params(&p); err != nil {
		return nil, err
	}
	center := p.Center
	if env.Kind == KindStandard {
		center = p.Mean
	}
	if center != nil {
		if err := checkWidth("center params", env.Name, env.NFeaturesIn, len(center)); err != nil {
			return nil, err
		}
	}
	if p.Scale != nil {
		if err := checkWidth("scale params", env.Name, env.NFeaturesIn, len(p.Scale)); err != nil {
			return nil, err
		}
	}
	scale := make([]float64, len(p.Scale))
	for i, v := range p.Scale {
		if v == 0 {
			v = 1
		}
		scale[i] = v
	}
	return &CenterScaler{header: header{env: env}, center: center, scale: scale}, nil
}

func (s *CenterScaler) Transform(row []float64) ([]float64, error) {
	if err := s.check("scaler", row); err != nil {
		return nil, err
	}
	out := make([]float64, len(row))
	for i, x := range row {
		if s.center != nil {
			x -= s.center[i]
		}
		if len(s.scale) > 0 {
			x /= s.scale[i]
		}
		out[i] = x
	}
	return out, nil
}

// MinMaxScaler computes x * scale + min per feature.
type MinMaxScaler struct {
	header
	min   []float64
	scale []float64
}

type minMaxParams struct {
	Min   []float64 `json:"min"`
	Scale []float64 `json:"scale"`
}

func newMinMaxScaler(env Envelope) (*MinMaxScaler, error) {
	var p minMaxParams
	if err := env.params(&p); err != nil {
		return nil, err
	}
	if err := checkWidth("min params", env.Name, env.NFeaturesIn, len(p.Min)); err != nil {
		return nil, err
	}
	if err := checkWidth("scale params", env.Name, env.NFeaturesIn, len(p.Scale)); err != nil {
		return nil, err
	}
	return &MinMaxScaler{header: header{env: env}, min: p.Min, scale: p.Scale}, nil
}

func (s *MinMaxScaler) Transform(row []float64) ([]float64, error) {
	if err := s.check("scaler", row); err != nil {
		return nil, err
	}
	out := make([]float64, len(row))
	for i, x := range row {
		out[i] = x*s.scale[i] + s.min[i]
	}
	return out, nil
}

// DecodeScaler builds a scaler from artifact bytes.
func DecodeScaler(b []byte) (service.Scaler, error) {
	env, err := decodeEnvelope(b)
	if err != nil {
		return nil, err
	}
	if env.NFeaturesOut != 0 && env.NFeaturesOut != env.NFeaturesIn {
		return nil, fmt.Errorf("artifact %q: scaler must preserve width", env.Name)
	}
	var (
		s      service.Scaler
		decErr error
	)
	switch env.Kind {
	case KindQuantile:
		var q *QuantileScaler
		q, decErr = newQuantileScaler(env)
		s = q
	case KindStandard, KindRobust:
		var c *CenterScaler
		c, decErr = newCenterScaler(env)
		s = c
	case KindMinMax:
		var m *MinMaxScaler
		m, decErr = newMinMaxScaler(env)
		s = m
	default:
		return nil, fmt.Errorf("artifact %q: %q is not a scaler kind", env.Name, env.Kind)
	}
	if decErr != nil {
		return nil, decErr
	}
	return s, nil
}
