package inference

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantileScaler_Uniform(t *testing.T) {
	b := artifact(t, "q", KindQuantile, 2, 2, map[string]interface{}{
		"output_distribution": "uniform",
		"quantiles":           [][]float64{{0, 10, 20}, {0, 5, 10}},
		"references":          []float64{0, 0.5, 1},
	})
	s, err := DecodeScaler(b)
	require.NoError(t, err)
	assert.Equal(t, 2, s.InputWidth())

	tests := []struct {
		name string
		row  []float64
		want []float64
	}{
		{"interior", []float64{5, 2.5}, []float64{0.25, 0.25}},
		{"at quantile", []float64{10, 1}, []float64{0.5, 0.1}},
		{"below range", []float64{-3, -1}, []float64{0, 0}},
		{"above range", []float64{25, 12}, []float64{1, 1}},
		{"upper bound", []float64{20, 5}, []float64{1, 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Transform(tt.row)
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.want, got, 1e-12)
		})
	}
}

func TestQuantileScaler_RepeatedQuantiles(t *testing.T) {
	b := artifact(t, "q", KindQuantile, 1, 1, map[string]interface{}{
		"output_distribution": "uniform",
		"quantiles":           [][]float64{{0, 5, 5, 10}},
		"references":          []float64{0, 1.0 / 3, 2.0 / 3, 1},
	})
	s, err := DecodeScaler(b)
	require.NoError(t, err)

	got, err := s.Transform([]float64{5})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, got[0], 1e-12)
}

func TestQuantileScaler_Normal(t *testing.T) {
	b := artifact(t, "q", KindQuantile, 1, 1, map[string]interface{}{
		"output_distribution": "normal",
		"quantiles":           [][]float64{{0, 10, 20, 30, 40}},
		"references":          []float64{0, 0.25, 0.5, 0.75, 1},
	})
	s, err := DecodeScaler(b)
	require.NoError(t, err)

	got, err := s.Transform([]float64{20})
	require.NoError(t, err)
	assert.InDelta(t, 0, got[0], 1e-12)

	got, err = s.Transform([]float64{10})
	require.NoError(t, err)
	assert.InDelta(t, -0.6744897501960817, got[0], 1e-9)

	got, err = s.Transform([]float64{-100})
	require.NoError(t, err)
	assert.InDelta(t, -5.199337582605575, got[0], 1e-6)

	got, err = s.Transform([]float64{100})
	require.NoError(t, err)
	assert.InDelta(t, 5.199337582605575, got[0], 1e-6)
}

func TestCenterScaler(t *testing.T) {
	standard := artifact(t, "std", KindStandard, 2, 2, map[string]interface{}{
		"mean":  []float64{1, 2},
		"scale": []float64{2, 0},
	})
	s, err := DecodeScaler(standard)
	require.NoError(t, err)
	got, err := s.Transform([]float64{3, 5})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3}, got)

	robust := artifact(t, "rob", KindRobust, 2, 2, map[string]interface{}{
		"center": []float64{10, 0},
		"scale":  []float64{5, 4},
	})
	s, err = DecodeScaler(robust)
	require.NoError(t, err)
	got, err = s.Transform([]float64{20, -8})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, -2}, got)
}

func TestMinMaxScaler(t *testing.T) {
	b := artifact(t, "mm", KindMinMax, 1, 1, map[string]interface{}{
		"min":   []float64{-1},
		"scale": []float64{0.5},
	})
	s, err := DecodeScaler(b)
	require.NoError(t, err)
	got, err := s.Transform([]float64{4})
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, got)
}

func TestScaler_WidthMismatch(t *testing.T) {
	s, err := DecodeScaler(identityScaler(t, "std", 3))
	require.NoError(t, err)

	_, err = s.Transform([]float64{1, 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShapeMismatch))

	var se *ShapeError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 3, se.Expected)
	assert.Equal(t, 2, se.Got)
	assert.Equal(t, "std", se.Artifact)
}

func TestDecodeScaler_Invalid(t *testing.T) {
	tests := map[string][]byte{
		"not json":        []byte("{"),
		"no kind":         artifact(t, "x", "", 1, 1, map[string]interface{}{}),
		"zero width":      artifact(t, "x", KindStandard, 0, 0, map[string]interface{}{}),
		"unknown kind":    artifact(t, "x", KindPCA, 1, 1, map[string]interface{}{}),
		"width changes":   artifact(t, "x", KindStandard, 2, 3, map[string]interface{}{}),
		"short mean":      artifact(t, "x", KindStandard, 2, 2, map[string]interface{}{"mean": []float64{0}}),
		"minmax mismatch": artifact(t, "x", KindMinMax, 2, 2, map[string]interface{}{"min": []float64{0}, "scale": []float64{1, 1}}),
		"bad distribution": artifact(t, "x", KindQuantile, 1, 1, map[string]interface{}{
			"output_distribution": "poisson", "quantiles": [][]float64{{0, 1}}, "references": []float64{0, 1},
		}),
		"unsorted quantiles": artifact(t, "x", KindQuantile, 1, 1, map[string]interface{}{
			"output_distribution": "uniform", "quantiles": [][]float64{{1, 0}}, "references": []float64{0, 1},
		}),
		"quantile feature count": artifact(t, "x", KindQuantile, 2, 2, map[string]interface{}{
			"output_distribution": "uniform", "quantiles": [][]float64{{0, 1}}, "references": []float64{0, 1},
		}),
	}
	for name, b := range tests {
		t.Run(name, func(t *testing.T) {
			s, err := DecodeScaler(b)
			assert.Error(t, err)
			assert.Nil(t, s)
		})
	}
}
