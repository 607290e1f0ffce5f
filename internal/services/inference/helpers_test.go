package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type memSource map[string][]byte

func (m memSource) Open(_ context.Context, name string) ([]byte, error) {
	b, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("artifact %s: not found", name)
	}
	return b, nil
}

func artifact(t *testing.T, name, kind string, in, out int, params interface{}) []byte {
	t.Helper()
	doc := map[string]interface{}{
		"name":           name,
		"version":        "test",
		"kind":           kind,
		"n_features_in":  in,
		"n_features_out": out,
		"params":         params,
	}
	b, err := json.Marshal(doc)
	require.NoError(t, err)
	return b
}

func filled(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func seq(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func identityScaler(t *testing.T, name string, width int) []byte {
	return artifact(t, name, KindStandard, width, width, map[string]interface{}{
		"mean":  filled(width, 0),
		"scale": filled(width, 1),
	})
}

func constantClassifier(t *testing.T, name string, width int, intercept float64) []byte {
	return artifact(t, name, KindLogistic, width, 1, map[string]interface{}{
		"coef":      filled(width, 0),
		"intercept": intercept,
	})
}

func firstComponentPCA(t *testing.T, name string) []byte {
	return artifact(t, name, KindPCA, 2, 1, map[string]interface{}{
		"mean":       []float64{0, 0},
		"components": [][]float64{{1, 0}},
	})
}
