package inference

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CreditScore/pkg/config"
)

func newModelServer(t *testing.T, width int, predictions []int, failFirst int32) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/models/supervised_classifier", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"name":          "supervised_classifier",
			"version":       "7",
			"n_features_in": width,
		})
	})
	mux.HandleFunc("/models/supervised_classifier/predict", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n <= failFirst {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		var req predictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Instances) != 1 || len(req.Instances[0]) != width {
			http.Error(w, "bad instances", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(predictResponse{Predictions: predictions})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &calls
}

func remoteConfig(url string, retries int) *config.Config {
	cfg := &config.Config{}
	cfg.Models.Classifier.URL = url + "/"
	cfg.Models.Classifier.Timeout = time.Second
	cfg.Models.Classifier.Retries = retries
	return cfg
}

func TestHTTPClassifier(t *testing.T) {
	srv, _ := newModelServer(t, 3, []int{1}, 0)
	base := NewHTTPServiceBase(remoteConfig(srv.URL, 1))

	c, err := NewHTTPClassifier(context.Background(), base, "supervised_classifier")
	require.NoError(t, err)
	assert.Equal(t, 3, c.InputWidth())
	assert.Equal(t, "7", c.Ref().Version)
	assert.Equal(t, KindRemote, c.Ref().Kind)

	label, err := c.Predict(context.Background(), []float64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 1, label)

	_, err = c.Predict(context.Background(), []float64{1})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestHTTPClassifier_Retry(t *testing.T) {
	srv, calls := newModelServer(t, 1, []int{0}, 2)
	base := NewHTTPServiceBase(remoteConfig(srv.URL, 3))

	c, err := NewHTTPClassifier(context.Background(), base, "supervised_classifier")
	require.NoError(t, err)

	label, err := c.Predict(context.Background(), []float64{1})
	require.NoError(t, err)
	assert.Equal(t, 0, label)
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
}

func TestHTTPClassifier_Errors(t *testing.T) {
	srv, _ := newModelServer(t, 1, []int{0, 1}, 0)
	base := NewHTTPServiceBase(remoteConfig(srv.URL, 1))

	_, err := NewHTTPClassifier(context.Background(), base, "missing")
	assert.Error(t, err)

	c, err := NewHTTPClassifier(context.Background(), base, "supervised_classifier")
	require.NoError(t, err)
	_, err = c.Predict(context.Background(), []float64{1})
	assert.Error(t, err, "two predictions for one instance")

	empty := NewHTTPServiceBase(&config.Config{})
	assert.Error(t, empty.GetJSON(context.Background(), "/models/x", &struct{}{}))
}
