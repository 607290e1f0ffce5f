package inference

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"CreditScore/internal/domain/models"
	"CreditScore/pkg/config"
	xhttp "CreditScore/pkg/http"
)

// HTTPServiceBase is the shared JSON client for the remote model server.
type HTTPServiceBase struct {
	baseURL  string
	client   *xhttp.Client
	attempts int
}

// NewHTTPServiceBase builds an HTTP client with timeout, retries and base URL from config.
func NewHTTPServiceBase(cfg *config.Config) *HTTPServiceBase {
	timeout := cfg.Models.Classifier.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPServiceBase{
		baseURL:  strings.TrimRight(cfg.Models.Classifier.URL, "/"),
		client:   xhttp.NewClient(xhttp.WithTimeout(timeout)),
		attempts: cfg.Models.Classifier.Retries,
	}
}

// GetJSON fetches `path` under baseURL and decodes JSON into dest.
func (b *HTTPServiceBase) GetJSON(ctx context.Context, path string, dest interface{}) error {
	return b.do(ctx, xhttp.MethodGet, path, nil, dest)
}

// PostJSON posts the given payload to `path` under baseURL and decodes JSON into dest.
func (b *HTTPServiceBase) PostJSON(ctx context.Context, path string, payload interface{}, dest interface{}) error {
	return b.do(ctx, xhttp.MethodPost, path, payload, dest)
}

func (b *HTTPServiceBase) do(ctx context.Context, method, path string, payload interface{}, dest interface{}) error {
	if b.client == nil || b.baseURL == "" {
		return fmt.Errorf("model server client not initialized")
	}
	opts := &xhttp.RequestOptions{
		Method: method,
		URL:    b.baseURL + path,
		Body:   payload,
	}
	if payload != nil {
		opts.Headers = map[string]string{"Content-Type": "application/json"}
	}
	if err := b.client.SendAndParse(ctx, opts, dest); err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	return nil
}

// PostJSONWithRetry posts JSON with up to the configured number of attempts.
// Client errors other than 429 end the loop early.
func (b *HTTPServiceBase) PostJSONWithRetry(ctx context.Context, path string, payload interface{}, dest interface{}) error {
	if b.attempts <= 1 {
		return b.PostJSON(ctx, path, payload, dest)
	}
	var err error
	for i := 1; i <= b.attempts; i++ {
		err = b.PostJSON(ctx, path, payload, dest)
		if err == nil {
			return nil
		}
		if i == b.attempts || !xhttp.IsRetryable(err) {
			break
		}
		select {
		case <-time.After(time.Duration(i) * 50 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

type modelDescription struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	NFeaturesIn int            `json:"n_features_in"`
	Categories  map[string]int `json:"category_cardinality,omitempty"`
}

type predictRequest struct {
	Instances [][]float64 `json:"instances"`
}

type predictResponse struct {
	Predictions []int `json:"predictions"`
}

// HTTPClassifier delegates prediction to a model server that keeps the
// trained estimator.
type HTTPClassifier struct {
	base       *HTTPServiceBase
	name       string
	version    string
	width      int
	categories map[string]int
}

// NewHTTPClassifier asks the model server for the declared input width of
// the named model.
func NewHTTPClassifier(ctx context.Context, base *HTTPServiceBase, name string) (*HTTPClassifier, error) {
	var desc modelDescription
	if err := base.GetJSON(ctx, "/models/"+url.PathEscape(name), &desc); err != nil {
		return nil, fmt.Errorf("describe model %s: %w", name, err)
	}
	if desc.NFeaturesIn <= 0 {
		return nil, fmt.Errorf("describe model %s: n_features_in must be positive", name)
	}
	return &HTTPClassifier{
		base:       base,
		name:       name,
		version:    desc.Version,
		width:      desc.NFeaturesIn,
		categories: desc.Categories,
	}, nil
}

func (c *HTTPClassifier) InputWidth() int { return c.width }

func (c *HTTPClassifier) Ref() models.ArtifactRef {
	return models.ArtifactRef{Name: c.name, Version: c.version, Kind: KindRemote}
}

func (c *HTTPClassifier) Predict(ctx context.Context, row []float64) (int, error) {
	if err := checkWidth("classifier", c.name, c.width, len(row)); err != nil {
		return 0, err
	}
	var resp predictResponse
	path := "/models/" + url.PathEscape(c.name) + "/predict"
	if err := c.base.PostJSONWithRetry(ctx, path, predictRequest{Instances: [][]float64{row}}, &resp); err != nil {
		return 0, err
	}
	if len(resp.Predictions) != 1 {
		return 0, fmt.Errorf("model %s returned %d predictions for one instance", c.name, len(resp.Predictions))
	}
	return resp.Predictions[0], nil
}
