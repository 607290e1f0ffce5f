package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"CreditScore/internal/domain/models"
	drepo "CreditScore/internal/domain/repository"
	"CreditScore/internal/service/cache"
	"CreditScore/internal/service/metrics"
	"CreditScore/internal/services/dashboard"
	applogger "CreditScore/pkg/logger"
)

// DatasetExplorer backs the Home and Dataset Story pages.
type DatasetExplorer struct {
	repo       drepo.DatasetRepository
	summarizer *dashboard.Summarizer
	cache      cache.BytesCache
	ttl        time.Duration
	source     string
	l          *applogger.Logger
}

// NewDatasetExplorer creates the explorer. A nil cache or zero ttl disables
// summary caching.
func NewDatasetExplorer(repo drepo.DatasetRepository, summarizer *dashboard.Summarizer, c cache.BytesCache, ttl time.Duration, source string) *DatasetExplorer {
	return &DatasetExplorer{repo: repo, summarizer: summarizer, cache: c, ttl: ttl, source: source}
}

// SetLogger injects a structured logger.
func (e *DatasetExplorer) SetLogger(l *applogger.Logger) { e.l = l }

// RecordsResult is one page of filtered records.
type RecordsResult struct {
	Total    int                   `json:"total"`
	Filtered int                   `json:"filtered"`
	Page     int                   `json:"page"`
	Size     int                   `json:"size"`
	Records  []models.CreditRecord `json:"records"`
}

// Records returns the requested page of records matching the filter.
func (e *DatasetExplorer) Records(ctx context.Context, req models.RecordsRequest) (*RecordsResult, error) {
	if err := validateFilter(req.DatasetFilter); err != nil {
		return nil, err
	}
	all, err := e.repo.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	filtered := dashboard.Filter(all, req.DatasetFilter)
	return &RecordsResult{
		Total:    len(all),
		Filtered: len(filtered),
		Page:     req.Page,
		Size:     req.Size,
		Records:  dashboard.Page(filtered, req.Page, req.Size),
	}, nil
}

// Summary computes every dashboard aggregate for the filter, serving from
// cache when a fresh entry exists.
func (e *DatasetExplorer) Summary(ctx context.Context, f models.DatasetFilter) (*models.DatasetSummary, error) {
	if err := validateFilter(f); err != nil {
		return nil, err
	}
	key := e.cacheKey(f)
	if e.cachingEnabled() {
		b, ok, err := e.cache.GetBytes(ctx, key)
		metrics.ObserveLookup("summary", ok, err)
		if err == nil && ok {
			var s models.DatasetSummary
			if jerr := json.Unmarshal(b, &s); jerr == nil {
				return &s, nil
			}
		} else if err != nil && e.l != nil {
			e.l.Warn("summary cache get failed", applogger.Error(err))
		}
	}

	start := time.Now()
	all, err := e.repo.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	s := e.summarizer.Summarize(all, f)
	metrics.SummaryLatency.WithLabelValues(e.source).Observe(time.Since(start).Seconds())

	if e.cachingEnabled() {
		if b, err := json.Marshal(s); err == nil {
			if err := e.cache.SetBytes(ctx, key, b, e.ttl); err != nil && e.l != nil {
				e.l.Warn("summary cache set failed", applogger.Error(err))
			}
		}
	}
	return s, nil
}

func (e *DatasetExplorer) cachingEnabled() bool {
	return e.cache != nil && e.ttl > 0
}

// cacheKey is stable under reordering of multi-value filters.
func (e *DatasetExplorer) cacheKey(f models.DatasetFilter) string {
	norm := func(vs []string) string {
		c := append([]string(nil), vs...)
		sort.Strings(c)
		return strings.Join(c, ",")
	}
	raw := fmt.Sprintf("%s|%s|%d|%d|%s|%s", e.source, norm(f.CreditScores), f.AgeMin, f.AgeMax, f.Occupation, norm(f.Months))
	sum := sha256.Sum256([]byte(raw))
	return "summary:" + hex.EncodeToString(sum[:8])
}

// ErrInvalidFilter is returned for contradictory filter bounds.
var ErrInvalidFilter = errors.New("invalid dataset filter")

func validateFilter(f models.DatasetFilter) error {
	if f.AgeMin > 0 && f.AgeMax > 0 && f.AgeMin > f.AgeMax {
		return fmt.Errorf("%w: age_min %d > age_max %d", ErrInvalidFilter, f.AgeMin, f.AgeMax)
	}
	return nil
}
