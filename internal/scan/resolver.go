// Package scan resolves scanned barcodes into product details, using the
// store catalog first and an external analysis service as a fallback, and
// recommends better alternatives from the catalog.
package scan

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"purepick/internal/models"
	"purepick/internal/repository"
	"purepick/internal/telemetry"
)

// FinishReasonStop is the finish reason of a generation that completed normally.
const FinishReasonStop = "STOP"

const (
	catalogEcoJustification   = "This score is based on an analysis of the product's category, ingredients, and typical manufacturing processes."
	catalogNutriJustification = "This score reflects the product's nutritional profile, including factors like sugar, fat, and vitamin content, relative to other items in its category."
)

// AnalysisResponse is the raw output of the analysis service.
type AnalysisResponse struct {
	Text         string
	FinishReason string
	BlockReason  string
}

// Analyzer identifies a barcode the catalog does not know.
type Analyzer interface {
	Analyze(ctx context.Context, barcode string, categories []string) (*AnalysisResponse, error)
}

// AnalysisCache remembers validated analyses. Keys come from analysisKey.
type AnalysisCache interface {
	GetAnalysis(ctx context.Context, key string) (*models.ScannedProductDetails, error)
	PutAnalysis(ctx context.Context, key string, details *models.ScannedProductDetails, ttl time.Duration) error
}

// analysisKey identifies one analysis. The analyzer picks a category from the
// list it is given, so the same barcode under another category set is a
// different analysis.
func analysisKey(code string, categories []string) string {
	sum := sha256.Sum256([]byte(strings.Join(categories, "\x00")))
	return code + ":" + hex.EncodeToString(sum[:8])
}

type Option func(*Resolver)

func WithCache(cache AnalysisCache, ttl time.Duration) Option {
	return func(r *Resolver) {
		r.cache = cache
		r.cacheTTL = ttl
	}
}

func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.timeout = d }
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

type Resolver struct {
	analyzer Analyzer
	cache    AnalysisCache
	cacheTTL time.Duration
	timeout  time.Duration
	logger   *zap.Logger
	shuffle  shuffleFunc
	group    singleflight.Group
}

// NewResolver builds a resolver. A nil analyzer disables the fallback; unknown
// barcodes then fail with ErrAnalysisUnavailable.
func NewResolver(analyzer Analyzer, opts ...Option) *Resolver {
	r := &Resolver{
		analyzer: analyzer,
		timeout:  20 * time.Second,
		logger:   zap.NewNop(),
		shuffle:  rand.Shuffle,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve looks code up in catalog, then in the analysis cache, then asks the
// analyzer. Only analyzer failures return an error.
func (r *Resolver) Resolve(ctx context.Context, code string, catalog []models.Product, categories []string) (*models.Resolution, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "scan.Resolve")
	defer span.End()
	span.SetAttributes(attribute.String("barcode", code))

	res, err := r.resolve(ctx, code, catalog, categories)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("resolution.status", string(res.Status)),
		attribute.String("resolution.source", string(res.Source)),
	)
	return res, nil
}

func (r *Resolver) resolve(ctx context.Context, code string, catalog []models.Product, categories []string) (*models.Resolution, error) {
	for _, p := range catalog {
		if p.Barcode == code {
			details := detailsFromProduct(p)
			details.Recommendations = recommend(details, code, catalog, r.shuffle)
			return &models.Resolution{
				Status:  models.ResolutionResolved,
				Source:  models.SourceCatalog,
				Barcode: code,
				Details: details,
			}, nil
		}
	}

	key := analysisKey(code, categories)
	if cached := r.cached(ctx, key); cached != nil {
		cached.Recommendations = recommend(cached, code, catalog, r.shuffle)
		return &models.Resolution{
			Status:  models.ResolutionResolved,
			Source:  models.SourceCache,
			Barcode: code,
			Details: cached,
		}, nil
	}

	if r.analyzer == nil {
		return nil, newAnalysisError(ErrAnalysisUnavailable, "product analysis is not configured", nil)
	}

	// Callers scanning the same code share one request. It runs detached from
	// any single caller so one cancelled scan does not fail the others.
	detached := context.WithoutCancel(ctx)
	ch := r.group.DoChan(key, func() (interface{}, error) {
		return r.analyze(detached, code, categories)
	})

	var shared *models.ScannedProductDetails
	select {
	case <-ctx.Done():
		return nil, abandonedError(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		shared = res.Val.(*models.ScannedProductDetails)
	}

	details := shared.Clone()
	details.Recommendations = []models.Product{}
	if details.ProductName == models.UnknownProductName {
		return &models.Resolution{
			Status:  models.ResolutionNotFound,
			Source:  models.SourceAnalysis,
			Barcode: code,
			Details: details,
		}, nil
	}
	details.Recommendations = recommend(details, code, catalog, r.shuffle)
	return &models.Resolution{
		Status:  models.ResolutionResolved,
		Source:  models.SourceAnalysis,
		Barcode: code,
		Details: details,
	}, nil
}

func (r *Resolver) cached(ctx context.Context, key string) *models.ScannedProductDetails {
	if r.cache == nil {
		return nil
	}
	details, err := r.cache.GetAnalysis(ctx, key)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			r.logger.Warn("analysis cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil
	}
	return details
}

func (r *Resolver) analyze(ctx context.Context, code string, categories []string) (*models.ScannedProductDetails, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	resp, err := r.analyzer.Analyze(callCtx, code, categories)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			r.logger.Warn("analysis timed out", zap.String("barcode", code), zap.Duration("timeout", r.timeout))
			return nil, newAnalysisError(ErrAnalysisTimeout,
				fmt.Sprintf("analysis did not finish within %s", r.timeout), err)
		}
		r.logger.Error("analysis request failed", zap.String("barcode", code), zap.Error(err))
		return nil, newAnalysisError(ErrAnalysisUnavailable, "an error occurred while analyzing the barcode", err)
	}

	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		if resp == nil {
			resp = &AnalysisResponse{}
		}
		r.logger.Warn("analysis returned no text",
			zap.String("barcode", code),
			zap.String("finish_reason", resp.FinishReason),
			zap.String("block_reason", resp.BlockReason))
		return nil, emptyResponseError(resp)
	}

	details, err := parseDetails(resp.Text)
	if err != nil {
		r.logger.Warn("analysis returned malformed JSON",
			zap.String("barcode", code), zap.String("text", resp.Text), zap.Error(err))
		return nil, newAnalysisError(ErrUnexpectedFormat,
			"the analysis returned data in an unexpected format, please try scanning again", err)
	}

	r.logger.Info("analysis completed",
		zap.String("barcode", code),
		zap.String("product", details.ProductName),
		zap.Duration("duration", time.Since(start)))

	if r.cache != nil && details.ProductName != models.UnknownProductName {
		if err := r.cache.PutAnalysis(ctx, analysisKey(code, categories), details, r.cacheTTL); err != nil {
			r.logger.Warn("analysis cache write failed", zap.String("barcode", code), zap.Error(err))
		}
	}
	return details, nil
}

func detailsFromProduct(p models.Product) *models.ScannedProductDetails {
	d := &models.ScannedProductDetails{
		ProductName:             p.Name,
		Ingredients:             p.Description,
		IsFoodProduct:           p.IsFood(),
		Category:                p.Category,
		EcologicalScore:         p.EcologicalScore,
		EcologicalJustification: catalogEcoJustification,
	}
	if p.Brand != "" {
		brand := p.Brand
		d.Brand = &brand
	}
	if p.NutritionalScore != nil {
		d.NutritionalScore = models.IntPtr(*p.NutritionalScore)
		j := catalogNutriJustification
		d.NutritionalJustification = &j
	}
	return d
}
