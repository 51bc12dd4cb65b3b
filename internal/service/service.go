package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/emso-eric/geo2coverage/internal/cache"
	"github.com/emso-eric/geo2coverage/internal/covjson"
	"github.com/emso-eric/geo2coverage/internal/erddap"
	"github.com/emso-eric/geo2coverage/internal/metadata"
	"github.com/emso-eric/geo2coverage/internal/models"
	"github.com/emso-eric/geo2coverage/internal/observability"
)

// CoverageService orchestrates the data-to-CoverageJSON pipeline: fetch
// rows and metadata from ERDDAP, resolve columns against the controlled
// vocabulary, assemble the coverage document. Response caching is
// cache-aside and optional.
type CoverageService struct {
	fetcher   erddap.Fetcher
	cache     cache.Cache // nil disables response caching
	cacheTTL  time.Duration
	vocabHost string
}

// NewCoverageService creates a CoverageService. cache may be nil; ttl is
// the response-cache expiry; vocabHost falls back to the NVS default when
// empty.
func NewCoverageService(fetcher erddap.Fetcher, cache cache.Cache, cacheTTL time.Duration, vocabHost string) *CoverageService {
	return &CoverageService{
		fetcher:   fetcher,
		cache:     cache,
		cacheTTL:  cacheTTL,
		vocabHost: vocabHost,
	}
}

// loggerFromContext extracts the request-scoped zap.Logger if present.
func loggerFromContext(ctx context.Context) *zap.Logger {
	if v := ctx.Value("logger"); v != nil {
		if l, ok := v.(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return zap.NewNop()
}

// GetCoverage fetches a dataset's rows for the verbatim rawQuery and
// returns the assembled coverage document.
//
// An upstream data-fetch status >= 400 short-circuits the pipeline: the
// *erddap.UpstreamError (status + verbatim body) propagates untouched and
// the metadata endpoint is never called. There is no retry logic anywhere
// in this path; transient failures surface directly. Malformed vocabulary
// codes degrade to parameters without a definition URI and never fail the
// request.
func (s *CoverageService) GetCoverage(ctx context.Context, datasetID, rawQuery string) (*covjson.Coverage, error) {
	logger := loggerFromContext(ctx)
	key := cacheKey(datasetID, rawQuery)
	start := time.Now()

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			observability.CacheErrorsTotal.WithLabelValues("get").Inc()
			logger.Warn("cache get failed", zap.String("dataset", datasetID), zap.Error(err))
		} else if ok {
			observability.CoverageCacheHitsTotal.Inc()
			logger.Debug("coverage served",
				zap.String("dataset", datasetID),
				zap.Bool("cached", true),
				zap.Duration("duration", time.Since(start)))
			return cached, nil
		}
	}

	data, err := s.fetcher.FetchData(ctx, datasetID, rawQuery)
	if err != nil {
		return nil, err
	}

	meta, err := s.fetcher.FetchMetadata(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	resolver, err := metadata.NewResolver(meta, s.vocabHost)
	if err != nil {
		return nil, fmt.Errorf("resolve metadata for %s: %w", datasetID, err)
	}

	resolved := make(map[string]models.VariableMeta, len(data.ColumnNames))
	for _, column := range data.ColumnNames {
		vm, err := resolver.Resolve(column)
		if err != nil {
			observability.VocabResolutionErrorsTotal.Inc()
			logger.Warn("vocabulary resolution failed",
				zap.String("dataset", datasetID),
				zap.String("variable", column),
				zap.Error(err))
		}
		resolved[column] = vm
	}

	assembleStart := time.Now()
	doc, err := covjson.Assemble(data, resolved)
	if err != nil {
		return nil, err
	}
	observability.CoverageAssemblyDuration.Observe(time.Since(assembleStart).Seconds())

	if s.cache != nil {
		if setErr := s.cache.Set(ctx, key, doc, s.cacheTTL); setErr != nil {
			observability.CacheErrorsTotal.WithLabelValues("set").Inc()
			logger.Warn("cache set failed", zap.String("dataset", datasetID), zap.Error(setErr))
		}
	}

	logger.Debug("coverage served",
		zap.String("dataset", datasetID),
		zap.Int("rows", data.NumRows()),
		zap.Int("variables", len(doc.Parameters)),
		zap.Bool("cached", false),
		zap.Duration("duration", time.Since(start)))
	return doc, nil
}

// cacheKey distinguishes requests for the same dataset with different
// tabledap queries.
func cacheKey(datasetID, rawQuery string) string {
	if rawQuery == "" {
		return datasetID
	}
	return datasetID + "?" + rawQuery
}
