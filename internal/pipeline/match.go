package pipeline

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Amerigo2020/vestigas-co2-scribe/internal"
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/catalog"
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/config"
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/embedding"
)

// Matcher finds the catalog entry whose name embedding is closest to a
// delivery description. Catalog names are embedded once in Prepare; every
// Match after that costs one cache lookup plus a scan over the prepared
// vectors.
type Matcher struct {
	index   *catalog.Index
	cache   *embedding.Cache
	workers int
	logger  zerolog.Logger

	prepared bool
	names    []string
	vectors  [][]float64
	norms    []float64
}

func NewMatcher(cfg config.Config, index *catalog.Index, cache *embedding.Cache, logger zerolog.Logger) *Matcher {
	workers := cfg.EmbeddingWorkers
	if workers <= 0 {
		workers = 1
	}
	return &Matcher{
		index:   index,
		cache:   cache,
		workers: workers,
		logger:  logger.With().Str("component", "matcher").Logger(),
	}
}

// Prepare embeds every unique catalog name. Names without an embedding are
// left out of the candidate set. It returns an error only when ctx is done.
func (m *Matcher) Prepare(ctx context.Context) error {
	if m.prepared {
		return nil
	}
	start := time.Now()
	names := m.index.Names()
	vecs := make([][]float64, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for i, name := range names {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			vecs[i], _ = m.cache.Get(gctx, name)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.names = m.names[:0]
	m.vectors = m.vectors[:0]
	m.norms = m.norms[:0]
	for i, vec := range vecs {
		n := norm(vec)
		if n == 0 {
			continue
		}
		m.names = append(m.names, names[i])
		m.vectors = append(m.vectors, vec)
		m.norms = append(m.norms, n)
	}
	m.prepared = true

	m.logger.Info().
		Int("names", len(names)).
		Int("embedded", len(m.names)).
		Int("failed", len(names)-len(m.names)).
		Dur("took", time.Since(start)).
		Msg("catalog embeddings prepared")
	return nil
}

// Candidates is the number of catalog names that can be matched.
func (m *Matcher) Candidates() int {
	return len(m.names)
}

// Match returns the best catalog entry for description. The first of
// several equal scores wins. Anything that prevents a comparison yields the
// no-match result.
func (m *Matcher) Match(ctx context.Context, description string) internal.MatchResult {
	if len(m.vectors) == 0 {
		return internal.MatchResult{}
	}
	query, ok := m.cache.Get(ctx, description)
	if !ok {
		return internal.MatchResult{}
	}
	qn := norm(query)
	if qn == 0 {
		return internal.MatchResult{}
	}

	best, bestScore := -1, math.Inf(-1)
	for i, vec := range m.vectors {
		if len(vec) != len(query) {
			continue
		}
		score := dot(query, vec) / (qn * m.norms[i])
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return internal.MatchResult{}
	}

	entry, ok := m.index.Lookup(m.names[best])
	if !ok {
		return internal.MatchResult{}
	}
	return internal.MatchResult{Entry: entry, Similarity: clamp01(bestScore)}
}

// MatchAll prepares the catalog, warms the cache with every description in
// parallel and then matches records in order. The result has one entry per
// record.
func (m *Matcher) MatchAll(ctx context.Context, records []internal.DeliveryRecord) ([]internal.MatchResult, error) {
	if err := m.Prepare(ctx); err != nil {
		return nil, err
	}

	if len(m.vectors) > 0 {
		seen := make(map[string]struct{}, len(records))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(m.workers)
		for _, rec := range records {
			if _, ok := seen[rec.Description]; ok {
				continue
			}
			seen[rec.Description] = struct{}{}
			desc := rec.Description
			g.Go(func() error {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				m.cache.Get(gctx, desc)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]internal.MatchResult, len(records))
	for i, rec := range records {
		out[i] = m.Match(ctx, rec.Description)
	}
	return out, nil
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func norm(v []float64) float64 {
	n := math.Sqrt(dot(v, v))
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return n
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
