package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Amerigo2020/vestigas-co2-scribe/internal"
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/catalog"
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/config"
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/embedding"
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/emission"
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/metrics"
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/units"
)

// RunStore persists finished runs. storage.DB implements it.
type RunStore interface {
	InsertRun(run internal.RunRecord, rows []internal.ReportRow) (int64, error)
	SetMetadata(key, value string) error
}

type ProcessingService struct {
	cfg      config.Config
	provider embedding.Provider
	calc     emission.Calculator
	store    RunStore
	metrics  *metrics.Registry
	logger   zerolog.Logger
}

func NewProcessingService(cfg config.Config, provider embedding.Provider, logger zerolog.Logger) *ProcessingService {
	transport := emission.DefaultTransport()
	if cfg.TransportDistanceKm > 0 {
		transport.DistanceKm = cfg.TransportDistanceKm
	}
	if cfg.TransportFactorKgKm > 0 {
		transport.FactorPerKgKm = cfg.TransportFactorKgKm
	}
	return &ProcessingService{
		cfg:      cfg,
		provider: provider,
		calc:     emission.NewCalculator(transport),
		logger:   logger.With().Str("component", "pipeline").Logger(),
	}
}

// WithStore persists every run to store.
func (s *ProcessingService) WithStore(store RunStore) *ProcessingService {
	s.store = store
	return s
}

func (s *ProcessingService) WithMetrics(reg *metrics.Registry) *ProcessingService {
	s.metrics = reg
	return s
}

type RunInput struct {
	Catalog    []internal.CatalogEntry
	Deliveries []internal.DeliveryRecord
	Module     string
}

type RunResult struct {
	Run     internal.RunRecord
	Rows    []internal.ReportRow
	Summary internal.RunSummary
}

// Run processes every delivery against the catalog. Records never fail the
// run; errors come only from a cancelled context or the store.
func (s *ProcessingService) Run(ctx context.Context, in RunInput) (RunResult, error) {
	start := time.Now()
	trace := uuid.NewString()
	logger := s.logger.With().Str("trace_id", trace).Logger()

	module := in.Module
	if module == "" {
		module = s.cfg.CatalogModule
	}

	logger.Info().
		Int("catalog", len(in.Catalog)).
		Int("deliveries", len(in.Deliveries)).
		Str("provider", s.provider.Name()).
		Msg("run started")

	var observer embedding.Observer
	if s.metrics != nil {
		observer = s.metrics
	}
	idx := catalog.BuildIndex(in.Catalog, logger)
	cache := embedding.NewCache(s.provider, embedding.Timeout(s.cfg), logger, observer)
	matcher := NewMatcher(s.cfg, idx, cache, logger)

	phase := time.Now()
	if err := matcher.Prepare(ctx); err != nil {
		return RunResult{}, fmt.Errorf("prepare catalog embeddings: %w", err)
	}
	prepareDur := time.Since(phase)

	phase = time.Now()
	matches, err := matcher.MatchAll(ctx, in.Deliveries)
	if err != nil {
		return RunResult{}, fmt.Errorf("match deliveries: %w", err)
	}
	matchDur := time.Since(phase)

	phase = time.Now()
	rows := make([]internal.ReportRow, len(in.Deliveries))
	for i, rec := range in.Deliveries {
		if rec.LineNo == 0 {
			rec.LineNo = i + 1
		}
		rows[i] = s.processRecord(logger, rec, matches[i])
	}
	calcDur := time.Since(phase)

	summary := Summarize(rows, s.cfg.ReportTopN)
	run := internal.RunRecord{
		TraceID:       trace,
		Module:        module,
		CatalogCount:  len(in.Catalog),
		DeliveryCount: len(in.Deliveries),
		Summary:       summary,
		Timings: internal.Timings{
			PrepareMs: ms(prepareDur),
			MatchMs:   ms(matchDur),
			CalcMs:    ms(calcDur),
			TotalMs:   ms(time.Since(start)),
		},
		CreatedAt: time.Now().UTC(),
	}

	if s.store != nil {
		id, err := s.store.InsertRun(run, rows)
		if err != nil {
			return RunResult{}, fmt.Errorf("store run: %w", err)
		}
		run.ID = id
		_ = s.store.SetMetadata("run.last_trace_id", trace)
		_ = s.store.SetMetadata("run.last_completed", run.CreatedAt.Format(time.RFC3339))
	}
	if s.metrics != nil {
		s.metrics.ObserveRun(time.Since(start))
	}

	logger.Info().
		Int64("run_id", run.ID).
		Int("records", summary.TotalItems).
		Int("success", summary.SuccessItems).
		Int("no_match", summary.NoMatchItems).
		Int("embedding_calls", int(cache.Misses())).
		Int("cache_hits", int(cache.Hits())).
		Float64("total_co2e", summary.TotalCO2e).
		Float64("total_ms", run.Timings.TotalMs).
		Msg("run finished")

	return RunResult{Run: run, Rows: rows, Summary: summary}, nil
}

// processRecord runs reconcile, calculate and assemble for one record.
func (s *ProcessingService) processRecord(logger zerolog.Logger, rec internal.DeliveryRecord, match internal.MatchResult) internal.ReportRow {
	var refUnit string
	if match.Entry != nil {
		refUnit = match.Entry.ReferenceUnit
	}
	conv := units.Reconcile(units.Input{
		Quantity:      rec.Quantity,
		SourceUnit:    rec.SourceUnit,
		ReferenceUnit: refUnit,
		Description:   rec.Description,
		MaterialName:  match.MaterialName(),
		BulkDensity:   match.BulkDensity(),
	})
	res := s.calc.Calculate(rec.Quantity, conv, match.EmissionFactor())
	kind := emission.Classify(res.Status)

	if s.metrics != nil {
		s.metrics.ObserveRecord(string(kind), res.MaterialCO2e, res.TransportCO2e)
	}
	if !emission.IsSuccess(res.Status) {
		logger.Debug().
			Int("line", rec.LineNo).
			Str("description", rec.Description).
			Str("material", match.MaterialName()).
			Str("status", res.Status).
			Msg("record not calculated")
	}
	return AssembleRow(rec, match, conv, res)
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
