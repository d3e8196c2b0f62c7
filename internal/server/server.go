package server

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/Amerigo2020/vestigas-co2-scribe/internal"
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/catalog"
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/config"
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/metrics"
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/pipeline"
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/storage"
)

// RunReader serves stored runs. storage.DB implements it.
type RunReader interface {
	ListRuns(limit int) ([]internal.RunRecord, error)
	GetRun(id int64) (internal.RunRecord, error)
	GetRunRows(id int64) ([]internal.ReportRow, error)
}

type Server struct {
	cfg     config.Config
	svc     *pipeline.ProcessingService
	runs    RunReader
	metrics *metrics.Registry
	logger  zerolog.Logger
}

// New wires the HTTP API. runs and reg may be nil; the matching routes then
// answer 503 and 404.
func New(cfg config.Config, svc *pipeline.ProcessingService, runs RunReader, reg *metrics.Registry, logger zerolog.Logger) *Server {
	return &Server{
		cfg:     cfg,
		svc:     svc,
		runs:    runs,
		metrics: reg,
		logger:  logger.With().Str("component", "http").Logger(),
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(Recover(s.logger))
	r.Use(RequestID())
	r.Use(AccessLog(s.logger))
	r.Use(LimitBytes(int64(s.cfg.MaxUploadMB) << 20))

	r.Get("/health", s.health)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/v1/runs", func(r chi.Router) {
		r.Post("/", s.createRun)
		r.Get("/", s.listRuns)
		r.Get("/{id}", s.getRun)
		r.Get("/{id}/report.xlsx", s.downloadReport)
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type runResponse struct {
	RunID   int64                `json:"runId"`
	TraceID string               `json:"traceId"`
	Rows    []internal.ReportRow `json:"rows"`
	Summary internal.RunSummary  `json:"summary"`
}

// createRun takes a multipart form with one "catalog" file, one or more
// "deliveries" files and an optional "module".
func (s *Server) createRun(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	log := s.logger.With().Str("rid", GetRequestID(r)).Logger()

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "bad multipart form: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	module := strings.TrimSpace(r.FormValue("module"))
	if module == "" {
		module = s.cfg.CatalogModule
	}

	catFile, catHeader, err := r.FormFile("catalog")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing catalog: "+err.Error())
		return
	}
	defer catFile.Close()
	entries, err := catalog.LoadReader(catFile, catHeader.Filename, module, log)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	files := r.MultipartForm.File["deliveries"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "missing deliveries")
		return
	}
	deliveries, err := readDeliveries(files)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.svc.Run(r.Context(), pipeline.RunInput{Catalog: entries, Deliveries: deliveries, Module: module})
	if err != nil {
		log.Error().Err(err).Msg("run failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	noteRun(r, res.Run, len(res.Rows))
	writeJSON(w, http.StatusOK, runResponse{
		RunID:   res.Run.ID,
		TraceID: res.Run.TraceID,
		Rows:    res.Rows,
		Summary: res.Summary,
	})
	log.Info().
		Int("catalog", len(entries)).
		Int("deliveries", len(deliveries)).
		Dur("elapsed", time.Since(start)).
		Msg("run request done")
}

func readDeliveries(files []*multipart.FileHeader) ([]internal.DeliveryRecord, error) {
	var out []internal.DeliveryRecord
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		recs, err := pipeline.LoadDeliveriesReader(f, fh.Filename, len(out)+1)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, http.StatusServiceUnavailable, "run storage disabled")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := s.runs.ListRuns(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

type runDetail struct {
	Run  internal.RunRecord   `json:"run"`
	Rows []internal.ReportRow `json:"rows"`
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, rows, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	noteRun(r, run, len(rows))
	writeJSON(w, http.StatusOK, runDetail{Run: run, Rows: rows})
}

func (s *Server) downloadReport(w http.ResponseWriter, r *http.Request) {
	run, rows, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	noteRun(r, run, len(rows))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="co2e_report_run_%d.xlsx"`, run.ID))
	if err := pipeline.WriteXLSX(w, rows); err != nil {
		s.logger.Error().Err(err).Int64("run_id", run.ID).Msg("write report")
	}
}

// loadRun resolves {id} and writes the error response itself when it fails.
func (s *Server) loadRun(w http.ResponseWriter, r *http.Request) (internal.RunRecord, []internal.ReportRow, bool) {
	if s.runs == nil {
		writeError(w, http.StatusServiceUnavailable, "run storage disabled")
		return internal.RunRecord{}, nil, false
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return internal.RunRecord{}, nil, false
	}
	run, err := s.runs.GetRun(id)
	if err == nil {
		var rows []internal.ReportRow
		rows, err = s.runs.GetRunRows(id)
		if err == nil {
			return run, rows, true
		}
	}
	if errors.Is(err, storage.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
	} else {
		writeError(w, http.StatusInternalServerError, err.Error())
	}
	return internal.RunRecord{}, nil, false
}
