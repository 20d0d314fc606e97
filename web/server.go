// ABOUTME: Web UI server with embedded templates
// ABOUTME: Read-only pipeline dashboard, JSON API, Prometheus metrics, and the aging cron
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/harperreed/dealdesk/metrics"
	"github.com/harperreed/dealdesk/models"
	"github.com/harperreed/dealdesk/pipeline"
	"github.com/harperreed/dealdesk/scheduler"
	"github.com/harperreed/dealdesk/viz"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

//go:embed templates/*
var templatesFS embed.FS

type Server struct {
	store     *pipeline.Store
	templates *template.Template
	generator *viz.GraphGenerator
	registry  *prometheus.Registry
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

func NewServer(store *pipeline.Store, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	funcMap := template.FuncMap{
		"money": viz.Money,
		"ago":   humanize.Time,
		"stageColor": func(s models.Stage) string {
			cfg, _ := models.StageInfo(s)
			return cfg.Color
		},
		"barWidth": func(count, max int) int {
			if max == 0 {
				return 0
			}
			return count * 100 / max
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &Server{
		store:     store,
		templates: tmpl,
		generator: viz.NewGraphGenerator(logger),
		registry:  reg,
		metrics:   metrics.NewWithRegistry(reg, logger),
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Handler returns the routes; metrics only track the store once Start runs
// or Observe is called.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("GET /deals", s.handleDeals)
	mux.HandleFunc("GET /partials/deal-detail", s.handleDealDetail)
	mux.HandleFunc("GET /graph.svg", s.handleGraph)

	mux.HandleFunc("GET /api/deals", s.handleAPIDeals)
	mux.HandleFunc("GET /api/deals/{id}", s.handleAPIDeal)
	mux.HandleFunc("GET /api/stages", s.handleAPIStages)
	mux.HandleFunc("GET /api/stats", s.handleAPIStats)
	mux.HandleFunc("GET /api/search", s.handleAPISearch)

	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	return s.logRequests(mux)
}

// Observe starts feeding store changes into the metrics registry.
func (s *Server) Observe() (stop func()) {
	return s.metrics.Observe(s.store)
}

// Start serves on addr until ctx is cancelled. When agingSpec is non-empty a
// cron job refreshes deal aging on that schedule.
func (s *Server) Start(ctx context.Context, addr, agingSpec string) error {
	stop := s.Observe()
	defer stop()

	if agingSpec != "" {
		runner := scheduler.New(ctx, s.logger.Named("cron"))
		if _, err := runner.Add("aging", agingSpec, scheduler.AgingJob(s.store, s.now, s.logger)); err != nil {
			return err
		}
		s.store.RefreshAging(s.now())
		runner.Start()
		defer runner.Stop()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting web server", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("web server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down web server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	stats := viz.GenerateDashboardStats(s.store.Deals(), s.now())
	maxCount := 0
	for _, st := range stats.Pipeline {
		if st.Count > maxCount {
			maxCount = st.Count
		}
	}

	data := map[string]interface{}{
		"Stats":           stats,
		"MaxCount":        maxCount,
		"Title":           "Dashboard",
		"ContentTemplate": "dashboard-content",
	}
	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleDeals(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	stage := models.Stage(r.URL.Query().Get("stage"))

	deals := s.store.SearchDeals(query)
	if stage != "" {
		filtered := deals[:0:0]
		for _, d := range deals {
			if d.Stage == stage {
				filtered = append(filtered, d)
			}
		}
		deals = filtered
	}

	data := map[string]interface{}{
		"Deals":           deals,
		"Stages":          models.PipelineStages(),
		"Query":           query,
		"Stage":           stage,
		"Title":           "Deals",
		"ContentTemplate": "deals-content",
	}
	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleDealDetail(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	deal, ok := s.store.GetDeal(id)
	if !ok {
		http.Error(w, "Deal not found", http.StatusNotFound)
		return
	}

	data := map[string]interface{}{"Deal": deal}
	if spread, ok := deal.Spread(); ok {
		data["Spread"] = spread
	}
	s.renderTemplate(w, "deal-detail.html", data)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	result, err := s.generator.GeneratePipelineGraph(r.Context(), s.store.Deals(), "svg")
	if err != nil {
		s.logger.Error("graph render failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(result.Output)
}

func (s *Server) handleAPIDeals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	deals := s.store.Deals()
	if contact := q.Get("contact"); contact != "" {
		deals = s.store.GetDealsByContact(contact)
	}
	if stage := q.Get("stage"); stage != "" {
		st := models.Stage(stage)
		if !st.IsValid() {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid stage: %s", stage))
			return
		}
		deals = inStage(deals, st)
	}
	writeJSON(w, http.StatusOK, deals)
}

func inStage(deals []models.Deal, stage models.Stage) []models.Deal {
	out := make([]models.Deal, 0, len(deals))
	for _, d := range deals {
		if d.Stage == stage {
			out = append(out, d)
		}
	}
	return out
}

func (s *Server) handleAPIDeal(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid deal id")
		return
	}
	deal, ok := s.store.GetDeal(id)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "deal not found")
		return
	}
	writeJSON(w, http.StatusOK, deal)
}

func (s *Server) handleAPIStages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, models.PipelineStages())
}

type statsResponse struct {
	Stages     []models.StageStats `json:"stages"`
	TotalCount int                 `json:"total_count"`
	TotalValue decimal.Decimal     `json:"total_value"`
}

func (s *Server) handleAPIStats(w http.ResponseWriter, _ *http.Request) {
	resp := statsResponse{Stages: s.store.AllStageStats(), TotalValue: decimal.Zero}
	for _, st := range resp.Stages {
		resp.TotalCount += st.Count
		resp.TotalValue = resp.TotalValue.Add(st.TotalValue)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAPISearch(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.SearchDeals(r.URL.Query().Get("q")))
}

func (s *Server) renderTemplate(w http.ResponseWriter, name string, data interface{}) {
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("template render failed", zap.String("template", name), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		took := time.Since(start)
		s.metrics.RecordHTTPRequest(r.Method, r.Pattern, rec.status, took.Seconds())
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.String("route", r.Pattern),
			zap.Duration("took", took),
		)
	})
}
