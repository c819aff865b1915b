// Package web serves the QC engine over HTTP: the current standards, table
// evaluation and gel analysis, archived runs and Prometheus metrics.
package web

import (
	"net/http"

	"github.com/carbocation/gelqc/archive"
	"github.com/carbocation/gelqc/batch"
	"github.com/carbocation/gelqc/sheet"
	"github.com/carbocation/gelqc/standards"
	"github.com/gorilla/mux"
	"github.com/interpose/middleware"
	"github.com/justinas/alice"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server holds what the handlers share. Store is required; Archive may be
// nil, in which case runs are not kept.
type Server struct {
	Store   *standards.Store
	Archive *archive.Archive
	Log     *zap.Logger
	Layout  sheet.Layout
	Options batch.Options
	// Lanes is the default number of lanes per gel.
	Lanes int
	// AccessLog enables the combined-format request log on stdout.
	AccessLog bool

	metrics *metrics
}

// MaxUpload bounds the in-memory part of a multipart request.
const MaxUpload = 32 << 20

func New(store *standards.Store, arc *archive.Archive, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	return &Server{
		Store:   store,
		Archive: arc,
		Log:     log,
		Layout:  sheet.Layouts["standard"],
		Options: batch.DefaultOptions(),
		Lanes:   14,
		metrics: newMetrics(),
	}
}

func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	POST := router.Methods("POST").Subrouter()
	PUT := router.Methods("PUT").Subrouter()
	GET := router.Methods("GET", "HEAD").Subrouter()

	h := handler{Server: s}

	GET.HandleFunc("/standards", h.GetStandards).Name("standards")
	PUT.HandleFunc("/standards", h.PutStandards)
	POST.HandleFunc("/standards/reset", h.ResetStandards)

	POST.HandleFunc("/evaluate", h.Evaluate).Name("evaluate")
	POST.HandleFunc("/analyze", h.Analyze).Name("analyze")

	GET.HandleFunc("/runs", h.ListRuns).Name("runs")
	GET.HandleFunc("/runs/{id}", h.GetRun).Name("run")

	GET.HandleFunc("/version", h.Version)
	GET.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	router.Use(s.metrics.instrument)

	chain := alice.New()
	if s.AccessLog {
		// Log all requests to STDOUT
		chain = chain.Append(middleware.GorillaLog())
	}

	return chain.Then(router)
}
