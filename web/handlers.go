package web

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/carbocation/gelqc/archive"
	"github.com/carbocation/gelqc/batch"
	"github.com/carbocation/gelqc/classify"
	"github.com/carbocation/gelqc/compileinfo"
	"github.com/carbocation/gelqc/gel"
	"github.com/carbocation/gelqc/ranking"
	"github.com/carbocation/gelqc/sheet"
	"github.com/carbocation/gelqc/standards"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type handler struct {
	*Server
}

// AnalyzeResponse is the body returned by POST /analyze.
type AnalyzeResponse struct {
	Report  *batch.Report        `json:"report"`
	Ranked  []ranking.Ranked     `json:"ranked"`
	Grouped []classify.Composite `json:"grouped"`
}

// EvaluateResponse is the body returned by POST /evaluate.
type EvaluateResponse struct {
	RunID    uuid.UUID          `json:"run_id"`
	Verdicts []batch.VerdictRow `json:"verdicts"`
	Summary  batch.Summary      `json:"summary"`
}

// RunResponse is the body returned by GET /runs/{id}.
type RunResponse struct {
	Run     archive.Run      `json:"run"`
	Samples []archive.Sample `json:"samples"`
}

var errNoArchive = errors.New("this server does not keep an archive")

func (h *handler) GetStandards(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Store.Current().Document())
}

func (h *handler) PutStandards(w http.ResponseWriter, r *http.Request) {
	cfg, err := standards.Parse(r.Body)
	if err != nil {
		JSONError(h, w, r, err, http.StatusBadRequest)
		return
	}

	if err := h.Store.Replace(cfg); err != nil {
		JSONError(h, w, r, err, http.StatusBadRequest)
		return
	}

	h.Log.Info("standards replaced", zap.String("remote", r.RemoteAddr))
	writeJSON(w, http.StatusOK, cfg.Document())
}

func (h *handler) ResetStandards(w http.ResponseWriter, r *http.Request) {
	cfg := h.Store.Reset()

	h.Log.Info("standards reset", zap.String("remote", r.RemoteAddr))
	writeJSON(w, http.StatusOK, cfg.Document())
}

// readTable parses the "table" upload with the layout named in the "layout"
// field, or the server default.
func (h *handler) readTable(r *http.Request) ([]sheet.Row, string, error) {
	if err := r.ParseMultipartForm(MaxUpload); err != nil {
		return nil, "", fmt.Errorf("expected a multipart form: %w", err)
	}

	layout := h.Layout
	if name := r.FormValue("layout"); name != "" {
		l, err := sheet.LookupLayout(name)
		if err != nil {
			return nil, "", err
		}
		layout = l
	}

	f, fh, err := r.FormFile("table")
	if err != nil {
		return nil, "", fmt.Errorf("table: %w", err)
	}
	defer f.Close()

	rows, err := sheet.Read(f, fh.Filename, layout)
	if err != nil {
		return nil, fh.Filename, err
	}

	return rows, fh.Filename, nil
}

func (h *handler) options(r *http.Request) (batch.Options, error) {
	opt := h.Options
	opt.Logger = h.Log

	if v := r.FormValue("rules"); v != "" {
		rules, err := batch.ParseRules(v)
		if err != nil {
			return opt, err
		}
		opt.Rules = rules
	}

	if v := r.FormValue("lane_offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opt, fmt.Errorf("lane_offset: %w", err)
		}
		opt.LaneOffset = n
	}

	return opt, nil
}

func (h *handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	rows, name, err := h.readTable(r)
	if err != nil {
		JSONError(h, w, r, err, http.StatusBadRequest)
		return
	}

	opt, err := h.options(r)
	if err != nil {
		JSONError(h, w, r, err, http.StatusBadRequest)
		return
	}

	report, err := batch.Run(r.Context(), rows, h.Store.Current(), nil, opt)
	if err != nil {
		JSONError(h, w, r, err)
		return
	}
	report.Source = name

	h.metrics.observe("evaluate", report)

	writeJSON(w, http.StatusOK, EvaluateResponse{
		RunID:    report.RunID,
		Verdicts: report.Verdicts(),
		Summary:  report.Summary,
	})
}

// loadGel reads the optional "gel" upload. An unreadable image still yields a
// Gel, one that reports the decode error for every lane.
func (h *handler) loadGel(r *http.Request, a gel.Analyzer) (*gel.Gel, string, error) {
	lanes := h.Lanes
	if v := r.FormValue("lanes"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, "", fmt.Errorf("lanes: want a positive integer, got %q", v)
		}
		lanes = n
	}

	f, fh, err := r.FormFile("gel")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	return decodeGel(f, lanes, a, h.Log.With(zap.String("gel", fh.Filename))), fh.Filename, nil
}

func decodeGel(f multipart.File, lanes int, a gel.Analyzer, log *zap.Logger) *gel.Gel {
	img, err := gel.Decode(f)
	if err != nil {
		log.Warn("gel image unreadable", zap.Error(err))
		return gel.FailedGel(err)
	}

	g := gel.NewGel(img, lanes, a)
	log.Debug("gel loaded", zap.Int("width", img.Width()), zap.Int("height", img.Height()), zap.Bool("inverted", g.Inverted()))

	return g
}

func (h *handler) Analyze(w http.ResponseWriter, r *http.Request) {
	rows, name, err := h.readTable(r)
	if err != nil {
		JSONError(h, w, r, err, http.StatusBadRequest)
		return
	}

	opt, err := h.options(r)
	if err != nil {
		JSONError(h, w, r, err, http.StatusBadRequest)
		return
	}

	cfg := h.Store.Current()

	g, gelName, err := h.loadGel(r, gel.NewAnalyzer(cfg.Image))
	if err != nil {
		JSONError(h, w, r, err, http.StatusBadRequest)
		return
	}

	var lanes classify.Lanes
	if g != nil {
		lanes = g
	}

	report, err := batch.Run(r.Context(), rows, cfg, lanes, opt)
	if err != nil {
		JSONError(h, w, r, err)
		return
	}
	report.Source = name
	report.Gel = gelName

	if h.Archive != nil {
		if err := h.Archive.Save(r.Context(), report); err != nil {
			JSONError(h, w, r, err)
			return
		}
	}

	h.metrics.observe("analyze", report)

	composites := report.Composites()
	writeJSON(w, http.StatusOK, AnalyzeResponse{
		Report:  report,
		Ranked:  ranking.ByPriority(composites),
		Grouped: ranking.ByTier(composites),
	})
}

func (h *handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.Archive == nil {
		JSONError(h, w, r, errNoArchive, http.StatusNotFound)
		return
	}

	runs, err := h.Archive.Runs(r.Context())
	if err != nil {
		JSONError(h, w, r, err)
		return
	}
	if runs == nil {
		runs = []archive.Run{}
	}

	writeJSON(w, http.StatusOK, runs)
}

func (h *handler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.Archive == nil {
		JSONError(h, w, r, errNoArchive, http.StatusNotFound)
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		JSONError(h, w, r, fmt.Errorf("run id: %w", err), http.StatusBadRequest)
		return
	}

	run, err := h.Archive.Run(r.Context(), id)
	if errors.Is(err, archive.ErrNotFound) {
		JSONError(h, w, r, err, http.StatusNotFound)
		return
	} else if err != nil {
		JSONError(h, w, r, err)
		return
	}

	samples, err := h.Archive.Samples(r.Context(), id)
	if err != nil {
		JSONError(h, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, RunResponse{Run: run, Samples: samples})
}

func (h *handler) Version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, compileinfo.Get())
}
