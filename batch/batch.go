// Package batch runs a whole sample table through the QC engine. Rows are
// evaluated in parallel but reported in input order, and a bad row never
// stops the run.
package batch

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/carbocation/gelqc/classify"
	"github.com/carbocation/gelqc/qc"
	"github.com/carbocation/gelqc/sheet"
	"github.com/carbocation/gelqc/standards"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Rules selects the verdict function.
type Rules int

const (
	// RulesStandards applies the configurable standards.
	RulesStandards Rules = iota
	// RulesInstrument applies the fixed limits used for raw instrument
	// exports.
	RulesInstrument
)

func (r Rules) String() string {
	if r == RulesInstrument {
		return "instrument"
	}
	return "standards"
}

func (r Rules) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// ParseRules is the inverse of Rules.String.
func ParseRules(s string) (Rules, error) {
	switch s {
	case "standards", "":
		return RulesStandards, nil
	case "instrument":
		return RulesInstrument, nil
	}
	return RulesStandards, fmt.Errorf("unknown rules %q: want standards or instrument", s)
}

type Options struct {
	Rules Rules
	// LaneOffset maps data row i to gel lane i+LaneOffset. Lane 0 usually
	// carries the ladder, hence the default of 1.
	LaneOffset int
	// Workers bounds the number of rows evaluated at once.
	Workers    int
	Classifier classify.Classifier
	Logger     *zap.Logger
}

func DefaultOptions() Options {
	return Options{
		Rules:      RulesStandards,
		LaneOffset: 1,
		Workers:    runtime.GOMAXPROCS(0),
		Classifier: classify.New(),
	}
}

// Item is the outcome for one data row.
type Item struct {
	Index int `json:"index"`
	Line  int `json:"line"`
	classify.Composite
	// Error holds the parse failure for ERROR rows.
	Error string `json:"error,omitempty"`
}

// Report is a finished run.
type Report struct {
	RunID     uuid.UUID          `json:"run_id"`
	Created   time.Time          `json:"created"`
	Source    string             `json:"source"`
	Gel       string             `json:"gel,omitempty"`
	Rules     Rules              `json:"rules"`
	Standards standards.Document `json:"standards"`
	Items     []Item             `json:"items"`
	Summary   Summary            `json:"summary"`
}

// Composites returns the per-row composites in input order.
func (r *Report) Composites() []classify.Composite {
	out := make([]classify.Composite, len(r.Items))
	for i, it := range r.Items {
		out[i] = it.Composite
	}
	return out
}

// VerdictRow is the standards-only view of an Item.
type VerdictRow struct {
	Index         int     `json:"index"`
	Line          int     `json:"line"`
	Name          string  `json:"name"`
	Concentration float64 `json:"concentration"`
	Ratio280      float64 `json:"ratio_260_280"`
	Ratio230      float64 `json:"ratio_260_230"`
	qc.Verdict
	Error string `json:"error,omitempty"`
}

// Verdicts drops the gel and tier columns.
func (r *Report) Verdicts() []VerdictRow {
	out := make([]VerdictRow, len(r.Items))
	for i, it := range r.Items {
		out[i] = VerdictRow{
			Index:         it.Index,
			Line:          it.Line,
			Name:          it.Name,
			Concentration: it.Concentration,
			Ratio280:      it.Ratio280,
			Ratio230:      it.Ratio230,
			Verdict:       it.Verdict,
			Error:         it.Error,
		}
	}
	return out
}

// Run evaluates rows against cfg. lanes may be nil when no gel was supplied.
// Only cancellation of ctx makes Run fail.
func Run(ctx context.Context, rows []sheet.Row, cfg standards.Config, lanes classify.Lanes, opt Options) (*Report, error) {
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if opt.Classifier == (classify.Classifier{}) {
		opt.Classifier = classify.New()
	}

	workers := opt.Workers
	if workers < 1 {
		workers = 1
	}

	report := &Report{
		RunID:     uuid.New(),
		Created:   time.Now().UTC(),
		Rules:     opt.Rules,
		Standards: cfg.Document(),
		Items:     make([]Item, len(rows)),
	}
	log = log.With(zap.String("run", report.RunID.String()))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range rows {
		if gctx.Err() != nil {
			break
		}

		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// Each goroutine owns exactly one slot.
			report.Items[i] = opt.evaluateRow(rows[i], cfg, lanes, log)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report.Summary = Summarize(report.Items)

	log.Info("run finished",
		zap.Int("samples", report.Summary.Total),
		zap.Int("errors", report.Summary.Errors),
		zap.Any("quality", report.Summary.Quality),
	)

	return report, nil
}

func (opt Options) evaluateRow(row sheet.Row, cfg standards.Config, lanes classify.Lanes, log *zap.Logger) Item {
	item := Item{Index: row.Index, Line: row.Line}

	if row.Err != nil {
		log.Debug("unreadable row", zap.Int("line", row.Line), zap.String("sample", row.Record.Name), zap.Error(row.Err))
		item.Composite = opt.Classifier.ClassifyError(row.Record.Name)
		item.Error = row.Err.Error()
		return item
	}

	var v qc.Verdict
	switch opt.Rules {
	case RulesInstrument:
		v = qc.EvaluateInstrument(row.Record)
	default:
		v = qc.Evaluate(row.Record, cfg)
	}

	item.Composite = opt.Classifier.Classify(row.Record, v, lanes, row.Index+opt.LaneOffset, cfg)
	if item.Lane == nil && item.Electrophoresis == classify.AnnotationLaneError {
		log.Debug("lane not graded", zap.Int("line", row.Line), zap.Int("lane", row.Index+opt.LaneOffset))
	}

	return item
}
