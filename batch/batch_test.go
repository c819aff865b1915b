package batch

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"testing"

	"github.com/carbocation/gelqc/classify"
	"github.com/carbocation/gelqc/gel"
	"github.com/carbocation/gelqc/qc"
	"github.com/carbocation/gelqc/sheet"
	"github.com/carbocation/gelqc/standards"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	// cloud.google.com/go/storage starts the opencensus view worker at init.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

// laneByIndex grades lane i with priority i%4+1.
type laneByIndex struct{}

func (laneByIndex) Lane(i int) (gel.Result, error) {
	p := gel.Priority(i%4 + 1)
	return gel.Result{Lane: i, Smear: gel.SmearClean, Integrity: gel.IntegrityVisible, Priority: p}, nil
}

func readRows(t *testing.T, table string) []sheet.Row {
	t.Helper()
	rows, err := sheet.Read(strings.NewReader(table), "plate.csv", sheet.Layouts["standard"])
	require.NoError(t, err)
	return rows
}

func plate(n int, badAt int) string {
	var b strings.Builder
	b.WriteString("No,Sample,Conc,A260/280,A260/230\n")
	for i := 0; i < n; i++ {
		if i == badAt {
			fmt.Fprintf(&b, "%d,S%d,#VALUE!,1.9,2.2\n", i+1, i)
			continue
		}
		fmt.Fprintf(&b, "%d,S%d,%d,1.9,2.2\n", i+1, i, 20+i)
	}
	return b.String()
}

func TestRunIsolatesBadRow(t *testing.T) {
	const n = 40
	rows := readRows(t, plate(n+1, 17))

	opt := DefaultOptions()
	opt.Workers = 4
	report, err := Run(context.Background(), rows, standards.Default(), nil, opt)
	require.NoError(t, err)
	require.Len(t, report.Items, n+1)

	var errorRows int
	for i, it := range report.Items {
		assert.Equal(t, i, it.Index, "items keep input order")
		assert.Equal(t, fmt.Sprintf("S%d", i), it.Name)

		if it.Verdict.Quality == qc.QualityError {
			errorRows++
			assert.Equal(t, 17, i)
			assert.Equal(t, classify.TierError, it.Tier)
			assert.Equal(t, "Error", it.Electrophoresis)
			assert.NotEmpty(t, it.Error)
		}
	}
	assert.Equal(t, 1, errorRows)
	assert.Equal(t, 1, report.Summary.Errors)
	assert.Equal(t, n+1, report.Summary.Total)
	assert.Equal(t, n, report.Summary.Concentration.N)
}

func TestRunUsesLaneOffset(t *testing.T) {
	rows := readRows(t, plate(6, -1))

	opt := DefaultOptions()
	report, err := Run(context.Background(), rows, standards.Default(), laneByIndex{}, opt)
	require.NoError(t, err)

	for i, it := range report.Items {
		require.NotNil(t, it.Lane)
		assert.Equal(t, i+1, it.Lane.Lane, "row %d reads lane %d", i, i+1)
		assert.Equal(t, gel.Priority((i+1)%4+1), it.Order)
	}

	opt.LaneOffset = 0
	report, err = Run(context.Background(), rows, standards.Default(), laneByIndex{}, opt)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Items[0].Lane.Lane)
}

func TestRunInstrumentRules(t *testing.T) {
	rows := readRows(t, "No,Sample,Conc,A260/280,A260/230\n1,S1,30,1.85,2.1\n")

	opt := DefaultOptions()
	opt.Rules = RulesInstrument
	report, err := Run(context.Background(), rows, standards.Default(), nil, opt)
	require.NoError(t, err)

	assert.Equal(t, qc.NoteInstrumentAcceptable, report.Items[0].Verdict.Note)
	assert.Equal(t, classify.AnnotationNoImage, report.Items[0].Electrophoresis)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, readRows(t, plate(10, -1)), standards.Default(), nil, DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunZeroOptions(t *testing.T) {
	rows := readRows(t, plate(3, -1))

	report, err := Run(context.Background(), rows, standards.Default(), nil, Options{})
	require.NoError(t, err)

	// Zero options fall back to the factory classifier.
	assert.Equal(t, classify.AnnotationNoImage, report.Items[0].Electrophoresis)
	assert.Equal(t, classify.TierMedium, report.Items[0].Tier)
}

func TestRunLogsSummary(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)

	opt := DefaultOptions()
	opt.Logger = zap.New(core)
	_, err := Run(context.Background(), readRows(t, plate(5, 2)), standards.Default(), nil, opt)
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("unreadable row").Len())
	finished := logs.FilterMessage("run finished").All()
	require.Len(t, finished, 1)
	assert.EqualValues(t, 5, finished[0].ContextMap()["samples"])
}

func TestSummarize(t *testing.T) {
	items := []Item{
		{Composite: classify.Composite{Concentration: 10, Tier: classify.TierLow, Verdict: qc.Verdict{Quality: qc.QualityFail}, Order: 4}},
		{Composite: classify.Composite{Concentration: 30, Tier: classify.TierMedium, Verdict: qc.Verdict{Quality: qc.QualityAcceptable}, Order: 2}},
		{Composite: classify.Composite{Concentration: 50, Tier: classify.TierHigh, Verdict: qc.Verdict{Quality: qc.QualityPass}, Order: 1}},
		{Composite: classify.New().ClassifyError("bad")},
	}

	s := Summarize(items)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 1, s.Errors)
	assert.Equal(t, map[string]int{"FAIL": 1, "ACCEPTABLE": 1, "PASS": 1, "ERROR": 1}, s.Quality)
	assert.Equal(t, map[string]int{"4": 2, "2": 1, "1": 1}, s.Order)
	assert.Equal(t, 3, s.Concentration.N)
	assert.InDelta(t, 30.0, s.Concentration.Mean, 1e-9)
	assert.InDelta(t, 30.0, s.Concentration.Median, 1e-9)
	assert.Equal(t, 10.0, s.Concentration.Min)
	assert.Equal(t, 50.0, s.Concentration.Max)

	assert.Equal(t, Spread{}, Summarize(nil).Concentration)
}

func TestWriteDelimited(t *testing.T) {
	rows := readRows(t, plate(4, 1))
	report, err := Run(context.Background(), rows, standards.Default(), laneByIndex{}, DefaultOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteDelimited(&buf, report, '\t'))

	r := csv.NewReader(&buf)
	r.Comma = '\t'
	recs, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 5)

	assert.Equal(t, []string{"Rank", "Sample", "Concentration", "Concentration Tier", "260/280", "260/230", "Quality Check", "Note", "Electrophoresis", "Order"}, recs[0])
	for i, rec := range recs[1:] {
		assert.Equal(t, fmt.Sprint(i+1), rec[0])
	}
	// Orders are S3=1, S0=2, then S1 (error) and S2 tie at 4 in input order.
	assert.Equal(t, []string{"S3", "S0", "S1", "S2"}, []string{recs[1][1], recs[2][1], recs[3][1], recs[4][1]})
	assert.Equal(t, "ERROR", recs[3][6])
	assert.Equal(t, "4", recs[3][9])
}
