package archive

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/carbocation/gelqc/batch"
	"github.com/carbocation/gelqc/sheet"
	"github.com/carbocation/gelqc/standards"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func report(t *testing.T, table string) *batch.Report {
	t.Helper()

	rows, err := sheet.Read(strings.NewReader(table), "plate.csv", sheet.Layouts["standard"])
	require.NoError(t, err)

	r, err := batch.Run(context.Background(), rows, standards.Default(), nil, batch.DefaultOptions())
	require.NoError(t, err)
	r.Source = "plate.csv"

	return r
}

func TestSaveAndRead(t *testing.T) {
	a, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	r := report(t, "No,Sample,Conc,A260/280,A260/230\n1,S1,55,1.95,2.3\n2,S2,x,1.9,2.2\n3,S3,10,1.9,2.2\n")
	require.NoError(t, a.Save(ctx, r))

	runs, err := a.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, r.RunID.String(), runs[0].ID)
	assert.Equal(t, 3, runs[0].Samples)
	assert.Equal(t, 1, runs[0].Errors)
	assert.Equal(t, "standards", runs[0].Rules)
	assert.True(t, r.Created.Equal(runs[0].Created))
	assert.False(t, runs[0].Gel.Valid)

	var doc standards.Document
	require.NoError(t, json.Unmarshal(runs[0].Standards, &doc))
	cfg, err := doc.Config()
	require.NoError(t, err)
	assert.Equal(t, standards.Default(), cfg)

	b, err := json.Marshal(runs[0])
	require.NoError(t, err)
	assert.Contains(t, string(b), `"standards":{`)
	assert.Contains(t, string(b), `"gel":null`)
	assert.NotContains(t, string(b), "created_unix")

	samples, err := a.Samples(ctx, r.RunID)
	require.NoError(t, err)
	require.Len(t, samples, 3)

	assert.Equal(t, "S1", samples[0].Name)
	assert.Equal(t, "PASS", samples[0].Quality)
	assert.Equal(t, "High", samples[0].Tier)
	assert.Equal(t, 4, samples[0].Order)
	assert.Equal(t, "No Gel Image", samples[0].Electrophoresis)

	assert.Equal(t, "ERROR", samples[1].Quality)
	assert.Equal(t, "Error", samples[1].Tier)
	assert.True(t, samples[1].Error.Valid)
	assert.NotEmpty(t, samples[1].Error.String)
	assert.False(t, samples[0].Error.Valid)

	assert.Equal(t, "Concentration < 20", samples[2].Electrophoresis)
}

func TestRunsNewestFirst(t *testing.T) {
	a, err := Open(":memory:")
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	first := report(t, "No,Sample,Conc,A260/280,A260/230\n1,S1,55,1.95,2.3\n")
	second := report(t, "No,Sample,Conc,A260/280,A260/230\n1,S1,55,1.95,2.3\n")
	second.Created = first.Created.Add(1)

	require.NoError(t, a.Save(ctx, first))
	require.NoError(t, a.Save(ctx, second))

	runs, err := a.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.RunID.String(), runs[0].ID)

	// Saving the same run twice is refused.
	assert.Error(t, a.Save(ctx, first))
}

func TestUnknownRun(t *testing.T) {
	a, err := Open(":memory:")
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Samples(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = a.Run(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDriver(t *testing.T) {
	assert.Equal(t, "sqlite", Driver(":memory:"))
	assert.Equal(t, "sqlite", Driver("runs.db"))
	assert.Equal(t, "pgx", Driver("postgres://qc@localhost/gelqc?sslmode=disable"))
	assert.Equal(t, "pgx", Driver("postgresql://qc@localhost/gelqc"))
}
