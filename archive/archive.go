// Package archive keeps finished runs in SQLite or PostgreSQL so that past
// results can be listed and re-read.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carbocation/gelqc/batch"
	"github.com/carbocation/pfx"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"gopkg.in/guregu/null.v3"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("run not found")

// schema is kept to types that SQLite and PostgreSQL both accept.
var schema = []string{`
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	created_unix BIGINT NOT NULL,
	source       TEXT NOT NULL,
	gel          TEXT,
	rules        TEXT NOT NULL,
	standards    TEXT NOT NULL,
	samples      INTEGER NOT NULL,
	errors       INTEGER NOT NULL
)`, `
CREATE TABLE IF NOT EXISTS samples (
	run_id          TEXT NOT NULL REFERENCES runs(id),
	idx             INTEGER NOT NULL,
	line            INTEGER NOT NULL,
	name            TEXT NOT NULL,
	concentration   DOUBLE PRECISION NOT NULL,
	tier            TEXT NOT NULL,
	ratio_280       DOUBLE PRECISION NOT NULL,
	ratio_230       DOUBLE PRECISION NOT NULL,
	quality         TEXT NOT NULL,
	note            TEXT NOT NULL,
	electrophoresis TEXT NOT NULL,
	ord             INTEGER NOT NULL,
	error           TEXT,
	PRIMARY KEY (run_id, idx)
)`}

// Run is the header row of one archived batch.
type Run struct {
	ID          string      `db:"id" json:"id"`
	CreatedUnix int64       `db:"created_unix" json:"-"`
	Source      string      `db:"source" json:"source"`
	Gel         null.String `db:"gel" json:"gel"`
	Rules       string      `db:"rules" json:"rules"`
	Samples     int         `db:"samples" json:"samples"`
	Errors      int         `db:"errors" json:"errors"`

	// StandardsText is the standards document as stored; Standards is the
	// same document for JSON output.
	StandardsText string          `db:"standards" json:"-"`
	Standards     json.RawMessage `db:"-" json:"standards"`
	Created       time.Time       `db:"-" json:"created"`
}

// Sample is one graded row of an archived run.
type Sample struct {
	RunID           string      `db:"run_id" json:"-"`
	Index           int         `db:"idx" json:"index"`
	Line            int         `db:"line" json:"line"`
	Name            string      `db:"name" json:"name"`
	Concentration   float64     `db:"concentration" json:"concentration"`
	Tier            string      `db:"tier" json:"tier"`
	Ratio280        float64     `db:"ratio_280" json:"ratio_280"`
	Ratio230        float64     `db:"ratio_230" json:"ratio_230"`
	Quality         string      `db:"quality" json:"quality"`
	Note            string      `db:"note" json:"note"`
	Electrophoresis string      `db:"electrophoresis" json:"electrophoresis"`
	Order           int         `db:"ord" json:"order"`
	Error           null.String `db:"error" json:"error"`
}

func (r *Run) fill() {
	r.Created = time.Unix(0, r.CreatedUnix).UTC()
	r.Standards = json.RawMessage(r.StandardsText)
}

type Archive struct {
	db *sqlx.DB
}

// Driver names the database/sql driver for an archive location: PostgreSQL
// for postgres:// URLs, SQLite for anything else.
func Driver(path string) string {
	if strings.HasPrefix(path, "postgres://") || strings.HasPrefix(path, "postgresql://") {
		return "pgx"
	}
	return "sqlite"
}

// Open creates or opens the archive at path: a SQLite file, ":memory:" for a
// private in-process archive, or a postgres:// URL.
func Open(path string) (*Archive, error) {
	driver := Driver(path)

	db, err := sqlx.Connect(driver, path)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s archive: %w", driver, err))
	}

	if driver == "sqlite" {
		// One writer at a time; this also keeps a :memory: database on a
		// single connection.
		db.SetMaxOpenConns(1)
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, pfx.Err(err)
		}
	}

	return &Archive{db: db}, nil
}

func (a *Archive) Close() error {
	return a.db.Close()
}

// Save stores a report and all of its rows in one transaction.
func (a *Archive) Save(ctx context.Context, r *batch.Report) error {
	std, err := json.Marshal(r.Standards)
	if err != nil {
		return pfx.Err(err)
	}

	run := Run{
		ID:            r.RunID.String(),
		CreatedUnix:   r.Created.UnixNano(),
		Source:        r.Source,
		Gel:           null.NewString(r.Gel, r.Gel != ""),
		Rules:         r.Rules.String(),
		StandardsText: string(std),
		Samples:       r.Summary.Total,
		Errors:        r.Summary.Errors,
	}

	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return pfx.Err(err)
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, `INSERT INTO runs
		(id, created_unix, source, gel, rules, standards, samples, errors) VALUES
		(:id, :created_unix, :source, :gel, :rules, :standards, :samples, :errors)`, run); err != nil {
		return pfx.Err(err)
	}

	for _, it := range r.Items {
		s := Sample{
			RunID:           run.ID,
			Index:           it.Index,
			Line:            it.Line,
			Name:            it.Name,
			Concentration:   it.Concentration,
			Tier:            it.Tier.String(),
			Ratio280:        it.Ratio280,
			Ratio230:        it.Ratio230,
			Quality:         it.Verdict.Quality.String(),
			Note:            it.Verdict.Note,
			Electrophoresis: it.Electrophoresis,
			Order:           int(it.Order),
			Error:           null.NewString(it.Error, it.Error != ""),
		}
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO samples
			(run_id, idx, line, name, concentration, tier, ratio_280, ratio_230, quality, note, electrophoresis, ord, error) VALUES
			(:run_id, :idx, :line, :name, :concentration, :tier, :ratio_280, :ratio_230, :quality, :note, :electrophoresis, :ord, :error)`, s); err != nil {
			return pfx.Err(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return pfx.Err(err)
	}

	return nil
}

// Runs lists stored runs, newest first.
func (a *Archive) Runs(ctx context.Context) ([]Run, error) {
	var out []Run
	if err := a.db.SelectContext(ctx, &out, `SELECT * FROM runs ORDER BY created_unix DESC, id`); err != nil {
		return nil, pfx.Err(err)
	}

	for i := range out {
		out[i].fill()
	}

	return out, nil
}

// Run returns the header of one run.
func (a *Archive) Run(ctx context.Context, id uuid.UUID) (Run, error) {
	var out Run
	err := a.db.GetContext(ctx, &out, a.db.Rebind(`SELECT * FROM runs WHERE id = ?`), id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	if err != nil {
		return Run{}, pfx.Err(err)
	}
	out.fill()

	return out, nil
}

// Samples returns the rows of one run in their original order.
func (a *Archive) Samples(ctx context.Context, id uuid.UUID) ([]Sample, error) {
	if _, err := a.Run(ctx, id); err != nil {
		return nil, err
	}

	var out []Sample
	if err := a.db.SelectContext(ctx, &out, a.db.Rebind(`SELECT * FROM samples WHERE run_id = ? ORDER BY idx`), id.String()); err != nil {
		return nil, pfx.Err(err)
	}

	return out, nil
}
