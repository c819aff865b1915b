package batch

import (
	"encoding/csv"
	"io"

	"github.com/carbocation/gelqc/ranking"
	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
)

// ExportRow is one line of the delimited export.
type ExportRow struct {
	Rank            int     `csv:"Rank"`
	Sample          string  `csv:"Sample"`
	Concentration   float64 `csv:"Concentration"`
	Tier            string  `csv:"Concentration Tier"`
	Ratio280        float64 `csv:"260/280"`
	Ratio230        float64 `csv:"260/230"`
	Quality         string  `csv:"Quality Check"`
	Note            string  `csv:"Note"`
	Electrophoresis string  `csv:"Electrophoresis"`
	Order           int     `csv:"Order"`
}

// ExportRows lists the report in sequencing order.
func ExportRows(r *Report) []*ExportRow {
	ranked := ranking.ByPriority(r.Composites())

	out := make([]*ExportRow, 0, len(ranked))
	for _, c := range ranked {
		out = append(out, &ExportRow{
			Rank:            c.Rank,
			Sample:          c.Name,
			Concentration:   c.Concentration,
			Tier:            c.Tier.String(),
			Ratio280:        c.Ratio280,
			Ratio230:        c.Ratio230,
			Quality:         c.Verdict.Quality.String(),
			Note:            c.Verdict.Note,
			Electrophoresis: c.Electrophoresis,
			Order:           int(c.Order),
		})
	}

	return out
}

// WriteDelimited writes the ranked report as a plain table with a header.
func WriteDelimited(w io.Writer, r *Report, delim rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = delim

	if err := gocsv.MarshalCSV(ExportRows(r), gocsv.NewSafeCSVWriter(cw)); err != nil {
		return pfx.Err(err)
	}

	return nil
}
