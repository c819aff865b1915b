package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/carbocation/gelqc/batch"
	"github.com/carbocation/gelqc/classify"
	"github.com/carbocation/gelqc/ranking"
	"github.com/carbocation/gelqc/sheet"
	"github.com/carbocation/gelqc/standards"
	"github.com/carbocation/pfx"
	"go.uber.org/zap"
)

const previewRows = 10

func readRows(ctx context.Context, path string, l sheet.Layout) ([]sheet.Row, error) {
	rc, err := opener.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	rows, err := sheet.Read(rc, path, l)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	log.Debug("read table", zap.String("path", path), zap.Int("rows", len(rows)))

	return rows, nil
}

// runFile grades one table. lanes may be nil.
func runFile(ctx context.Context, path string, cfg standards.Config, lanes classify.Lanes, opt batch.Options) (*batch.Report, error) {
	l, err := layout()
	if err != nil {
		return nil, err
	}

	rows, err := readRows(ctx, path, l)
	if err != nil {
		return nil, err
	}

	opt.Logger = log.With(zap.String("table", filepath.Base(path)))
	report, err := batch.Run(ctx, rows, cfg, lanes, opt)
	if err != nil {
		return nil, err
	}
	report.Source = path

	return report, nil
}

// outputPath names the export for input when several inputs share one
// --output, which is then a directory.
func outputPath(output, input string, many bool) string {
	if !many {
		return output
	}

	base := filepath.Base(input)
	for _, ext := range []string{".gz", ".xz", ".bz2", ".zip", ".zlib"} {
		base = strings.TrimSuffix(base, ext)
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))

	return filepath.Join(output, base+".qc.tsv")
}

// writeExport writes the ranked report. A .csv destination is comma
// delimited; anything else is tab delimited.
func writeExport(path string, r *batch.Report) error {
	delim := '\t'
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		delim = ','
	}

	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}

	if err := batch.WriteDelimited(f, r, delim); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return pfx.Err(err)
	}

	return nil
}

// printReport writes the first rows of r in input order, then every sample
// grouped by concentration tier, then the sequencing order.
func printReport(w io.Writer, r *batch.Report) {
	items := r.Composites()

	fmt.Fprintf(w, "%s: %d samples, %d unreadable\n", r.Source, r.Summary.Total, r.Summary.Errors)

	fmt.Fprintln(w, "\nPreview")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Sample\tConc\tTier\t260/280\t260/230\tQC\tElectrophoresis\tOrder")
	for _, c := range ranking.Preview(items, previewRows) {
		fmt.Fprintf(tw, "%s\t%g\t%s\t%.2f\t%.2f\t%s\t%s\t%d\n",
			c.Name, c.Concentration, c.Tier, c.Ratio280, c.Ratio230,
			c.Verdict.Quality, c.Electrophoresis, c.Order)
	}
	tw.Flush()
	if len(items) > previewRows {
		fmt.Fprintf(w, "... %d more\n", len(items)-previewRows)
	}

	fmt.Fprintln(w, "\nBy concentration tier")
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Tier\tSample\tConc\t260/230")
	for _, c := range ranking.ByTier(items) {
		fmt.Fprintf(tw, "%s\t%s\t%g\t%.2f\n", c.Tier, c.Name, c.Concentration, c.Ratio230)
	}
	tw.Flush()

	fmt.Fprintln(w, "\nSequencing order")
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Rank\tSample\tOrder\tElectrophoresis")
	for _, rk := range ranking.ByPriority(items) {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", rk.Rank, rk.Name, rk.Order, rk.Electrophoresis)
	}
	tw.Flush()
}

func printHistogram(w io.Writer, r *batch.Report, bins int) error {
	var conc []float64
	for _, it := range r.Items {
		if it.Error == "" {
			conc = append(conc, it.Concentration)
		}
	}
	if len(conc) == 0 {
		return nil
	}

	fmt.Fprintln(w, "Concentration:")
	if err := histogram.Fprint(w, histogram.Hist(bins, conc), histogram.Linear(40)); err != nil {
		return pfx.Err(err)
	}

	return nil
}
