package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/carbocation/gelqc/archive"
	"github.com/carbocation/gelqc/batch"
	"github.com/carbocation/gelqc/classify"
	"github.com/carbocation/gelqc/gel"
	"github.com/carbocation/pfx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	rulesName   string
	gelPath     string
	laneCount   int
	laneOffset  int
	workers     int
	archivePath string
	output      string
	summaryJSON bool
	histBins    int
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate FILE...",
	Short: "Grade each row against the standards, without a gel",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadStandards(ctx)
		if err != nil {
			return err
		}

		opt, err := batchOptions()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")

		for _, path := range args {
			report, err := runFile(ctx, path, cfg, nil, opt)
			if err != nil {
				return err
			}

			if err := enc.Encode(report.Verdicts()); err != nil {
				return pfx.Err(err)
			}
		}

		return nil
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze FILE...",
	Short: "Combine readings with gel lanes and rank samples for sequencing",
	Long: `Each row of each table is graded against the standards and, when --gel is
given, against the gel lane that holds it (row index plus --lane-offset). The
samples are then ranked by sequencing order and grouped by concentration tier.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadStandards(ctx)
		if err != nil {
			return err
		}

		opt, err := batchOptions()
		if err != nil {
			return err
		}

		var lanes classify.Lanes
		if gelPath != "" {
			lanes = loadGel(ctx, gelPath, laneCount, gel.NewAnalyzer(cfg.Image))
		}

		var arc *archive.Archive
		if archivePath != "" {
			if arc, err = archive.Open(archivePath); err != nil {
				return err
			}
			defer arc.Close()
		}

		if output != "" && len(args) > 1 {
			if err := os.MkdirAll(output, 0o755); err != nil {
				return pfx.Err(err)
			}
		}

		for _, path := range args {
			report, err := runFile(ctx, path, cfg, lanes, opt)
			if err != nil {
				return err
			}
			report.Gel = gelPath

			if err := finishReport(ctx, cmd, report, arc, outputPath(output, path, len(args) > 1)); err != nil {
				return err
			}
		}

		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{evaluateCmd, analyzeCmd} {
		c.Flags().StringVar(&rulesName, "rules", batch.RulesStandards.String(), "Verdict rules: standards or instrument")
		c.Flags().IntVar(&workers, "workers", batch.DefaultOptions().Workers, "Rows graded concurrently")
	}

	f := analyzeCmd.Flags()
	f.StringVar(&gelPath, "gel", "", "Gel image (PNG, JPEG, GIF, BMP or TIFF). Lanes report \"No Gel Image\" when empty.")
	f.IntVar(&laneCount, "lanes", 14, "Lanes on the gel, ladder included")
	f.IntVar(&laneOffset, "lane-offset", 1, "Gel lane of the first table row")
	f.StringVar(&archivePath, "archive", "", "SQLite database that keeps every run")
	f.StringVarP(&output, "output", "o", "", "Write the ranked table here (.csv for commas, tabs otherwise). A directory when several tables are given.")
	f.BoolVar(&summaryJSON, "summary", false, "Print the run summary as JSON after the preview")
	f.IntVar(&histBins, "histogram", 0, "Print a histogram of readable concentrations with this many bins")
}

func batchOptions() (batch.Options, error) {
	rules, err := batch.ParseRules(rulesName)
	if err != nil {
		return batch.Options{}, err
	}

	opt := batch.DefaultOptions()
	opt.Rules = rules
	opt.LaneOffset = laneOffset
	opt.Workers = workers

	return opt, nil
}

// loadGel always returns a Gel; an unreadable image yields one whose lanes
// all report the failure.
func loadGel(ctx context.Context, path string, lanes int, a gel.Analyzer) *gel.Gel {
	rc, err := opener.Open(ctx, path)
	if err != nil {
		log.Warn("gel image unavailable", zap.String("gel", path), zap.Error(err))
		return gel.FailedGel(fmt.Errorf("%w: %v", gel.ErrImageDecode, err))
	}
	defer rc.Close()

	img, err := gel.Decode(rc)
	if err != nil {
		log.Warn("gel image unreadable", zap.String("gel", path), zap.Error(err))
		return gel.FailedGel(err)
	}

	g := gel.NewGel(img, lanes, a)
	log.Debug("gel loaded",
		zap.String("gel", path),
		zap.Int("width", img.Width()),
		zap.Int("height", img.Height()),
		zap.Bool("inverted", g.Inverted()))

	return g
}

func finishReport(ctx context.Context, cmd *cobra.Command, report *batch.Report, arc *archive.Archive, dest string) error {
	if arc != nil {
		if err := arc.Save(ctx, report); err != nil {
			return err
		}
		log.Info("archived run", zap.Stringer("run", report.RunID))
	}

	if dest != "" {
		if err := writeExport(dest, report); err != nil {
			return err
		}
		log.Info("wrote ranked table", zap.String("path", dest))
	}

	printReport(cmd.OutOrStdout(), report)

	if histBins > 0 {
		if err := printHistogram(cmd.OutOrStdout(), report, histBins); err != nil {
			return err
		}
	}

	if summaryJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report.Summary); err != nil {
			return pfx.Err(err)
		}
	}

	return nil
}
