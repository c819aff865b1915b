// gelqc grades nucleic-acid samples from spectrophotometer tables and,
// optionally, a gel electrophoresis image, and ranks them for sequencing.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/carbocation/gelqc"
	"github.com/carbocation/gelqc/compileinfo"
	"github.com/carbocation/gelqc/sheet"
	"github.com/carbocation/gelqc/standards"
	"github.com/carbocation/pfx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	standardsPath string
	layoutName    string
	verbose       bool

	log    = zap.NewNop()
	opener = &gelqc.Opener{}
)

var rootCmd = &cobra.Command{
	Use:           "gelqc",
	Short:         "Quality control for DNA samples: spectrophotometer readings and gel lanes",
	Version:       compileinfo.Get().Short(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(verbose)
		if err != nil {
			return err
		}
		log = l
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&standardsPath, "standards", "", "Standards document (YAML or JSON). Defaults apply when empty.")
	pf.StringVar(&layoutName, "layout", "standard", "Table layout, one of: "+sheet.LayoutNames())
	pf.BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")
	pf.StringVar(&opener.S3Region, "s3-region", "", "Region for s3:// paths. Falls back to the AWS environment.")
	pf.StringVar(&opener.GCSCredentials, "gcs-credentials", "", "Service account key for gs:// paths. Falls back to Application Default Credentials.")

	rootCmd.AddCommand(evaluateCmd, analyzeCmd, laneCmd, standardsCmd, serveCmd, versionCmd)
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

// loadStandards reads the --standards document, local or remote.
func loadStandards(ctx context.Context) (standards.Config, error) {
	if standardsPath == "" {
		return standards.Default(), nil
	}

	rc, err := opener.Open(ctx, standardsPath)
	if err != nil {
		return standards.Config{}, pfx.Err(err)
	}
	defer rc.Close()

	cfg, err := standards.Parse(rc)
	if err != nil {
		return standards.Config{}, fmt.Errorf("%s: %w", standardsPath, err)
	}

	return cfg, nil
}

func layout() (sheet.Layout, error) {
	return sheet.LookupLayout(layoutName)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	stop()

	opener.Close()
	_ = log.Sync()

	if err != nil {
		fmt.Fprintln(os.Stderr, "gelqc:", err)
		os.Exit(1)
	}
}
