package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/carbocation/gelqc"
	"github.com/carbocation/gelqc/archive"
	"github.com/carbocation/gelqc/batch"
	"github.com/carbocation/gelqc/standards"
	"github.com/carbocation/gelqc/web"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	addr      string
	accessLog bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the grading engine over HTTP",
	Long: `Serve the grading engine over HTTP. When --standards names a local file,
it is reloaded whenever it changes; a document that fails validation is logged
and the previous standards stay in effect.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadStandards(ctx)
		if err != nil {
			return err
		}
		store := standards.NewStore(cfg)

		var arc *archive.Archive
		if archivePath != "" {
			if arc, err = archive.Open(archivePath); err != nil {
				return err
			}
			defer arc.Close()
		}

		l, err := layout()
		if err != nil {
			return err
		}

		s := web.New(store, arc, log)
		s.Layout = l
		s.Lanes = laneCount
		s.AccessLog = accessLog
		s.Options.Workers = workers
		s.Options.LaneOffset = laneOffset

		srv := &http.Server{
			Addr:              addr,
			Handler:           s.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, ctx := errgroup.WithContext(ctx)

		if standardsPath != "" && !gelqc.IsRemote(standardsPath) {
			path, err := gelqc.ExpandHome(standardsPath)
			if err != nil {
				return err
			}
			g.Go(func() error { return store.Watch(ctx, path, log) })
		}

		g.Go(func() error {
			log.Info("listening", zap.String("addr", addr))
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})

		g.Go(func() error {
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			log.Info("shutting down")
			return srv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&addr, "addr", ":9019", "Listen address")
	f.StringVar(&archivePath, "archive", "", "SQLite database that keeps every analyzed run")
	f.BoolVar(&accessLog, "access-log", false, "Log every request to stdout")
	f.IntVar(&laneCount, "lanes", 14, "Default lanes per gel")
	f.IntVar(&laneOffset, "lane-offset", 1, "Default gel lane of the first table row")
	f.IntVar(&workers, "workers", batch.DefaultOptions().Workers, "Rows graded concurrently per request")
}
