package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/anyvario/anyvar/internal/anyvar"
	"github.com/anyvario/anyvar/internal/config"
	"github.com/anyvario/anyvar/internal/httpapi"
	"github.com/anyvario/anyvar/internal/jobqueue"
	"github.com/anyvario/anyvar/internal/vcfingest"
)

func newServeCmd() *cobra.Command {
	var listenAddr string
	var asyncEnabled bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the anyvar HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(listenAddr, asyncEnabled)
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", "", "address to listen on (default from config)")
	cmd.Flags().BoolVar(&asyncEnabled, "async", false, "enable the async /vcf?enable_async=true job queue")

	return cmd
}

func runServe(listenAddr string, asyncEnabled bool) error {
	logger := buildLogger()
	defer logger.Sync() //nolint:errcheck

	av, store, err := buildAnyVar()
	if err != nil {
		return fmt.Errorf("wire anyvar: %w", err)
	}
	defer store.Close()

	if listenAddr == "" {
		listenAddr = config.GetString(config.HTTPListenAddrKey)
	}
	workDir := config.GetString(config.AsyncWorkDirKey)

	opts := []httpapi.Option{
		httpapi.WithLogger(logger),
		httpapi.WithWorkDir(workDir),
		httpapi.WithVCFWorkers(config.GetInt(config.WorkerConcurrencyKey)),
		httpapi.WithFailedStatusCode(config.GetInt(config.FailureStatusCodeKey)),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var broker jobqueue.Broker
	if asyncEnabled {
		if workDir == "" {
			return fmt.Errorf("async mode requires %s to be set", config.AsyncWorkDirKey)
		}
		broker = jobqueue.NewMemBroker(config.GetInt(config.WorkerConcurrencyKey) * 4)
		opts = append(opts, httpapi.WithBroker(broker))

		poolOpts := jobqueue.WorkerPoolOptions{
			Concurrency: config.GetInt(config.WorkerConcurrencyKey),
			SoftTimeout: time.Duration(config.GetInt(config.SoftTaskTimeLimitKey)) * time.Second,
			HardTimeout: time.Duration(config.GetInt(config.HardTaskTimeLimitKey)) * time.Second,
		}
		pool := jobqueue.NewWorkerPool(broker, vcfTaskFunc(av, logger), poolOpts, logger)
		go pool.Run(ctx)
	}

	srv := httpapi.NewServer(av, opts...)

	server := &http.Server{Addr: listenAddr, Handler: srv.Router()}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Infow("anyvar serving", "addr", listenAddr, "async", asyncEnabled)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// vcfTaskFunc adapts the §4.8 ingest pipeline to jobqueue.TaskFunc,
// writing the annotated VCF to a sibling "output.vcf" file next to the
// run's input (spec.md §4.9: "on success moves the output to
// output_path").
func vcfTaskFunc(av *anyvar.AnyVar, logger *zap.SugaredLogger) jobqueue.TaskFunc {
	return func(ctx context.Context, run *jobqueue.Run) (string, error) {
		dir := filepath.Dir(run.InputPath)
		outputPath := filepath.Join(dir, "output.vcf")

		count, err := vcfingest.RunFile(ctx, av, run.InputPath, outputPath, config.GetInt(config.WorkerConcurrencyKey), logger)
		if err != nil {
			return "", err
		}
		logger.Infow("async vcf ingest completed", "run_id", run.RunID, "rows", count)
		return outputPath, nil
	}
}
