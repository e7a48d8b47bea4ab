// Package serve runs the HTTP aggregation service.
package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/complyops/sentinel/internal/config"
	"github.com/complyops/sentinel/internal/connector"
	"github.com/complyops/sentinel/internal/detector"
	"github.com/complyops/sentinel/internal/engine"
	"github.com/complyops/sentinel/internal/risk"
	"github.com/complyops/sentinel/internal/server"
	"github.com/complyops/sentinel/pkg/logger"
)

var (
	configFile string
	addr       string
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the aggregation service",
		Long: `Run the HTTP aggregation service.

The service ingests findings, recomputes the risk score on every batch,
creates human-in-the-loop reviews for high-risk findings, and exposes the
detectors, the review queue, and prometheus metrics over HTTP. With an s3
section in the config it also crawls policy documents on an interval.`,
		Example: `  # Run with defaults on :8080
  sentinel serve

  # Run with a config file
  sentinel serve --config sentinel.yaml

  # Override the listen address
  sentinel serve --config sentinel.yaml --addr :9090`,
		RunE: runServe,
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to config file")
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config and SENTINEL_ADDR)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	log := logger.GetGlobalLogger()

	// .env is optional; real deployments set the environment directly.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			log.Warn("failed to load .env", "error", err)
		}
	}

	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if envAddr := os.Getenv("SENTINEL_ADDR"); envAddr != "" {
		cfg.Server.Addr = envAddr
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	metrics := server.NewMetrics()
	eng := engine.New(
		risk.NewCalculator(cfg.Risk.Weights),
		risk.NewTriggerPolicy(cfg.Risk.Thresholds),
		engine.WithObserver(metrics),
		engine.WithLogger(log),
	)

	patterns := cfg.DetectorPatterns()
	dets := server.Detectors{
		Diff:     detector.NewDiffDetector(patterns, log),
		Chat:     detector.NewChatDetector(patterns, log),
		Document: detector.NewDocDetector(patterns, log),
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.S3 != nil {
		source, err := connector.NewS3DocumentSource(ctx, cfg.S3, log)
		if err != nil {
			return fmt.Errorf("setting up document crawler: %w", err)
		}
		go runCrawler(ctx, source, dets.Document, eng, cfg.S3.PollInterval(), log)
	}

	return server.New(eng, dets, metrics, log).Run(ctx, cfg.Server.Addr)
}

// runCrawler periodically pulls documents from the connector, runs the
// document detector over each, and ingests the results. Re-crawled documents
// dedup cleanly through deterministic finding IDs.
func runCrawler(ctx context.Context, source *connector.S3DocumentSource, det *detector.DocDetector, eng *engine.Engine, interval time.Duration, log logger.Logger) {
	crawl := func() {
		docs, err := source.Documents(ctx)
		if err != nil {
			eng.RecordAgentError(det.Name())
			log.Error("document crawl failed", "error", err)
			return
		}

		total := 0
		for i := range docs {
			findings, err := det.Analyze(ctx, docs[i])
			if err != nil {
				eng.RecordAgentError(det.Name())
				log.Error("document analysis failed", "doc_id", docs[i].ID, "error", err)
				continue
			}
			eng.Ingest(findings)
			total += len(findings)
		}
		eng.UpdateAgentStatus(det.Name(), true, total)
	}

	crawl()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			crawl()
		}
	}
}
