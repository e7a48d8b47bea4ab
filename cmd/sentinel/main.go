// Package main is the entry point for the Sentinel CLI. Sentinel aggregates
// compliance signals from code reviews, chat, and documents into a weighted
// risk score, and escalates high-risk findings for human review.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/complyops/sentinel/cmd/analyze"
	"github.com/complyops/sentinel/cmd/dashboard"
	"github.com/complyops/sentinel/cmd/serve"
	"github.com/complyops/sentinel/pkg/logger"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	debug     bool
	logFormat string
)

func main() {
	root := &cobra.Command{
		Use:          "sentinel",
		Short:        "Compliance signal aggregation and risk scoring",
		Version:      fmt.Sprintf("%s (built %s)", version, buildTime),
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			logger.SetupLogger(debug, logFormat)
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text or json)")

	root.AddCommand(
		serve.NewServeCommand(),
		analyze.NewAnalyzeCommand(),
		dashboard.NewDashboardCommand(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
