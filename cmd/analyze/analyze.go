// Package analyze runs the detectors against local files for one-shot
// inspection, without a running service.
package analyze

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/complyops/sentinel/internal/config"
	"github.com/complyops/sentinel/internal/detector"
	"github.com/complyops/sentinel/internal/models"
	"github.com/complyops/sentinel/internal/risk"
	"github.com/complyops/sentinel/pkg/logger"
	"github.com/complyops/sentinel/pkg/pathutil"
)

var (
	configFile string

	diffOwner  string
	diffRepo   string
	diffNumber int

	chatChannel string
	chatUser    string

	docTitle    string
	docModified string
)

// NewAnalyzeCommand creates the analyze command and its subcommands.
func NewAnalyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run detectors against local files",
		Long: `Run a detector against a local file and print the findings as JSON,
along with the risk score the findings would produce on their own.

Nothing is ingested anywhere; this is a dry run for tuning patterns.`,
	}
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config file (for pattern overrides)")

	cmd.AddCommand(newDiffCommand(), newChatCommand(), newDocumentCommand())
	return cmd
}

func newDiffCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <patch-file>",
		Short: "Analyze a unified diff",
		Example: `  sentinel analyze diff change.patch --owner acme --repo api --number 42`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(args[0])
			if err != nil {
				return err
			}
			patterns, err := loadPatterns()
			if err != nil {
				return err
			}

			det := detector.NewDiffDetector(patterns, logger.GetGlobalLogger())
			findings, err := det.Analyze(cmd.Context(), detector.ChangeSet{
				Owner:  diffOwner,
				Repo:   diffRepo,
				Number: diffNumber,
				Diff:   content,
			})
			if err != nil {
				return err
			}
			return printResults(findings)
		},
	}
	cmd.Flags().StringVar(&diffOwner, "owner", "local", "Repository owner")
	cmd.Flags().StringVar(&diffRepo, "repo", "local", "Repository name")
	cmd.Flags().IntVar(&diffNumber, "number", 0, "Change number")
	return cmd
}

func newChatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat <message-file>",
		Short: "Analyze a chat message",
		Example: `  sentinel analyze chat message.txt --channel engineering --user dana`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(args[0])
			if err != nil {
				return err
			}
			patterns, err := loadPatterns()
			if err != nil {
				return err
			}

			det := detector.NewChatDetector(patterns, logger.GetGlobalLogger())
			findings, err := det.Analyze(cmd.Context(), detector.Message{
				Channel:   chatChannel,
				User:      chatUser,
				Text:      content,
				Timestamp: fmt.Sprintf("%d", time.Now().Unix()),
			})
			if err != nil {
				return err
			}
			return printResults(findings)
		},
	}
	cmd.Flags().StringVar(&chatChannel, "channel", "local", "Channel name")
	cmd.Flags().StringVar(&chatUser, "user", "local", "Author")
	return cmd
}

func newDocumentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "document <file>",
		Short: "Analyze a policy document",
		Example: `  sentinel analyze document privacy_policy.md --modified 2024-06-01`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(args[0])
			if err != nil {
				return err
			}
			patterns, err := loadPatterns()
			if err != nil {
				return err
			}

			title := docTitle
			if title == "" {
				title = args[0]
			}
			var lastModified time.Time
			if docModified != "" {
				lastModified, err = time.Parse("2006-01-02", docModified)
				if err != nil {
					return fmt.Errorf("parsing --modified: %w", err)
				}
			}

			det := detector.NewDocDetector(patterns, logger.GetGlobalLogger())
			findings, err := det.Analyze(cmd.Context(), detector.Document{
				ID:           args[0],
				Title:        title,
				Content:      content,
				LastModified: lastModified,
			})
			if err != nil {
				return err
			}
			return printResults(findings)
		},
	}
	cmd.Flags().StringVar(&docTitle, "title", "", "Document title (defaults to the file path)")
	cmd.Flags().StringVar(&docModified, "modified", "", "Last-modified date (YYYY-MM-DD) for staleness checks")
	return cmd
}

func readInput(path string) (string, error) {
	cleanPath, err := pathutil.ValidatePath(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(cleanPath) // #nosec G304 -- path is validated above
	if err != nil {
		return "", fmt.Errorf("reading input file: %w", err)
	}
	return string(data), nil
}

func loadPatterns() (detector.Patterns, error) {
	if configFile == "" {
		return detector.DefaultPatterns(), nil
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return detector.Patterns{}, err
	}
	return cfg.DetectorPatterns(), nil
}

// printResults writes the findings and the score they would produce on their
// own to stdout.
func printResults(findings []models.Finding) error {
	if findings == nil {
		findings = []models.Finding{}
	}
	score := risk.NewCalculator(risk.DefaultWeights()).Compute(findings, time.Now().UTC())

	out, err := json.MarshalIndent(map[string]any{
		"findings":   findings,
		"risk_score": score,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
