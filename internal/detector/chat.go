package detector

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/complyops/sentinel/internal/models"
	"github.com/complyops/sentinel/pkg/logger"
)

const (
	chatConfidence    = 0.6
	chatExcerptLength = 500
)

// ChatDetector flags policy-relevant conversations in chat messages.
type ChatDetector struct {
	patterns ChatPatterns
	titler   cases.Caser
	log      logger.Logger
	now      func() time.Time
}

// NewChatDetector creates a chat detector with the given pattern tables.
func NewChatDetector(patterns Patterns, log logger.Logger) *ChatDetector {
	return &ChatDetector{
		patterns: patterns.Chat,
		titler:   cases.Title(language.English),
		log:      log.With("detector", AgentChat),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Name returns the detector's agent name.
func (c *ChatDetector) Name() string { return AgentChat }

// Analyze classifies a single chat message. At most one finding is emitted
// per pattern group per message, and pattern groups are evaluated in name
// order so output is deterministic.
func (c *ChatDetector) Analyze(ctx context.Context, msg Message) ([]models.Finding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	textLower := strings.ToLower(msg.Text)
	detectedAt := c.now()

	names := make([]string, 0, len(c.patterns))
	for name := range c.patterns {
		names = append(names, name)
	}
	sort.Strings(names)

	var findings []models.Finding
	for _, name := range names {
		pattern := c.patterns[name]
		for _, keyword := range pattern.Keywords {
			if !strings.Contains(textLower, strings.ToLower(keyword)) {
				continue
			}
			findings = append(findings, models.Finding{
				ID:       models.FindingID(models.SourceChatMessage, name, msg.Channel+":"+msg.Timestamp),
				Source:   models.SourceChatMessage,
				Title:    "Policy-relevant conversation: " + c.titler.String(strings.ReplaceAll(name, "_", " ")),
				Description: fmt.Sprintf("Keyword %q detected in #%s by %s. This may relate to %s compliance.",
					keyword, msg.Channel, msg.User, frameworkTags(pattern.Frameworks)),
				Severity:   pattern.Severity,
				Frameworks: pattern.Frameworks,
				Confidence: chatConfidence,
				DetectedAt: detectedAt,
				RawContent: truncate(msg.Text, chatExcerptLength),
				Metadata: map[string]any{
					"channel": msg.Channel,
					"user":    msg.User,
					"pattern": name,
					"keyword": keyword,
				},
			})
			break // one finding per pattern group per message
		}
	}

	c.log.Info("analyzed chat message", "channel", msg.Channel, "findings", len(findings))
	return findings, nil
}

func frameworkTags(fws []models.Framework) string {
	tags := make([]string, len(fws))
	for i, fw := range fws {
		tags[i] = strings.ToUpper(string(fw))
	}
	return strings.Join(tags, ", ")
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
