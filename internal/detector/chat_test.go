package detector

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complyops/sentinel/internal/models"
	"github.com/complyops/sentinel/pkg/logger"
)

func newTestChatDetector() *ChatDetector {
	c := NewChatDetector(DefaultPatterns(), logger.NewMockLogger())
	c.now = func() time.Time { return detectorNow }
	return c
}

func TestChatDetectorMatchesPatternGroup(t *testing.T) {
	c := newTestChatDetector()

	msg := Message{
		Channel:   "engineering",
		User:      "dana",
		Text:      "can we just share data with the analytics vendor directly?",
		Timestamp: "1756640000.000100",
	}
	findings, err := c.Analyze(context.Background(), msg)
	require.NoError(t, err)
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, models.SourceChatMessage, f.Source)
	assert.Equal(t, "Policy-relevant conversation: Data Sharing", f.Title)
	assert.Equal(t, models.SeverityHigh, f.Severity)
	assert.ElementsMatch(t, []models.Framework{models.FrameworkGDPR, models.FrameworkSOC2}, f.Frameworks)
	assert.InDelta(t, 0.6, f.Confidence, 0.001)
	assert.Equal(t, msg.Text, f.RawContent)
	assert.Equal(t, "engineering", f.Metadata["channel"])
	assert.Equal(t, "dana", f.Metadata["user"])
	assert.Equal(t, "data_sharing", f.Metadata["pattern"])
	assert.Equal(t, "share data with", f.Metadata["keyword"])
	require.NoError(t, f.Validate())
}

func TestChatDetectorOneFindingPerGroup(t *testing.T) {
	c := newTestChatDetector()

	// Two keywords from the same group must collapse into one finding.
	msg := Message{
		Channel:   "support",
		User:      "lee",
		Text:      "patient name and diagnosis are both in the ticket body",
		Timestamp: "1756640001.000200",
	}
	findings, err := c.Analyze(context.Background(), msg)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "patient_info", findings[0].Metadata["pattern"])
	assert.Equal(t, models.SeverityCritical, findings[0].Severity)
}

func TestChatDetectorMultipleGroups(t *testing.T) {
	c := newTestChatDetector()

	msg := Message{
		Channel:   "general",
		User:      "sam",
		Text:      "let's skip auth for the demo and keep forever the logs",
		Timestamp: "1756640002.000300",
	}
	findings, err := c.Analyze(context.Background(), msg)
	require.NoError(t, err)
	require.Len(t, findings, 2)

	// Groups are evaluated in name order.
	assert.Equal(t, "access_bypass", findings[0].Metadata["pattern"])
	assert.Equal(t, "retention_policy", findings[1].Metadata["pattern"])
}

func TestChatDetectorNoMatch(t *testing.T) {
	c := newTestChatDetector()

	findings, err := c.Analyze(context.Background(), Message{
		Channel:   "random",
		User:      "pat",
		Text:      "lunch at noon?",
		Timestamp: "1756640003.000400",
	})
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestChatDetectorTruncatesLongMessages(t *testing.T) {
	c := newTestChatDetector()

	msg := Message{
		Channel:   "engineering",
		User:      "dana",
		Text:      "credit card " + strings.Repeat("x", 1000),
		Timestamp: "1756640004.000500",
	}
	findings, err := c.Analyze(context.Background(), msg)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Len(t, findings[0].RawContent, chatExcerptLength)
}

func TestChatDetectorDeterministicIDs(t *testing.T) {
	c := newTestChatDetector()
	msg := Message{Channel: "eng", User: "dana", Text: "shared password in the wiki", Timestamp: "1756640005.000600"}

	first, err := c.Analyze(context.Background(), msg)
	require.NoError(t, err)
	second, err := c.Analyze(context.Background(), msg)
	require.NoError(t, err)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, models.FindingID(models.SourceChatMessage, "access_bypass", "eng:1756640005.000600"), first[0].ID)
}
