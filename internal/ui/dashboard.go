// Package ui provides the terminal dashboard for watching a running
// aggregation service.
package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/complyops/sentinel/internal/models"
)

const refreshInterval = 2 * time.Second

// Client fetches dashboard snapshots from a running service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a dashboard API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Summary fetches the current dashboard snapshot.
func (c *Client) Summary(ctx context.Context) (models.DashboardSummary, error) {
	var summary models.DashboardSummary

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/dashboard", nil)
	if err != nil {
		return summary, fmt.Errorf("building request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return summary, fmt.Errorf("fetching dashboard: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return summary, fmt.Errorf("dashboard returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return summary, fmt.Errorf("decoding dashboard response: %w", err)
	}
	return summary, nil
}

type summaryMsg models.DashboardSummary

type fetchErrMsg struct{ err error }

type tickMsg time.Time

// Dashboard is the bubbletea model for the live risk dashboard.
type Dashboard struct {
	client      *Client
	summary     models.DashboardSummary
	err         error
	lastRefresh time.Time
	loaded      bool
	quitting    bool
	width       int
	height      int
}

// NewDashboard creates a dashboard backed by the given client.
func NewDashboard(client *Client) *Dashboard {
	return &Dashboard{client: client}
}

// Run starts the dashboard in the alternate screen.
func (d *Dashboard) Run() error {
	p := tea.NewProgram(d, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init starts the first fetch and the refresh ticker.
func (d *Dashboard) Init() tea.Cmd {
	return tea.Batch(d.fetch(), tick())
}

// Update handles refresh ticks, fetch results, and key presses.
func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return d, tea.Batch(d.fetch(), tick())

	case summaryMsg:
		d.summary = models.DashboardSummary(msg)
		d.err = nil
		d.loaded = true
		d.lastRefresh = time.Now()
		return d, nil

	case fetchErrMsg:
		d.err = msg.err
		return d, nil

	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height
		return d, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			d.quitting = true
			return d, tea.Quit
		case "r":
			return d, d.fetch()
		}
	}
	return d, nil
}

func (d *Dashboard) fetch() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		summary, err := d.client.Summary(ctx)
		if err != nil {
			return fetchErrMsg{err: err}
		}
		return summaryMsg(summary)
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginTop(1)

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	scoreLow      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("76"))
	scoreGuarded  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	scoreElevated = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	scoreSevere   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	severityStyles = map[models.Severity]lipgloss.Style{
		models.SeverityCritical: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		models.SeverityHigh:     lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		models.SeverityMedium:   lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		models.SeverityLow:      lipgloss.NewStyle().Foreground(lipgloss.Color("76")),
	}
)

// View renders the dashboard.
func (d *Dashboard) View() string {
	if d.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Sentinel Risk Dashboard"))
	b.WriteString("\n")

	if d.err != nil {
		b.WriteString(errStyle.Render(fmt.Sprintf("connection error: %v", d.err)))
		b.WriteString("\n")
	}
	if !d.loaded {
		b.WriteString(dimStyle.Render("loading..."))
		b.WriteString("\n")
		return b.String()
	}

	score := d.summary.RiskScore
	b.WriteString(sectionStyle.Render("Risk Posture"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  Overall: %s   Findings: %d (critical %d, high %d)\n",
		scoreStyle(score.OverallScore).Render(fmt.Sprintf("%.1f", score.OverallScore)),
		d.summary.TotalFindings, d.summary.CriticalFindings, d.summary.HighFindings))
	b.WriteString(fmt.Sprintf("  Pending reviews: %d\n", d.summary.PendingReviews))

	if len(score.FrameworkScores) > 0 {
		b.WriteString(sectionStyle.Render("Frameworks"))
		b.WriteString("\n")
		for _, fw := range sortedFrameworks(score.FrameworkScores) {
			v := score.FrameworkScores[fw]
			b.WriteString(fmt.Sprintf("  %-10s %s\n",
				strings.ToUpper(string(fw)), scoreStyle(v).Render(fmt.Sprintf("%.1f", v))))
		}
	}

	if len(d.summary.AgentStatuses) > 0 {
		b.WriteString(sectionStyle.Render("Agents"))
		b.WriteString("\n")
		for _, name := range sortedAgents(d.summary.AgentStatuses) {
			status := d.summary.AgentStatuses[name]
			marker := scoreLow.Render("●")
			if !status.IsActive {
				marker = scoreSevere.Render("●")
			}
			b.WriteString(fmt.Sprintf("  %s %-22s findings today: %-4d errors: %d\n",
				marker, name, status.FindingsToday, status.ErrorCount))
		}
	}

	if len(d.summary.RecentFindings) > 0 {
		b.WriteString(sectionStyle.Render("Recent Findings"))
		b.WriteString("\n")
		for i := range d.summary.RecentFindings {
			f := &d.summary.RecentFindings[i]
			b.WriteString(fmt.Sprintf("  %s %s\n",
				severityBadge(f.Severity), truncateTitle(f.Title, d.width)))
		}
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("last refresh %s  •  r: refresh  q: quit",
		d.lastRefresh.Format("15:04:05"))))
	b.WriteString("\n")
	return b.String()
}

func scoreStyle(score float64) lipgloss.Style {
	switch {
	case score >= 75:
		return scoreSevere
	case score >= 50:
		return scoreElevated
	case score >= 25:
		return scoreGuarded
	default:
		return scoreLow
	}
}

func severityBadge(severity models.Severity) string {
	style, ok := severityStyles[severity]
	if !ok {
		return fmt.Sprintf("[%s]", severity)
	}
	return style.Render(fmt.Sprintf("[%-8s]", strings.ToUpper(string(severity))))
}

func sortedFrameworks(scores map[models.Framework]float64) []models.Framework {
	out := make([]models.Framework, 0, len(scores))
	for fw := range scores {
		out = append(out, fw)
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

func sortedAgents(agents map[string]models.AgentStatus) []string {
	out := make([]string, 0, len(agents))
	for name := range agents {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func truncateTitle(title string, width int) string {
	limit := 68
	if width > 14 {
		limit = width - 14
	}
	if len(title) <= limit {
		return title
	}
	return title[:limit-3] + "..."
}
