package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/complyops/sentinel/internal/detector"
	"github.com/complyops/sentinel/internal/engine"
	"github.com/complyops/sentinel/internal/models"
)

func (s *Server) handleIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "sentinel",
		"status":  "running",
		"endpoints": gin.H{
			"ingest":    "POST /api/v1/findings",
			"findings":  "GET /api/v1/findings",
			"risk":      "GET /api/v1/risk",
			"dashboard": "GET /api/v1/dashboard",
			"reviews":   "GET /api/v1/reviews",
			"agents":    "GET /api/v1/agents",
			"analyze":   "POST /api/v1/analyze/{diff,chat,document}",
		},
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleIngest accepts a batch of pre-built findings. Every finding must be
// valid; an invalid one rejects the whole batch before any state changes.
func (s *Server) handleIngest(c *gin.Context) {
	var findings []models.Finding
	if err := c.ShouldBindJSON(&findings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}
	for i := range findings {
		if err := findings[i].Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("finding %d: %v", i, err)})
			return
		}
	}

	score := s.engine.Ingest(findings)
	c.JSON(http.StatusOK, gin.H{
		"submitted":  len(findings),
		"risk_score": score,
	})
}

func (s *Server) handleFindings(c *gin.Context) {
	var findings []models.Finding
	if param := c.Query("severity"); param != "" {
		severity, err := models.ParseSeverity(param)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		findings = s.engine.FindingsBySeverity(severity)
	} else {
		findings = s.engine.Findings()
	}

	if param := c.Query("framework"); param != "" {
		fw, err := models.ParseFramework(param)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		filtered := findings[:0]
		for i := range findings {
			if findings[i].HasFramework(fw) {
				filtered = append(filtered, findings[i])
			}
		}
		findings = filtered
	}

	if param := c.Query("limit"); param != "" {
		limit, err := strconv.Atoi(param)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid limit %q", param)})
			return
		}
		if limit < len(findings) {
			findings = findings[:limit]
		}
	}

	if findings == nil {
		findings = []models.Finding{}
	}
	c.JSON(http.StatusOK, gin.H{"findings": findings, "count": len(findings)})
}

func (s *Server) handleRisk(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.RiskScore())
}

func (s *Server) handleDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.DashboardSummary())
}

func (s *Server) handleReviews(c *gin.Context) {
	status := models.ReviewStatus(c.Query("status"))
	if status != "" && !status.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown review status %q", status)})
		return
	}

	reviews := s.engine.Reviews(status)
	if reviews == nil {
		reviews = []models.HITLReview{}
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews, "count": len(reviews)})
}

type resolveRequest struct {
	Status   string `json:"status" binding:"required"`
	Reviewer string `json:"reviewer"`
	Notes    string `json:"notes"`
}

func (s *Server) handleResolveReview(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}
	status, err := models.ParseResolution(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review, err := s.engine.ResolveReview(c.Param("id"), status, req.Reviewer, req.Notes)
	if errors.Is(err, engine.ErrReviewNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, review)
}

func (s *Server) handleAgents(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"agents": s.engine.AgentStatuses()})
}

type agentStatusRequest struct {
	IsActive      *bool `json:"is_active"`
	FindingsDelta int   `json:"findings_delta"`
}

// handleAgentStatus records an external agent heartbeat. Omitting is_active
// means the agent is alive.
func (s *Server) handleAgentStatus(c *gin.Context) {
	var req agentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	isActive := req.IsActive == nil || *req.IsActive
	name := c.Param("name")
	s.engine.UpdateAgentStatus(name, isActive, req.FindingsDelta)
	c.JSON(http.StatusOK, gin.H{"agent": name, "is_active": isActive})
}

func (s *Server) handleAnalyzeDiff(c *gin.Context) {
	var change detector.ChangeSet
	if err := c.ShouldBindJSON(&change); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}
	s.analyze(c, s.detectors.Diff.Name(), func(ctx context.Context) ([]models.Finding, error) {
		return s.detectors.Diff.Analyze(ctx, change)
	})
}

func (s *Server) handleAnalyzeChat(c *gin.Context) {
	var msg detector.Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}
	s.analyze(c, s.detectors.Chat.Name(), func(ctx context.Context) ([]models.Finding, error) {
		return s.detectors.Chat.Analyze(ctx, msg)
	})
}

func (s *Server) handleAnalyzeDocument(c *gin.Context) {
	var doc detector.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}
	s.analyze(c, s.detectors.Document.Name(), func(ctx context.Context) ([]models.Finding, error) {
		return s.detectors.Document.Analyze(ctx, doc)
	})
}

// analyze runs a detector, ingests what it found, and refreshes the agent
// registry. Detector failures count against the agent's error counter.
func (s *Server) analyze(c *gin.Context, agent string, run func(context.Context) ([]models.Finding, error)) {
	findings, err := run(c.Request.Context())
	if err != nil {
		s.engine.RecordAgentError(agent)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	score := s.engine.Ingest(findings)
	s.engine.UpdateAgentStatus(agent, true, len(findings))

	if findings == nil {
		findings = []models.Finding{}
	}
	c.JSON(http.StatusOK, gin.H{
		"findings":       findings,
		"findings_count": len(findings),
		"risk_score":     score,
	})
}
