package models

import "time"

// AgentStatus tracks the liveness of one external detector. An entry is
// created the first time a detector reports in and is never deleted during
// the process lifetime.
type AgentStatus struct {
	LastHeartbeat time.Time `json:"last_heartbeat"`
	AgentName     string    `json:"agent_name"`
	IsActive      bool      `json:"is_active"`
	FindingsToday int       `json:"findings_today"`
	ErrorCount    int       `json:"error_count"`
}
