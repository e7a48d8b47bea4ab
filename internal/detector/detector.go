// Package detector implements the pattern detectors that turn raw signals
// (code-review diffs, chat messages, document text) into candidate findings.
// Detectors are stateless classifiers: their matching rules are configuration
// data, and they never touch engine state — callers ingest their output.
package detector

import (
	"fmt"
	"time"
)

// Agent names used in the engine's status registry.
const (
	AgentCodeReview = "code_review_monitor"
	AgentChat       = "chat_monitor"
	AgentDocument   = "doc_crawler"
)

// ChangeSet is a code-review change handed to the diff detector. The caller
// fetches the diff; the detector only classifies it.
type ChangeSet struct {
	Owner  string   `json:"owner"`
	Repo   string   `json:"repo"`
	Number int      `json:"number"`
	URL    string   `json:"url,omitempty"`
	Diff   string   `json:"diff"`
	Files  []string `json:"files,omitempty"`
}

// Locator identifies the change for deterministic finding IDs.
func (c ChangeSet) Locator() string {
	return fmt.Sprintf("%s/%s#%d", c.Owner, c.Repo, c.Number)
}

// Message is a chat message handed to the chat detector.
type Message struct {
	Channel   string `json:"channel"`
	User      string `json:"user"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// Document is a document handed to the document detector. A zero LastModified
// skips staleness checks.
type Document struct {
	LastModified time.Time `json:"last_modified,omitzero"`
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	URL          string    `json:"url,omitempty"`
}
