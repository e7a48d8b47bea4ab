package models

import "fmt"

// Source identifies the kind of signal a finding was detected in.
type Source string

// Signal sources.
const (
	SourceCodeReview  Source = "code_review"
	SourceChatMessage Source = "chat_message"
	SourceDocument    Source = "document"
)

// IsValid reports whether s is a known signal source.
func (s Source) IsValid() bool {
	switch s {
	case SourceCodeReview, SourceChatMessage, SourceDocument:
		return true
	default:
		return false
	}
}

// ParseSource converts a lowercase wire tag into a Source.
func ParseSource(tag string) (Source, error) {
	s := Source(tag)
	if !s.IsValid() {
		return "", fmt.Errorf("unknown signal source %q", tag)
	}
	return s, nil
}
